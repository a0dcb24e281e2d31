package handler

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/pkg/errcode"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
	"github.com/kbhavake/dentalgpt/internal/service"
)

type VoiceHandler struct {
	voice *service.VoiceService
}

func NewVoiceHandler(voice *service.VoiceService) *VoiceHandler {
	return &VoiceHandler{voice: voice}
}

func (h *VoiceHandler) Transcribe(c *gin.Context) {
	if h.voice == nil {
		response.Error(c, http.StatusServiceUnavailable, errcode.ErrTranscribeFailed, "voice transcription is not configured")
		return
	}
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "audio file is required")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	text, err := h.voice.Transcribe(c.Request.Context(), file.Filename, data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"text": text})
}
