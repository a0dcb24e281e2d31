package handler

import (
	"encoding/base64"
	"io"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/pkg/errcode"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
	"github.com/kbhavake/dentalgpt/internal/service"
)

type IngestHandler struct {
	ingest *service.IngestService
}

func NewIngestHandler(ingest *service.IngestService) *IngestHandler {
	return &IngestHandler{ingest: ingest}
}

type ingestRequest struct {
	Text     string                 `json:"text"`
	Metadata map[string]interface{} `json:"metadata"`
}

func (h *IngestHandler) IngestText(c *gin.Context) {
	var req ingestRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.ingest.IngestText(c.Request.Context(), req.Text, req.Metadata)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *IngestHandler) UploadDocument(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "file is required")
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
	result, err := h.ingest.IngestFile(c.Request.Context(), file.Filename, c.PostForm("title"), data)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

var imageExts = map[string]string{
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".webp": "image/webp",
}

// UploadImage validates and base64-encodes an image so the client can attach
// it to a chat turn as a data URL.
func (h *IngestHandler) UploadImage(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "image file is required")
		return
	}
	mimeType, ok := imageExts[strings.ToLower(filepath.Ext(file.Filename))]
	if !ok {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "unsupported image type, expected png/jpg/jpeg/gif/webp")
		return
	}
	opened, err := file.Open()
	if err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to open file")
		return
	}
	defer opened.Close()
	data, err := io.ReadAll(opened)
	if err != nil || len(data) == 0 {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalidFile, "failed to read file")
		return
	}
	response.Success(c, gin.H{
		"image":    "data:" + mimeType + ";base64," + base64.StdEncoding.EncodeToString(data),
		"filename": file.Filename,
		"size":     len(data),
	})
}
