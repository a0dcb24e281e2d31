package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/pkg/errcode"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
	"github.com/kbhavake/dentalgpt/internal/service"
)

type ChatHandler struct {
	chats   *service.ChatService
	queries *service.QueryService
}

func NewChatHandler(chats *service.ChatService, queries *service.QueryService) *ChatHandler {
	return &ChatHandler{chats: chats, queries: queries}
}

type chatCreateRequest struct {
	Title     string `json:"title"`
	PatientID string `json:"patient_id"`
}

func (h *ChatHandler) Create(c *gin.Context) {
	var req chatCreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	chat, err := h.chats.Create(c.Request.Context(), getUserID(c), req.Title, req.PatientID)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chat)
}

func (h *ChatHandler) List(c *gin.Context) {
	chats, err := h.chats.List(c.Request.Context(), getUserID(c), c.Query("patient_id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chats)
}

func (h *ChatHandler) Update(c *gin.Context) {
	var fields map[string]interface{}
	if err := c.ShouldBindJSON(&fields); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	chat, err := h.chats.Update(c.Request.Context(), getUserID(c), c.Param("id"), fields)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, chat)
}

func (h *ChatHandler) Delete(c *gin.Context) {
	if err := h.chats.Delete(c.Request.Context(), getUserID(c), c.Param("id")); err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{"deleted": true})
}

func (h *ChatHandler) Messages(c *gin.Context) {
	messages, err := h.chats.Messages(c.Request.Context(), getUserID(c), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, messages)
}

type messageRequest struct {
	Query string `json:"query"`
	Image string `json:"image"`
}

// PostMessage runs one retrieval-augmented turn against a chat.
func (h *ChatHandler) PostMessage(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	turn, err := h.queries.Answer(c.Request.Context(), getUserID(c), c.Param("id"), req.Query, req.Image)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, turn)
}

type directQueryRequest struct {
	Query     string `json:"query"`
	PatientID string `json:"patient_id"`
}

// DirectQuery answers a one-off question outside any chat.
func (h *ChatHandler) DirectQuery(c *gin.Context) {
	var req directQueryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	answer, sources, queryID, err := h.queries.AnswerDirect(c.Request.Context(), getUserID(c), req.PatientID, req.Query)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, gin.H{
		"answer":   answer,
		"sources":  sources,
		"query_id": queryID,
	})
}

func (h *ChatHandler) RecentQueries(c *gin.Context) {
	limit := 10
	if value := c.Query("limit"); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil && parsed > 0 {
			limit = parsed
		}
	}
	logs, err := h.queries.RecentQueries(c.Request.Context(), getUserID(c), limit)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, logs)
}
