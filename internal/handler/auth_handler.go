package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/kbhavake/dentalgpt/internal/pkg/errcode"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
	"github.com/kbhavake/dentalgpt/internal/service"
)

type AuthHandler struct {
	auth *service.AuthService
}

func NewAuthHandler(auth *service.AuthService) *AuthHandler {
	return &AuthHandler{auth: auth}
}

type googleLoginRequest struct {
	Token string `json:"token"`
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, "invalid request")
		return
	}
	result, err := h.auth.Login(c.Request.Context(), req.Token)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}

func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.Me(c.Request.Context(), getUserID(c))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, user)
}
