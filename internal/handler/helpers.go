package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/kbhavake/dentalgpt/internal/ai"
	"github.com/kbhavake/dentalgpt/internal/middleware"
	"github.com/kbhavake/dentalgpt/internal/pkg/errcode"
	appErr "github.com/kbhavake/dentalgpt/internal/pkg/errors"
	"github.com/kbhavake/dentalgpt/internal/pkg/response"
)

func getUserID(c *gin.Context) string {
	value, _ := c.Get(middleware.ContextUserIDKey)
	userID, _ := value.(string)
	return userID
}

// handleError maps service-layer sentinels and provider errors to http
// statuses. Provider failures get a remediation hint so a self-hosted
// operator knows what to check.
func handleError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	logutil.GetLogger(c.Request.Context()).Error("request failed",
		zap.String("method", c.Request.Method),
		zap.String("path", c.Request.URL.Path),
		zap.String("user_id", getUserID(c)),
		zap.Error(err),
	)
	switch {
	case errors.Is(err, appErr.ErrUnauthorized):
		response.Error(c, http.StatusUnauthorized, errcode.ErrUnauthorized, err.Error())
	case errors.Is(err, appErr.ErrForbidden):
		response.Error(c, http.StatusForbidden, errcode.ErrForbidden, err.Error())
	case errors.Is(err, appErr.ErrNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrNotFound, err.Error())
	case errors.Is(err, appErr.ErrInvalid):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case errors.Is(err, appErr.ErrConflict):
		response.Error(c, http.StatusConflict, errcode.ErrConflict, err.Error())
	case errors.Is(err, appErr.ErrTooMany):
		response.Error(c, http.StatusTooManyRequests, errcode.ErrTooMany, err.Error())
	case errors.Is(err, ai.ErrBadRequest):
		response.Error(c, http.StatusBadRequest, errcode.ErrInvalid, err.Error())
	case errors.Is(err, ai.ErrModelNotFound):
		response.Error(c, http.StatusNotFound, errcode.ErrAIUnavailable, err.Error()+" (try: ollama pull <model>)")
	case errors.Is(err, ai.ErrQuotaExceeded):
		response.Error(c, http.StatusInternalServerError, errcode.ErrAIUnavailable, err.Error()+" (provider quota exhausted, check your plan or switch providers)")
	case errors.Is(err, ai.ErrUnavailable):
		response.Error(c, http.StatusInternalServerError, errcode.ErrAIUnavailable, err.Error()+" (is the provider running and the api key valid?)")
	default:
		response.Error(c, http.StatusInternalServerError, errcode.ErrInternal, err.Error())
	}
}
