package api

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/kizomanizo/fanya-backend/internal/store"

	"github.com/gin-gonic/gin"
)

// envelope 统一响应外壳。所有接口的成功和失败都用同一个形状。
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Payload any    `json:"payload"`
}

func respond(c *gin.Context, status int, message string, payload any) {
	c.JSON(status, envelope{Success: status < 400, Message: message, Payload: payload})
}

// respondStoreError 把存储层哨兵错误映射到 HTTP 状态码。
// 非预期错误统一 500，细节只进日志不出响应。
func (s *Server) respondStoreError(c *gin.Context, err error, fallback string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		respond(c, http.StatusNotFound, "resource not found", nil)
	case errors.Is(err, store.ErrConflict):
		respond(c, http.StatusConflict, "resource already exists", nil)
	case errors.Is(err, store.ErrForbidden):
		respond(c, http.StatusForbidden, "not allowed to access this resource", nil)
	case errors.Is(err, store.ErrValidation):
		respond(c, http.StatusBadRequest, "invalid input", nil)
	case errors.Is(err, store.ErrUnavailable):
		respond(c, http.StatusServiceUnavailable, "storage unavailable", nil)
	default:
		s.logger.Error(fallback, slog.String("error", err.Error()))
		respond(c, http.StatusInternalServerError, fallback, nil)
	}
}
