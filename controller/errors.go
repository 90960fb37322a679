package controller

import (
	"errors"
	"net/http"

	"easychat-service/controller/respond"
	"easychat-service/service/message_service"

	"github.com/gin-gonic/gin"
)

var (
	errInternal   = errors.New("internal server error")
	errBadRequest = errors.New("参数错误")
)

// statusFor 错误分类到 HTTP 状态码
func statusFor(err error) int {
	switch {
	case errors.Is(err, message_service.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, message_service.ErrBlocked):
		return http.StatusForbidden
	case errors.Is(err, message_service.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, message_service.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError 5xx 不向调用方暴露内部细节
func (ctl *ChatController) respondError(c *gin.Context, err error, t int64) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		ctl.logger.Errorf("❌ %s %s 失败: %v", c.Request.Method, c.Request.URL.Path, err)
		if !errors.Is(err, message_service.ErrUpload) {
			err = errInternal
		} else {
			err = message_service.ErrUpload
		}
	}
	c.JSONP(status, respond.RespErr(err, elapsed(t), status))
}
