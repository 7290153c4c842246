package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"go-gin-gorm-user/internal/core/apperr"
	resp "go-gin-gorm-user/internal/transport/http/response"
)

// ErrorHandler 唯一的错误出口：把 c.Errors 中最后一个错误渲染成信封。
// 未分类错误一律 500，对外只给通用提示，原因写日志。
func ErrorHandler(l *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err
		status, msg := render(err)
		if status >= http.StatusInternalServerError {
			l.Error("request failed",
				zap.String("rid", c.GetString(KeyRequestID)),
				zap.String("path", c.Request.URL.Path),
				zap.Int("status", status),
				zap.Error(err))
		}
		c.AbortWithStatusJSON(status, resp.Error(status, msg))
	}
}

func render(err error) (int, string) {
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		return http.StatusRequestEntityTooLarge, ""
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, ""
	}
	status := apperr.Status(err)
	if ae := apperr.As(err); ae != nil {
		return status, ae.Msg
	}
	if status >= http.StatusInternalServerError {
		return status, ""
	}
	return status, err.Error()
}

// fail 中间件内部使用：记录错误并终止后续处理
func fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}
