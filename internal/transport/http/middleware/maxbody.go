package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	resp "go-gin-gorm-user/internal/transport/http/response"
)

// MaxBodyBytes 限制请求体大小；声明长度超限直接 413，
// 未声明长度的在读取时由 http.MaxBytesError 触发，交给 ErrorHandler
func MaxBodyBytes(n int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if n <= 0 {
			c.Next()
			return
		}
		if c.Request.ContentLength > n {
			resp.Abort(c, http.StatusRequestEntityTooLarge, "")
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, n)
		c.Next()
	}
}
