package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/pkg/utils"
)

// UUIDParam 路径参数必须是 UUID
func UUIDParam(name string) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.Param(name))
		if id == "" {
			fail(c, apperr.BadRequest("Missing "+name))
			return
		}
		if !utils.IsUUID(id) {
			fail(c, apperr.BadRequest("Invalid "+name))
			return
		}
		c.Next()
	}
}
