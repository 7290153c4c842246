package middleware

import (
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-user/internal/core/auth"
	resp "go-gin-gorm-user/internal/transport/http/response"
)

const (
	KeyClaims = "claims"
	KeyUserID = "userId"
	KeyRole   = "role"
)

// AuthJWT 校验 Bearer token；roles 非空时要求角色在其中
func AuthJWT(j *auth.JWTer, roles ...int) gin.HandlerFunc {
	return func(c *gin.Context) {
		ah := c.GetHeader("Authorization")
		if !strings.HasPrefix(ah, "Bearer ") {
			resp.Abort(c, http.StatusUnauthorized, "Missing token")
			return
		}
		claims, err := j.Parse(strings.TrimSpace(strings.TrimPrefix(ah, "Bearer ")))
		if err != nil {
			resp.Abort(c, http.StatusUnauthorized, "Invalid token")
			return
		}
		if len(roles) > 0 && !slices.Contains(roles, claims.Role) {
			resp.Abort(c, http.StatusForbidden, "Forbidden")
			return
		}
		c.Set(KeyClaims, claims)
		c.Set(KeyUserID, claims.ID)
		c.Set(KeyRole, claims.Role)
		c.Next()
	}
}

func Claims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(KeyClaims); ok {
		if cl, ok := v.(*auth.Claims); ok {
			return cl
		}
	}
	return nil
}
