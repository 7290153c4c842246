package router

import (
	"github.com/gin-gonic/gin"

	"go-gin-gorm-user/internal/domain"
	mdw "go-gin-gorm-user/internal/transport/http/middleware"
)

// NewAdminEngine 管理端：/admin/v1，要求 Admin 或 SuperAdmin
func NewAdminEngine(d Deps) *gin.Engine {
	r := baseEngine(d)
	admin := r.Group("/admin/v1")
	admin.Use(mdw.AuthJWT(d.JWT, domain.RoleAdmin, domain.RoleSuperAdmin))
	d.Registry.MountAdmin(admin)
	return r
}
