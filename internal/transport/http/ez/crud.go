package ez

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-user/internal/repo"
	mdw "go-gin-gorm-user/internal/transport/http/middleware"
	resp "go-gin-gorm-user/internal/transport/http/response"
)

// CrudService Crud 需要的服务能力；*service.Service[T, O] 满足该接口
type CrudService[O any] interface {
	GetAll(ctx context.Context) (repo.Result[[]O], error)
	GetByID(ctx context.Context, id string) (repo.Result[O], error)
	Update(ctx context.Context, id string, data map[string]any) (repo.Result[O], error)
	Delete(ctx context.Context, id string) (string, error)
}

type CrudHooks struct {
	// BeforeUpdate 在写库前改写请求体（字段映射等）
	BeforeUpdate func(c *gin.Context, data map[string]any) (map[string]any, error)
}

type CrudConfig[O any] struct {
	Group   *gin.RouterGroup
	Path    string
	Service CrudService[O]
	Hooks   CrudHooks

	AllowList   bool
	AllowGet    bool
	AllowUpdate bool
	AllowDelete bool

	// 路由级中间件：ID 对 get/update/delete 生效，Update 仅对 update 生效
	ID     []gin.HandlerFunc
	Update []gin.HandlerFunc
}

// Crud 注册 list / get / update / delete；创建接口各资源差异大，单独用 Action 注册
func Crud[O any](cfg CrudConfig[O]) {
	if !cfg.AllowList && !cfg.AllowGet && !cfg.AllowUpdate && !cfg.AllowDelete {
		cfg.AllowList, cfg.AllowGet, cfg.AllowUpdate, cfg.AllowDelete = true, true, true, true
	}
	svc := cfg.Service
	item := cfg.Path + "/:id"

	with := func(h gin.HandlerFunc, mws ...[]gin.HandlerFunc) []gin.HandlerFunc {
		var out []gin.HandlerFunc
		for _, m := range mws {
			out = append(out, m...)
		}
		return append(out, h)
	}

	if cfg.AllowList {
		cfg.Group.GET(cfg.Path, func(c *gin.Context) {
			res, err := svc.GetAll(c.Request.Context())
			if err != nil {
				Fail(c, err)
				return
			}
			resp.JSON(c, http.StatusOK, res.Message, res.Results)
		})
	}

	if cfg.AllowGet {
		cfg.Group.GET(item, with(func(c *gin.Context) {
			res, err := svc.GetByID(c.Request.Context(), c.Param("id"))
			if err != nil {
				Fail(c, err)
				return
			}
			resp.JSON(c, http.StatusOK, res.Message, res.Results)
		}, cfg.ID)...)
	}

	if cfg.AllowUpdate {
		cfg.Group.PUT(item, with(func(c *gin.Context) {
			data := mdw.Body(c)
			if data == nil {
				var raw map[string]any
				if err := bind(c, BindJSON, &raw); err != nil {
					Fail(c, err)
					return
				}
				data = raw
			}
			if cfg.Hooks.BeforeUpdate != nil {
				var err error
				if data, err = cfg.Hooks.BeforeUpdate(c, data); err != nil {
					Fail(c, err)
					return
				}
			}
			res, err := svc.Update(c.Request.Context(), c.Param("id"), data)
			if err != nil {
				Fail(c, err)
				return
			}
			resp.JSON(c, http.StatusOK, res.Message, res.Results)
		}, cfg.ID, cfg.Update)...)
	}

	if cfg.AllowDelete {
		cfg.Group.DELETE(item, with(func(c *gin.Context) {
			id := c.Param("id")
			msg, err := svc.Delete(c.Request.Context(), id)
			if err != nil {
				Fail(c, err)
				return
			}
			resp.JSON(c, http.StatusOK, msg, gin.H{"id": id})
		}, cfg.ID)...)
	}
}
