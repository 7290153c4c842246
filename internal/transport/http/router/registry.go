package router

import (
	"sort"

	"github.com/gin-gonic/gin"
)

// APIModule 模块可选择实现其中一个或两个接口
type APIModule interface{ MountAPI(*gin.RouterGroup) }
type AdminModule interface{ MountAdmin(*gin.RouterGroup) }

// 可选：实现该接口可控制挂载顺序（数值越小越先挂），默认 100
type prioritizer interface{ Priority() int }

// Registry 模块注册表，在 main 中构造后传给引擎
type Registry struct {
	api   []APIModule
	admin []AdminModule
}

func NewRegistry(mods ...any) *Registry {
	r := &Registry{}
	r.Register(mods...)
	return r
}

// Register 根据类型断言分发到 API/Admin 列表
func (r *Registry) Register(mods ...any) {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.admin = append(r.admin, m)
		}
	}
}

func (r *Registry) MountAPI(api *gin.RouterGroup) {
	mods := append([]APIModule(nil), r.api...)
	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, m := range mods {
		m.MountAPI(api)
	}
}

func (r *Registry) MountAdmin(admin *gin.RouterGroup) {
	mods := append([]AdminModule(nil), r.admin...)
	sort.SliceStable(mods, func(i, j int) bool { return priorityOf(mods[i]) < priorityOf(mods[j]) })
	for _, m := range mods {
		m.MountAdmin(admin)
	}
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
