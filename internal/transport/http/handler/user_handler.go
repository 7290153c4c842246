package handler

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/internal/core/auth"
	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/internal/feature/user"
	"go-gin-gorm-user/internal/repo"
	"go-gin-gorm-user/internal/service"
	"go-gin-gorm-user/internal/transport/http/ez"
	mdw "go-gin-gorm-user/internal/transport/http/middleware"
	"go-gin-gorm-user/pkg/validate"
)

const (
	emailMsg    = "Enter a valid email"
	passwordMsg = "Password must be at least 8 characters long and contain an uppercase letter"
)

// 管理端列表允许排序的列
var sortable = map[string]bool{
	"email": true, "nickname": true, "name": true, "surname": true, "country": true,
	"role": true, "enabled": true, "created_at": true, "updated_at": true,
}

// UserHandler 用户模块：/api/v1/user 与 /admin/v1/users
type UserHandler struct {
	svc         *service.UserService
	jwt         *auth.JWTer
	maxPageSize int
}

func NewUserHandler(svc *service.UserService, jwt *auth.JWTer, maxPageSize int) *UserHandler {
	return &UserHandler{svc: svc, jwt: jwt, maxPageSize: maxPageSize}
}

func (h *UserHandler) Priority() int { return 10 }

func (h *UserHandler) MountAPI(api *gin.RouterGroup) {
	g := api.Group("/user")
	credentials := []gin.HandlerFunc{
		mdw.ValidateFields(user.CreateFields),
		mdw.ValidateRegex("email", user.EmailPattern, emailMsg),
		mdw.ValidateRegex("password", user.PasswordPattern, passwordMsg),
	}

	ez.RegisterAction(ez.New(g), ez.Action[service.LoginInput, service.LoginResult]{
		Method:      http.MethodPost,
		Path:        "/login",
		Binder:      ez.BindBody,
		Middlewares: credentials,
		Handler: func(c *gin.Context, in *service.LoginInput) (string, service.LoginResult, error) {
			res, err := h.svc.Login(c.Request.Context(), *in)
			return res.Message, res.Results, err
		},
	})

	authed := g.Group("", mdw.AuthJWT(h.jwt))

	ez.RegisterAction(ez.New(authed), ez.Action[service.CreateUserInput, user.Info]{
		Method:      http.MethodPost,
		Path:        "/create",
		Binder:      ez.BindBody,
		Status:      http.StatusCreated,
		Middlewares: credentials,
		Handler: func(c *gin.Context, in *service.CreateUserInput) (string, user.Info, error) {
			res, err := h.svc.Create(c.Request.Context(), service.CreateUserInput{Email: in.Email, Password: in.Password})
			return res.Message, res.Results, err
		},
	})

	ez.Crud[user.Info](ez.CrudConfig[user.Info]{
		Group:   authed,
		Path:    "",
		Service: h.svc,
		ID:      []gin.HandlerFunc{mdw.UUIDParam("id")},
		Update: []gin.HandlerFunc{
			mdw.ValidateFields(user.UpdateFields),
			mdw.ValidateRegex("email", user.EmailPattern, emailMsg),
		},
		Hooks: ez.CrudHooks{BeforeUpdate: beforeUpdate},
	})
}

func beforeUpdate(c *gin.Context, data map[string]any) (map[string]any, error) {
	// 角色和启用状态只允许管理员修改
	if !isAdmin(mdw.Claims(c)) {
		delete(data, "role")
		delete(data, "enabled")
	}
	if pw, ok := data["password"].(string); ok && pw != "" {
		if err := validate.Pattern(data, user.PasswordPattern, "password", passwordMsg); err != nil {
			return nil, apperr.BadRequest(err.Error())
		}
	}
	return user.ParseUpdate(data), nil
}

func isAdmin(cl *auth.Claims) bool {
	return cl != nil && (cl.Role == domain.RoleAdmin || cl.Role == domain.RoleSuperAdmin)
}

type listPage struct {
	Results []user.Info   `json:"results"`
	Info    repo.PageInfo `json:"info"`
}

func (h *UserHandler) MountAdmin(admin *gin.RouterGroup) {
	e := ez.New(admin)

	ez.RegisterAction(e, ez.Action[struct{}, listPage]{
		Method:      http.MethodGet,
		Path:        "/users",
		Binder:      ez.BindNone,
		Middlewares: []gin.HandlerFunc{mdw.ValidateQuery(user.ListFields)},
		Handler: func(c *gin.Context, _ *struct{}) (string, listPage, error) {
			q, err := h.listQuery(mdw.Query(c))
			if err != nil {
				return "", listPage{}, err
			}
			page, err := h.svc.FindWithPagination(c.Request.Context(), q)
			if err != nil {
				return "", listPage{}, err
			}
			return page.Message, listPage{Results: page.Results, Info: page.Info}, nil
		},
	})

	for path, enabled := range map[string]bool{"/users/:id/ban": false, "/users/:id/unban": true} {
		enabled := enabled
		ez.RegisterAction(e, ez.Action[struct{}, user.Info]{
			Method:      http.MethodPost,
			Path:        path,
			Binder:      ez.BindNone,
			Middlewares: []gin.HandlerFunc{mdw.UUIDParam("id")},
			Handler: func(c *gin.Context, _ *struct{}) (string, user.Info, error) {
				return h.setEnabled(c, c.Param("id"), enabled)
			},
		})
	}
}

func (h *UserHandler) setEnabled(c *gin.Context, id string, enabled bool) (string, user.Info, error) {
	res, err := h.svc.SetEnabled(c.Request.Context(), id, enabled)
	if err != nil {
		return "", user.Info{}, err
	}
	msg := "User banned successfully"
	if enabled {
		msg = "User unbanned successfully"
	}
	return msg, res.Results, nil
}

// listQuery 把校验后的 query 转成分页查询
func (h *UserHandler) listQuery(in map[string]any) (repo.Query, error) {
	q := repo.Query{Filters: map[string]any{}}
	q.Page, _ = in["page"].(int)
	q.Limit, _ = in["limit"].(int)
	if h.maxPageSize > 0 && q.Limit > h.maxPageSize {
		q.Limit = h.maxPageSize
	}

	sort, err := parseSort(asString(in["sort"]))
	if err != nil {
		return repo.Query{}, err
	}
	q.Sort = sort

	if email := strings.TrimSpace(asString(in["email"])); email != "" {
		q.Filters["email"] = email
	}
	if role := strings.TrimSpace(asString(in["role"])); role != "" {
		code, err := parseRole(role)
		if err != nil {
			return repo.Query{}, err
		}
		q.Filters["role"] = code
	}
	if en := strings.TrimSpace(asString(in["enabled"])); en != "" {
		b, err := strconv.ParseBool(en)
		if err != nil {
			return repo.Query{}, apperr.BadRequest("Invalid boolean value")
		}
		q.Filters["enabled"] = b
	}
	return q, nil
}

// parseSort 格式 "email:desc,created_at:asc"
func parseSort(s string) ([]repo.SortField, error) {
	if strings.TrimSpace(s) == "" {
		return nil, nil
	}
	var out []repo.SortField
	for _, part := range strings.Split(s, ",") {
		field, dir, _ := strings.Cut(strings.TrimSpace(part), ":")
		field = strings.TrimSpace(field)
		if !sortable[field] {
			return nil, apperr.BadRequest("Invalid sort field " + field)
		}
		sf := repo.SortField{Field: field}
		switch strings.ToLower(strings.TrimSpace(dir)) {
		case "", "asc":
		case "desc":
			sf.Desc = true
		default:
			return nil, apperr.BadRequest("Invalid sort direction " + dir)
		}
		out = append(out, sf)
	}
	return out, nil
}

func parseRole(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	if code, ok := domain.LookupRole(s); ok {
		return code, nil
	}
	return 0, apperr.BadRequest("Invalid role " + s)
}

func asString(v any) string {
	s, _ := v.(string)
	return s
}
