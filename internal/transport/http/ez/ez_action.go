package ez

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"go-gin-gorm-user/internal/core/apperr"
	mdw "go-gin-gorm-user/internal/transport/http/middleware"
	resp "go-gin-gorm-user/internal/transport/http/response"
)

type EZ struct{ g *gin.RouterGroup }

func New(g *gin.RouterGroup) EZ { return EZ{g: g} }

// Binder 入参来源
type Binder string

const (
	BindJSON  Binder = "json"  // 直接绑定 JSON 请求体
	BindBody  Binder = "body"  // 使用 ValidateFields 校验后的请求体
	BindQuery Binder = "query" // URL ?a=b
	BindNone  Binder = "none"  // 不绑定，自己从 c.Param 取
)

// Action 一行注册一个非 CRUD 接口：I 入参，O 出参
type Action[I any, O any] struct {
	Method      string
	Path        string
	Binder      Binder
	Status      int // 成功时的状态码，默认 200
	Middlewares []gin.HandlerFunc
	Handler     func(c *gin.Context, in *I) (string, O, error)
}

func RegisterAction[I any, O any](e EZ, a Action[I, O]) {
	h := func(c *gin.Context) {
		var in I
		if err := bind(c, a.Binder, &in); err != nil {
			Fail(c, err)
			return
		}
		msg, out, err := a.Handler(c, &in)
		if err != nil {
			Fail(c, err)
			return
		}
		status := a.Status
		if status == 0 {
			status = http.StatusOK
		}
		resp.JSON(c, status, msg, out)
	}

	handlers := append(append([]gin.HandlerFunc{}, a.Middlewares...), h)
	e.g.Handle(strings.ToUpper(defaultMethod(a.Method)), a.Path, handlers...)
}

// Fail 交给 ErrorHandler 统一渲染
func Fail(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

func defaultMethod(m string) string {
	if m == "" {
		return http.MethodPost
	}
	return m
}

func bind(c *gin.Context, b Binder, out any) error {
	switch b {
	case BindJSON:
		if err := c.ShouldBindBodyWith(out, binding.JSON); err != nil {
			return bindError(err)
		}
	case BindQuery:
		if err := c.ShouldBindQuery(out); err != nil {
			return bindError(err)
		}
	case BindBody:
		body := mdw.Body(c)
		if body == nil {
			return apperr.BadRequest("Invalid parameters")
		}
		if m, ok := out.(*map[string]any); ok {
			*m = body
			return nil
		}
		// 校验后的字段已完成类型转换，回填到结构体
		raw, err := json.Marshal(body)
		if err != nil {
			return apperr.Internal("", err)
		}
		if err := json.Unmarshal(raw, out); err != nil {
			return apperr.BadRequest("Invalid parameters")
		}
	}
	return nil
}

func bindError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		return err
	}
	return apperr.BadRequest(err.Error())
}
