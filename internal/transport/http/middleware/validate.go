package middleware

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"

	"go-gin-gorm-user/internal/core/apperr"
	"go-gin-gorm-user/pkg/validate"
)

const (
	KeyBody  = "body"
	KeyQuery = "query"
)

// Body 取出经 ValidateFields 校验后的请求体
func Body(c *gin.Context) map[string]any {
	if v, ok := c.Get(KeyBody); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// Query 取出经 ValidateQuery 校验后的查询参数
func Query(c *gin.Context) map[string]any {
	if v, ok := c.Get(KeyQuery); ok {
		if m, ok := v.(map[string]any); ok {
			return m
		}
	}
	return nil
}

// rawBody 解析 JSON 请求体；请求体会被缓存，后续绑定可以重复读取
func rawBody(c *gin.Context) (map[string]any, error) {
	var m map[string]any
	if err := c.ShouldBindBodyWith(&m, binding.JSON); err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.Is(err, io.EOF):
			return map[string]any{}, nil
		case errors.As(err, &tooLarge):
			return nil, err
		}
		return nil, apperr.BadRequest("Invalid JSON body")
	}
	return m, nil
}

// ValidateFields 校验必填字段与类型，并剔除白名单以外的字段
func ValidateFields(fields []validate.Field) gin.HandlerFunc {
	return func(c *gin.Context) {
		body, err := rawBody(c)
		if err != nil {
			fail(c, err)
			return
		}
		out, err := validate.Fields(body, fields)
		if err != nil {
			fail(c, apperr.BadRequest(err.Error()))
			return
		}
		c.Set(KeyBody, out)
		c.Next()
	}
}

// ValidateRegex 校验单个字符串字段的格式，message 会附加在默认提示后
func ValidateRegex(name string, m validate.Matcher, message string) gin.HandlerFunc {
	return func(c *gin.Context) {
		body := Body(c)
		if body == nil {
			raw, err := rawBody(c)
			if err != nil {
				fail(c, err)
				return
			}
			body = raw
		}
		if err := validate.Pattern(body, m, name, message); err != nil {
			fail(c, apperr.BadRequest(err.Error()))
			return
		}
		c.Next()
	}
}

// ValidateQuery 校验并转换查询参数，缺省值按字段定义补齐
func ValidateQuery(fields []validate.Field) gin.HandlerFunc {
	return func(c *gin.Context) {
		out, err := validate.Query(c.GetQuery, fields)
		if err != nil {
			fail(c, apperr.BadRequest(err.Error()))
			return
		}
		c.Set(KeyQuery, out)
		c.Next()
	}
}
