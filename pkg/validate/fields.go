// Package validate 对 JSON body / query 做字段白名单与类型校验，不依赖 HTTP 框架。
package validate

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

type FieldType string

const (
	Boolean FieldType = "boolean"
	Int     FieldType = "int"
	Float   FieldType = "float"
	String  FieldType = "string"
	Array   FieldType = "array"
)

// Field 字段描述。Optional 的字段缺失时不报错；Default 仅在 Query 中使用
type Field struct {
	Name     string
	Type     FieldType
	Optional bool
	Default  any
}

var ErrEmptyBody = errors.New("Invalid parameters")

// Fields 校验 body：必填字段存在、类型可转换，并剔除白名单外的字段。
// 返回新的 map，不修改入参。
func Fields(body map[string]any, fields []Field) (map[string]any, error) {
	if len(body) == 0 {
		return nil, ErrEmptyBody
	}
	var missing []string
	for _, f := range fields {
		if _, ok := body[f.Name]; !ok && !f.Optional {
			missing = append(missing, f.Name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("Missing parameters: %s", strings.Join(missing, ", "))
	}

	out := make(map[string]any, len(fields))
	for _, f := range fields {
		v, ok := body[f.Name]
		if !ok {
			continue
		}
		cv, err := Value(v, f.Type, f.Name)
		if err != nil {
			return nil, err
		}
		out[f.Name] = cv
	}
	return out, nil
}

// Query 校验 query 参数；缺失时取 Default，没有 Default 时取类型零值
func Query(get func(string) (string, bool), fields []Field) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for _, f := range fields {
		raw, ok := get(f.Name)
		if !ok || raw == "" {
			if f.Default != nil {
				out[f.Name] = f.Default
			} else {
				out[f.Name] = DefaultValue(f.Type)
			}
			continue
		}
		v, err := Value(raw, f.Type, f.Name)
		if err != nil {
			return nil, err
		}
		out[f.Name] = v
	}
	return out, nil
}

func DefaultValue(t FieldType) any {
	switch t {
	case Boolean:
		return false
	case Int:
		return 1
	case Float:
		return 1.0
	case String:
		return ""
	default:
		return nil
	}
}

// Value 将单个值转换为目标类型
func Value(v any, t FieldType, name string) (any, error) {
	switch t {
	case Boolean:
		return toBool(v)
	case Int:
		return toInt(v)
	case Float:
		return toFloat(v)
	case Array:
		if arr, ok := v.([]any); ok {
			return arr, nil
		}
		return nil, fmt.Errorf("Invalid array value for field %s", name)
	default:
		s, ok := v.(string)
		if !ok {
			return nil, fmt.Errorf("Invalid string value for field %s", name)
		}
		return s, nil
	}
}

func toBool(v any) (bool, error) {
	switch b := v.(type) {
	case bool:
		return b, nil
	case string:
		switch b {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	}
	return false, errors.New("Invalid boolean value")
}

func toInt(v any) (int, error) {
	var f float64
	switch n := v.(type) {
	case int:
		return n, nil
	case float64:
		f = n
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, errors.New("Invalid integer value")
		}
		f = p
	default:
		return 0, errors.New("Invalid integer value")
	}
	// float64(math.MaxInt) 会进位到 2^63，所以上界用 >=
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) || f >= math.MaxInt || f < math.MinInt {
		return 0, errors.New("Invalid integer value")
	}
	return int(f), nil
}

func toFloat(v any) (float64, error) {
	switch n := v.(type) {
	case float64:
		return n, nil
	case int:
		return float64(n), nil
	case string:
		p, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err == nil && !math.IsNaN(p) {
			return p, nil
		}
	}
	return 0, errors.New("Invalid float value")
}

// Matcher 兼容 *regexp.Regexp 与自定义规则（RE2 不支持前瞻）
type Matcher interface {
	MatchString(string) bool
}

type MatchFunc func(string) bool

func (f MatchFunc) MatchString(s string) bool { return f(s) }

var _ Matcher = (*regexp.Regexp)(nil)

// Pattern 校验单个字符串字段；message 会追加到默认提示之后
func Pattern(body map[string]any, m Matcher, name, message string) error {
	if m == nil || strings.TrimSpace(name) == "" {
		return errors.New("Missing parameters in function!")
	}
	s, ok := body[name].(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fmt.Errorf("Missing %s", name)
	}
	if !m.MatchString(s) {
		if message != "" {
			return fmt.Errorf("Invalid %s format! %s", name, message)
		}
		return fmt.Errorf("Invalid %s format!", name)
	}
	return nil
}
