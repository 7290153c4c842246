package user

import (
	"regexp"
	"strings"
	"unicode"

	"go-gin-gorm-user/internal/domain"
	"go-gin-gorm-user/pkg/validate"
)

// Info 对外输出的用户信息（不含密码哈希，角色转为展示名）
type Info struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Nickname string `json:"nickname"`
	Picture  string `json:"picture"`
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Country  string `json:"country"`
	IsVerify bool   `json:"isVerify"`
	Role     string `json:"role"`
	IsRoot   bool   `json:"isRoot"`
	Enabled  bool   `json:"enabled"`
}

func InfoClean(u *domain.User) Info {
	return Info{
		ID:       u.ID,
		Email:    u.Email,
		Nickname: u.Nickname,
		Picture:  u.Picture,
		Name:     u.Name,
		Surname:  u.Surname,
		Country:  u.Country,
		IsVerify: u.IsVerify,
		Role:     domain.RoleName(u.Role),
		IsRoot:   u.IsRoot,
		Enabled:  u.Enabled,
	}
}

// Nickname 取邮箱 @ 前的部分
func Nickname(email string) string {
	if at := strings.IndexByte(email, '@'); at >= 0 {
		return email[:at]
	}
	return email
}

// ParseUpdate 将更新请求体转换为列名 -> 值：
// 昵称随邮箱重算，角色由展示名转为编码
func ParseUpdate(body map[string]any) map[string]any {
	out := make(map[string]any, len(body)+1)
	for k, v := range body {
		out[k] = v
	}
	if email, ok := body["email"].(string); ok {
		out["nickname"] = Nickname(email)
	}
	if role, ok := body["role"].(string); ok {
		out["role"] = domain.RoleCode(role)
	}
	return out
}

var CreateFields = []validate.Field{
	{Name: "email", Type: validate.String},
	{Name: "password", Type: validate.String},
}

var UpdateFields = []validate.Field{
	{Name: "email", Type: validate.String},
	{Name: "password", Type: validate.String, Optional: true},
	{Name: "picture", Type: validate.String, Optional: true},
	{Name: "name", Type: validate.String, Optional: true},
	{Name: "surname", Type: validate.String, Optional: true},
	{Name: "country", Type: validate.String, Optional: true},
	{Name: "role", Type: validate.String, Optional: true},
	{Name: "enabled", Type: validate.Boolean, Optional: true},
}

// ListFields 管理端分页查询参数
var ListFields = []validate.Field{
	{Name: "page", Type: validate.Int, Default: 1},
	{Name: "limit", Type: validate.Int, Default: 10},
	{Name: "sort", Type: validate.String},
	{Name: "email", Type: validate.String},
	{Name: "role", Type: validate.String},
	{Name: "enabled", Type: validate.String},
}

var EmailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PasswordPattern 至少 8 位且包含一个大写字母
var PasswordPattern = validate.MatchFunc(func(s string) bool {
	if len([]rune(s)) < 8 {
		return false
	}
	for _, r := range s {
		if unicode.IsUpper(r) {
			return true
		}
	}
	return false
})
