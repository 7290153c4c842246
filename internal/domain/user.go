package domain

import "strings"

// 角色编码
const (
	RoleUser       = 1
	RoleModerator  = 2
	RoleAdmin      = 3
	RoleSuperAdmin = 9
)

var roleNames = map[int]string{
	RoleUser:       "User",
	RoleModerator:  "Moderator",
	RoleAdmin:      "Admin",
	RoleSuperAdmin: "SuperAdmin",
}

// 写入方向只认这三个；SuperAdmin 只能由种子账号持有
var roleCodes = map[string]int{
	"User":      RoleUser,
	"Moderator": RoleModerator,
	"Admin":     RoleAdmin,
}

// RoleName 编码 -> 展示名，未知编码按 User 处理
func RoleName(code int) string {
	if n, ok := roleNames[code]; ok {
		return n
	}
	return roleNames[RoleUser]
}

// RoleCode 展示名 -> 编码，未知名称（包括 "SuperAdmin"）按 1 处理
func RoleCode(name string) int {
	if c, ok := roleCodes[name]; ok {
		return c
	}
	return RoleUser
}

type User struct {
	Record
	Email    string `gorm:"uniqueIndex;size:100;not null" json:"email"`
	Password string `gorm:"size:100;not null" json:"-"`
	Nickname string `gorm:"size:100;not null" json:"nickname"`
	Picture  string `gorm:"size:255;not null" json:"picture"`
	Name     string `gorm:"size:100" json:"name"`
	Surname  string `gorm:"size:100" json:"surname"`
	Country  string `gorm:"size:100" json:"country"`
	IsVerify bool   `gorm:"not null;default:false" json:"isVerify"`
	Role     int    `gorm:"not null;default:1" json:"role"`
	IsRoot   bool   `gorm:"not null;default:false" json:"isRoot"`
}

func (User) TableName() string { return "users" }

// LookupRole 展示名 -> 编码，包含 SuperAdmin；仅用于查询过滤
func LookupRole(name string) (int, bool) {
	for code, n := range roleNames {
		if strings.EqualFold(n, name) {
			return code, true
		}
	}
	return 0, false
}
