package apperr

import (
	"errors"
	"net/http"
	"strings"

	"gorm.io/gorm"
)

// Error 统一业务错误：Code 直接使用 HTTP 状态码
type Error struct {
	Code int
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Msg
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return http.StatusText(e.Code)
}

func (e *Error) Unwrap() error { return e.Err }

func New(code int, msg string) error { return &Error{Code: code, Msg: msg} }

func BadRequest(msg string) error   { return &Error{Code: http.StatusBadRequest, Msg: msg} }
func Unauthorized(msg string) error { return &Error{Code: http.StatusUnauthorized, Msg: msg} }
func Forbidden(msg string) error    { return &Error{Code: http.StatusForbidden, Msg: msg} }
func NotFound(msg string) error     { return &Error{Code: http.StatusNotFound, Msg: msg} }

// Conflict 唯一性冲突，沿用 400
func Conflict(msg string) error { return &Error{Code: http.StatusBadRequest, Msg: msg} }

// Credentials 凭证错误（密码错误 / 账号被封），沿用 400
func Credentials(msg string) error { return &Error{Code: http.StatusBadRequest, Msg: msg} }

func Internal(msg string, err error) error {
	return &Error{Code: http.StatusInternalServerError, Msg: msg, Err: err}
}

// Status 取出错误对应的 HTTP 状态码，未分类的一律 500
func Status(err error) int {
	if err == nil {
		return http.StatusOK
	}
	var ae *Error
	if errors.As(err, &ae) && ae.Code > 0 {
		return ae.Code
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

// As 取出 *Error；不是则返回 nil
func As(err error) *Error {
	var ae *Error
	if errors.As(err, &ae) {
		return ae
	}
	return nil
}

// IsDupKey 判断唯一键冲突。
// 不只依赖 gorm.ErrDuplicatedKey，部分驱动未开启 TranslateError 时只能看报错文本
func IsDupKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "unique violation")
}
