package response

import "net/http"

// 错误响应的默认提示（调用方未给 message 时使用）
var CodeMsgMap = map[int]string{
	http.StatusOK:                    "OK",
	http.StatusCreated:               "Created",
	http.StatusBadRequest:            "Bad Request",
	http.StatusUnauthorized:          "Unauthorized",
	http.StatusForbidden:             "Forbidden",
	http.StatusNotFound:              "Not Found",
	http.StatusRequestEntityTooLarge: "Request body too large",
	http.StatusTooManyRequests:       "Too many requests",
	http.StatusInternalServerError:   "Internal Server Error",
	http.StatusServiceUnavailable:    "Server busy",
	http.StatusGatewayTimeout:        "Timeout",
}

func MsgFor(status int) string {
	if m, ok := CodeMsgMap[status]; ok {
		return m
	}
	return http.StatusText(status)
}
