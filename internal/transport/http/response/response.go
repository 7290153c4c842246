package response

import "github.com/gin-gonic/gin"

// Resp 统一响应信封；HTTP 状态码表达结果类型
type Resp struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

func OK(msg string, data any) Resp {
	return Resp{Success: true, Message: msg, Data: data}
}

// Error 失败响应，data 固定为 null
func Error(status int, msg string) Resp {
	if msg == "" {
		msg = MsgFor(status)
	}
	return Resp{Success: false, Message: msg}
}

func JSON(c *gin.Context, status int, msg string, data any) {
	c.JSON(status, OK(msg, data))
}

func Abort(c *gin.Context, status int, msg string) {
	c.AbortWithStatusJSON(status, Error(status, msg))
}
