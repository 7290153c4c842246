package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	mdw "go-gin-gorm-user/internal/transport/http/middleware"
)

type Options struct {
	Mode        string   // gin.ReleaseMode / gin.DebugMode / gin.TestMode
	CORSOrigins []string // 为空时允许所有来源
}

// NewRouter 基础引擎：panic 恢复 + CORS，业务中间件由调用方追加
func NewRouter(l *zap.Logger, opt Options) *gin.Engine {
	if opt.Mode != "" {
		gin.SetMode(opt.Mode)
	}
	r := gin.New()
	r.Use(mdw.Recovery(l))

	cc := cors.DefaultConfig()
	if len(opt.CORSOrigins) == 0 {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = opt.CORSOrigins
	}
	cc.AddAllowHeaders("Authorization", mdw.KeyRequestID)
	cc.AddExposeHeaders(mdw.KeyRequestID)
	r.Use(cors.New(cc))
	return r
}

func BuildServer(addr string, handler http.Handler, rt, wt, it time.Duration) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadTimeout:       rt,
		ReadHeaderTimeout: rt,
		WriteTimeout:      wt,
		IdleTimeout:       it,
		MaxHeaderBytes:    1 << 20,
	}
}

func Addr(host string, port int) string { return fmt.Sprintf("%s:%d", host, port) }
