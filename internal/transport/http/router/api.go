package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"go-gin-gorm-user/internal/core/auth"
	"go-gin-gorm-user/internal/core/config"
	"go-gin-gorm-user/internal/core/server"
	mdw "go-gin-gorm-user/internal/transport/http/middleware"
	resp "go-gin-gorm-user/internal/transport/http/response"
)

type Deps struct {
	Logger   *zap.Logger
	JWT      *auth.JWTer
	Registry *Registry
	HTTP     config.HTTP
	Mode     string
	// Ping 健康检查时探测依赖（数据库等），可为空
	Ping func() error
}

// NewAPIEngine 用户端：/api/v1
func NewAPIEngine(d Deps) *gin.Engine {
	r := baseEngine(d)
	api := r.Group("/api/v1")
	d.Registry.MountAPI(api)
	return r
}

func baseEngine(d Deps) *gin.Engine {
	r := server.NewRouter(d.Logger, server.Options{Mode: d.Mode, CORSOrigins: d.HTTP.CORSOrigins})

	chain := []gin.HandlerFunc{mdw.RequestID(), mdw.AccessLog(d.Logger), mdw.Metrics()}
	if d.HTTP.GlobalRPS > 0 {
		chain = append(chain, mdw.RateLimit(rate.Limit(d.HTTP.GlobalRPS), max(1, d.HTTP.GlobalBurst)))
	}
	if d.HTTP.RateLimitRPS > 0 {
		chain = append(chain, mdw.RateLimitPerIP(rate.Limit(d.HTTP.RateLimitRPS), max(1, d.HTTP.RateLimitBurst)))
	}
	chain = append(chain,
		mdw.ConcurrencyLimit(d.HTTP.MaxConcurrent),
		mdw.MaxBodyBytes(d.HTTP.MaxBodyBytes),
		mdw.Timeout(time.Duration(d.HTTP.RequestTimeoutSec)*time.Second),
		mdw.ErrorHandler(d.Logger),
	)
	r.Use(chain...)

	r.GET("/health", func(c *gin.Context) {
		if d.Ping != nil {
			if err := d.Ping(); err != nil {
				resp.Abort(c, http.StatusServiceUnavailable, "Database unavailable")
				return
			}
		}
		resp.JSON(c, http.StatusOK, "OK", gin.H{"status": "up"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	r.NoRoute(func(c *gin.Context) { resp.Abort(c, http.StatusNotFound, "Route not found") })
	return r
}
