package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	resp "go-gin-gorm-user/internal/transport/http/response"
)

// RateLimit 全局令牌桶限速
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	lim := rate.NewLimiter(rps, burst)
	return func(c *gin.Context) {
		if lim.Allow() {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "")
	}
}

type ipBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

// RateLimitPerIP 每 IP 限速；超过 idle 未访问的桶会被清理
func RateLimitPerIP(rps rate.Limit, burst int) gin.HandlerFunc {
	const idle = 10 * time.Minute
	var (
		mu      sync.Mutex
		buckets = make(map[string]*ipBucket)
		lastGC  = time.Now()
	)
	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		b, ok := buckets[ip]
		if !ok {
			b = &ipBucket{lim: rate.NewLimiter(rps, burst)}
			buckets[ip] = b
		}
		b.seen = now
		if now.Sub(lastGC) > idle {
			for k, v := range buckets {
				if now.Sub(v.seen) > idle {
					delete(buckets, k)
				}
			}
			lastGC = now
		}
		allowed := b.lim.Allow()
		mu.Unlock()

		if allowed {
			c.Next()
			return
		}
		resp.Abort(c, http.StatusTooManyRequests, "")
	}
}
