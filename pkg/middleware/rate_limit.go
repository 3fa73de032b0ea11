package middleware

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/jobbridge/jobbridge/backend/bot-services/pkg/metrics"
)

// per-key limiter store (simple in-memory token-bucket)
var limiterStore sync.Map // map[string]*rate.Limiter

// getLimiter returns (and lazily creates) a token-bucket limiter for the given key
func getLimiter(key string, rps float64, burst int) *rate.Limiter {
	v, ok := limiterStore.Load(key)
	if ok {
		return v.(*rate.Limiter)
	}
	lim := rate.NewLimiter(rate.Limit(rps), burst)
	limiterStore.Store(key, lim)
	return lim
}

// RateLimitMiddleware enforces a token-bucket per-key limit on webhook and
// admin traffic. Keying: an authenticated admin request is limited by its
// `sub` claim, everything else (Meta's webhook delivery included) by client
// IP. rps = allowed events per second, burst = maximum tokens in bucket.
func RateLimitMiddleware(rps float64, burst int) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := limiterKey(c, "")

		lim := getLimiter(key, rps, burst)
		if !lim.Allow() {
			c.Header("Retry-After", "1")
			metrics.RateLimitRejected.WithLabelValues("memory").Inc()
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			return
		}
		metrics.RateLimitAllowed.WithLabelValues("memory").Inc()
		c.Next()
	}
}

// limiterKey picks the per-client key: authenticated subject when present,
// client IP otherwise.
func limiterKey(c *gin.Context, prefix string) string {
	if v, ok := c.Get("claims"); ok {
		if cm, ok2 := v.(map[string]interface{}); ok2 {
			if sub, ok3 := cm["sub"].(string); ok3 && sub != "" {
				return prefix + "sub:" + sub
			}
		}
	}
	ip := c.ClientIP()
	if ip == "" {
		ip = "unknown"
	}
	return prefix + "ip:" + ip
}
