package bootstrap

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// limiterIdleAfter is how long a client IP can stay quiet before its bucket
// is dropped. Keeps the per-IP map from growing without bound.
const limiterIdleAfter = 3 * time.Minute

type ipLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// evictIdle drops entries not seen since now minus limiterIdleAfter. Caller
// holds the lock.
func evictIdle(limiters map[string]*ipLimiter, now time.Time) {
	for ip, l := range limiters {
		if now.Sub(l.lastSeen) > limiterIdleAfter {
			delete(limiters, ip)
		}
	}
}

// RateLimit returns per-client-IP token-bucket limiting, used on the
// credential endpoints to slow down guessing.
func RateLimit(rps rate.Limit, burst int) gin.HandlerFunc {
	var (
		mu        sync.Mutex
		limiters  = make(map[string]*ipLimiter)
		lastSweep = time.Now()
	)

	return func(c *gin.Context) {
		ip := c.ClientIP()
		now := time.Now()

		mu.Lock()
		if now.Sub(lastSweep) > limiterIdleAfter {
			evictIdle(limiters, now)
			lastSweep = now
		}
		l, ok := limiters[ip]
		if !ok {
			l = &ipLimiter{limiter: rate.NewLimiter(rps, burst)}
			limiters[ip] = l
		}
		l.lastSeen = now
		allowed := l.limiter.Allow()
		mu.Unlock()

		if !allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"message": "Too many requests"})
			return
		}
		c.Next()
	}
}
