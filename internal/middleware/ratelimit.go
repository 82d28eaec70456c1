package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/guttosm/spimexpulse/internal/domain/dto"
)

// visitor is one client IP with its token bucket.
type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// In-memory limiter store, keyed by client IP.
// NOTE: a multi-instance deployment needs a shared store instead.
var (
	visitors    = make(map[string]*visitor)
	visitorsMu  sync.Mutex
	perMinute   = 60
	burst       = 60
	idleTimeout = 10 * time.Minute
)

func limiterFor(ip string, now time.Time) *rate.Limiter {
	visitorsMu.Lock()
	defer visitorsMu.Unlock()

	// drop idle clients so the map does not grow without bound
	for k, v := range visitors {
		if now.Sub(v.lastSeen) > idleTimeout {
			delete(visitors, k)
		}
	}

	v, ok := visitors[ip]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(perMinute)), burst)}
		visitors[ip] = v
	}
	v.lastSeen = now
	return v.limiter
}

// RateLimiter limits requests per client IP with a token bucket
// (default: 60 requests per minute, bursts of 60).
//
// Response when limit exceeded:
//
//	HTTP/1.1 429 Too Many Requests
//	{"message": "rate limit exceeded", "timestamp": "..."}
func RateLimiter() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiterFor(c.ClientIP(), time.Now()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, dto.NewErrorResponse("rate limit exceeded", nil))
			return
		}
		c.Next()
	}
}
