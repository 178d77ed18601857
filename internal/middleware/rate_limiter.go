package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/time/rate"
)

const defaultLimiterEntries = 4096

type RateLimiterConfig struct {
	Rate  rate.Limit
	Burst int
	// MaxKeys bounds how many client IPs are tracked at once.
	MaxKeys int
}

// RateLimiter keeps one token bucket per client IP. The least recently seen IPs
// are forgotten once MaxKeys is reached.
type RateLimiter struct {
	config   RateLimiterConfig
	limiters *lru.Cache[string, *rate.Limiter]
}

func NewRateLimiter(config RateLimiterConfig) *RateLimiter {
	if config.MaxKeys <= 0 {
		config.MaxKeys = defaultLimiterEntries
	}
	if config.Burst <= 0 {
		config.Burst = 1
	}
	limiters, _ := lru.New[string, *rate.Limiter](config.MaxKeys)
	return &RateLimiter{config: config, limiters: limiters}
}

func (rl *RateLimiter) limiter(key string) *rate.Limiter {
	if l, ok := rl.limiters.Get(key); ok {
		return l
	}
	l := rate.NewLimiter(rl.config.Rate, rl.config.Burst)
	// a concurrent caller may have won the race; keep theirs
	if prev, ok, _ := rl.limiters.PeekOrAdd(key, l); ok {
		return prev
	}
	return l
}

func (rl *RateLimiter) RateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !rl.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				newErrorResponse(c, http.StatusTooManyRequests, "rate limit exceeded"))
			return
		}
		c.Next()
	}
}
