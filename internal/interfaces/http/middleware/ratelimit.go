package middleware

import (
	"math"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/turtacn/PatentCliff/pkg/errors"
)

// RateLimitConfig configures the per-client token buckets.
type RateLimitConfig struct {
	// RequestsPerSecond is the sustained rate per client; <= 0 disables limiting.
	RequestsPerSecond float64
	Burst             int
	// SkipPaths bypass the limiter.
	SkipPaths []string
	// IdleTTL evicts clients not seen for this long.
	IdleTTL time.Duration
}

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limit    rate.Limit
	burst    int
	idleTTL  time.Duration
	skip     map[string]bool
	now      func() time.Time
}

// NewRateLimiter builds a limiter.  Idle visitors are evicted lazily on
// access so no background goroutine is needed.
func NewRateLimiter(cfg RateLimitConfig) *RateLimiter {
	burst := cfg.Burst
	if burst <= 0 {
		burst = int(math.Max(1, math.Ceil(cfg.RequestsPerSecond)))
	}
	ttl := cfg.IdleTTL
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	skip := make(map[string]bool, len(cfg.SkipPaths))
	for _, p := range cfg.SkipPaths {
		skip[p] = true
	}
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limit:    rate.Limit(cfg.RequestsPerSecond),
		burst:    burst,
		idleTTL:  ttl,
		skip:     skip,
		now:      time.Now,
	}
}

func (rl *RateLimiter) visitor(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for k, v := range rl.visitors {
		if now.Sub(v.lastSeen) > rl.idleTTL {
			delete(rl.visitors, k)
		}
	}
	v, ok := rl.visitors[key]
	if !ok {
		v = &visitor{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.visitors[key] = v
	}
	v.lastSeen = now
	return v.limiter
}

// Visitors returns the number of tracked clients.
func (rl *RateLimiter) Visitors() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.visitors)
}

// Middleware returns the gin handler.  Rejected requests get 429 with
// Retry-After; every limited response carries the X-RateLimit headers.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.limit <= 0 || rl.skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		lim := rl.visitor(c.ClientIP())
		now := rl.now()
		allowed := lim.AllowN(now, 1)
		remaining := int(math.Max(0, math.Floor(lim.TokensAt(now))))

		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.burst))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))

		if !allowed {
			retry := int(math.Ceil(1 / float64(rl.limit)))
			c.Header("Retry-After", strconv.Itoa(retry))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"code":    errors.ErrCodeTooManyRequests,
				"message": "rate limit exceeded, retry later",
			})
			return
		}
		c.Next()
	}
}

//Personal.AI order the ending
