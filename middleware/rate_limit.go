package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/cppla/nailgrow/utils"
)

const limiterIdle = 5 * time.Minute

type limiterEntry struct {
	limiter *rate.Limiter
	expires time.Time
}

// RateLimiter hands out one token bucket per client. Authenticated requests
// are keyed by device, anonymous ones by IP.
type RateLimiter struct {
	limit rate.Limit
	burst int

	mu      sync.Mutex
	entries map[string]*limiterEntry
	now     func() time.Time
}

// NewRateLimiter allows perMinute requests per client with a burst of half
// that.
func NewRateLimiter(perMinute int) *RateLimiter {
	return NewRateLimiterWithBurst(perMinute, perMinute/2)
}

// NewRateLimiterWithBurst allows perMinute requests per client, at most burst
// of them back to back.
func NewRateLimiterWithBurst(perMinute, burst int) *RateLimiter {
	perMinute = max(perMinute, 1)
	return &RateLimiter{
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   max(burst, 1),
		entries: map[string]*limiterEntry{},
		now:     time.Now,
	}
}

// Middleware rejects requests over the limit with 429.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if !l.allow(clientKey(ctx)) {
			utils.Error(ctx, http.StatusTooManyRequests, 42901, "rate limit exceeded")
			ctx.Abort()
			return
		}
		ctx.Next()
	}
}

func (l *RateLimiter) allow(key string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	for k, e := range l.entries {
		if now.After(e.expires) {
			delete(l.entries, k)
		}
	}
	e, ok := l.entries[key]
	if !ok {
		e = &limiterEntry{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.entries[key] = e
	}
	e.expires = now.Add(limiterIdle)
	return e.limiter.AllowN(now, 1)
}

func clientKey(ctx *gin.Context) string {
	if device := ctx.GetString(ContextDeviceKey); device != "" {
		return "device:" + device
	}
	return "ip:" + ctx.ClientIP()
}
