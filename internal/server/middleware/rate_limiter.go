package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/mamadbah2/prodtrack/internal/server/respond"
)

const (
	// LoginAttemptsPerMinute is the default login budget per client IP.
	LoginAttemptsPerMinute = 20

	purgeThreshold = 1024
)

type window struct {
	count int
	end   time.Time
}

// RateLimiter is a fixed-window request counter keyed by client IP.
type RateLimiter struct {
	limit   int
	period  time.Duration
	mu      sync.Mutex
	entries map[string]*window
	now     func() time.Time
}

// NewRateLimiter allows limit requests per period and IP.
func NewRateLimiter(limit int, period time.Duration) *RateLimiter {
	return &RateLimiter{
		limit:   limit,
		period:  period,
		entries: make(map[string]*window),
		now:     time.Now,
	}
}

// NewLoginRateLimiter limits login attempts to 20 per minute per IP.
func NewLoginRateLimiter() *RateLimiter {
	return NewRateLimiter(LoginAttemptsPerMinute, time.Minute)
}

// Allow records one request from key and reports whether it is within budget.
func (l *RateLimiter) Allow(key string) (bool, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if len(l.entries) >= purgeThreshold {
		for k, w := range l.entries {
			if now.After(w.end) {
				delete(l.entries, k)
			}
		}
	}

	w, ok := l.entries[key]
	if !ok || now.After(w.end) {
		w = &window{end: now.Add(l.period)}
		l.entries[key] = w
	}
	w.count++
	return w.count <= l.limit, w.end
}

// Handler answers 429 once a client exceeds its budget.
func (l *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, reset := l.Allow(c.ClientIP())
		if !ok {
			c.Header("Retry-After", reset.UTC().Format(http.TimeFormat))
			respond.Abort(c, http.StatusTooManyRequests, "Too many login attempts. Try again in a minute.")
			return
		}
		c.Next()
	}
}
