package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/readzone/readzone-server/pkg/errors"
	"github.com/readzone/readzone-server/pkg/response"
)

type rateCounter struct {
	count     int
	windowEnd time.Time
}

// rateLimiter counts requests per key within a fixed window. Expired
// counters are pruned inline while serving requests, at most once per
// window, so the limiter needs no background goroutine and nothing to stop.
type rateLimiter struct {
	mu        sync.Mutex
	max       int
	window    time.Duration
	data      map[string]*rateCounter
	nextSweep time.Time
	now       func() time.Time
}

func newRateLimiter(max int, window time.Duration) *rateLimiter {
	return &rateLimiter{
		max:    max,
		window: window,
		data:   make(map[string]*rateCounter),
		now:    time.Now,
	}
}

// take records one request for key and reports whether it is within the
// limit, along with the remaining allowance and time until the window resets.
func (l *rateLimiter) take(key string) (allowed bool, remaining int, resetIn time.Duration) {
	now := l.now()

	l.mu.Lock()
	defer l.mu.Unlock()

	if now.After(l.nextSweep) {
		for k, v := range l.data {
			if now.After(v.windowEnd) {
				delete(l.data, k)
			}
		}
		l.nextSweep = now.Add(l.window)
	}

	ct, ok := l.data[key]
	if !ok || now.After(ct.windowEnd) {
		ct = &rateCounter{windowEnd: now.Add(l.window)}
		l.data[key] = ct
	}
	ct.count++

	remaining = l.max - ct.count
	if remaining < 0 {
		remaining = 0
	}
	return ct.count <= l.max, remaining, ct.windowEnd.Sub(now)
}

func (l *rateLimiter) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.data)
}

// RateLimit limits requests per (clientIP, path) within a fixed window.
// This is an in-memory limiter suitable for single-instance deployments and tests.
func RateLimit(maxRequests int, window time.Duration) gin.HandlerFunc {
	if maxRequests <= 0 || window <= 0 {
		return func(c *gin.Context) { c.Next() }
	}

	limiter := newRateLimiter(maxRequests, window)

	return func(c *gin.Context) {
		key := c.ClientIP() + "|" + c.FullPath()
		allowed, remaining, resetIn := limiter.take(key)

		c.Header("X-RateLimit-Limit", strconv.Itoa(maxRequests))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(remaining))
		c.Header("X-RateLimit-Reset", strconv.Itoa(int(resetIn.Seconds())))

		if !allowed {
			response.Error(c, errors.ErrRateLimit)
			c.Abort()
			return
		}

		c.Next()
	}
}
