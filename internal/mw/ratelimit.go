package mw

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// clientLimiters hands out one token bucket per client IP. The map grows
// with the number of distinct clients; dashboards and push subscribers for a
// single fleet are a small population, so no eviction is needed.
type clientLimiters struct {
	mu      sync.Mutex
	clients map[string]*rate.Limiter
	r       rate.Limit
	burst   int
}

func newClientLimiters(r rate.Limit, burst int) *clientLimiters {
	return &clientLimiters{
		clients: make(map[string]*rate.Limiter),
		r:       r,
		burst:   burst,
	}
}

func (l *clientLimiters) limiter(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	lim, ok := l.clients[ip]
	if !ok {
		lim = rate.NewLimiter(l.r, l.burst)
		l.clients[ip] = lim
	}
	return lim
}

// RateLimiter is a middleware for per-IP rate limiting.
func RateLimiter(r rate.Limit, burst int) gin.HandlerFunc {
	limiters := newClientLimiters(r, burst)
	return func(c *gin.Context) {
		if !limiters.limiter(c.ClientIP()).Allow() {
			c.AbortWithStatus(http.StatusTooManyRequests)
			return
		}
		c.Next()
	}
}
