// Package middleware holds the gin middleware for the HTTP control
// surface. Browser automation has its own per-target throttle; this rate
// limiter only protects the API itself.
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
)

// RateLimiter applies a fixed-window request limit per client IP.
type RateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientWindow
	limit   int
	window  time.Duration
}

type clientWindow struct {
	windowStart time.Time
	count       int
}

// NewRateLimiter builds a limiter allowing limit requests per window per
// client and starts its background cleanup.
func NewRateLimiter(limit int, window time.Duration) *RateLimiter {
	rl := &RateLimiter{
		clients: make(map[string]*clientWindow),
		limit:   limit,
		window:  window,
	}
	go rl.evictStale()
	return rl
}

// Limit is the gin middleware enforcing the limit.
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ip := c.ClientIP()

		rl.mu.Lock()
		cw, ok := rl.clients[ip]
		if !ok || time.Since(cw.windowStart) > rl.window {
			rl.clients[ip] = &clientWindow{windowStart: time.Now(), count: 1}
			rl.mu.Unlock()
			c.Next()
			return
		}

		if cw.count >= rl.limit {
			rl.mu.Unlock()
			c.JSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded. Please try again later.",
				"retry_after": rl.window.Seconds(),
			})
			c.Abort()
			return
		}

		cw.count++
		rl.mu.Unlock()
		c.Next()
	}
}

func (rl *RateLimiter) evictStale() {
	ticker := time.NewTicker(time.Minute)
	for range ticker.C {
		rl.mu.Lock()
		for ip, cw := range rl.clients {
			if time.Since(cw.windowStart) > rl.window*2 {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}
