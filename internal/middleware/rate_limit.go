// internal/middleware/rate_limit.go
package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/depot-app/depot-backend/internal/config"
	"github.com/depot-app/depot-backend/internal/utils"
)

// IPRateLimiter hands out one token bucket per client IP and forgets
// addresses that have been quiet for a while.
type IPRateLimiter struct {
	mu      sync.Mutex
	clients map[string]*client
	limit   rate.Limit
	burst   int
}

type client struct {
	bucket   *rate.Limiter
	lastSeen time.Time
}

func NewIPRateLimiter(limit rate.Limit, burst int) *IPRateLimiter {
	if burst < 1 {
		burst = 1
	}

	l := &IPRateLimiter{
		clients: make(map[string]*client),
		limit:   limit,
		burst:   burst,
	}
	go l.evictIdle()

	return l
}

func (l *IPRateLimiter) evictIdle() {
	for {
		time.Sleep(time.Minute)
		l.mu.Lock()
		for ip, c := range l.clients {
			if time.Since(c.lastSeen) > 3*time.Minute {
				delete(l.clients, ip)
			}
		}
		l.mu.Unlock()
	}
}

func (l *IPRateLimiter) bucketFor(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()

	c, ok := l.clients[ip]
	if !ok {
		c = &client{bucket: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = time.Now()

	return c.bucket
}

func (l *IPRateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.bucketFor(c.ClientIP()).Allow() {
			utils.ErrorResponse(c, http.StatusTooManyRequests, "RATE_LIMITED",
				"Too many requests, slow down", nil)
			c.Abort()
			return
		}
		c.Next()
	}
}

// RateLimiters bundles the three tiers the router applies.
type RateLimiters struct {
	General *IPRateLimiter
	Auth    *IPRateLimiter
	Upload  *IPRateLimiter
}

// NewRateLimiters builds the tiers from configuration. The auth and upload
// tiers refill per minute; their burst equals the per-minute budget so a
// client can spend the whole budget at once but no faster.
func NewRateLimiters(cfg config.RateLimitConfig) *RateLimiters {
	return &RateLimiters{
		General: NewIPRateLimiter(rate.Limit(cfg.GeneralPerSecond), cfg.GeneralBurst),
		Auth:    NewIPRateLimiter(perMinute(cfg.AuthPerMinute), cfg.AuthPerMinute),
		Upload:  NewIPRateLimiter(perMinute(cfg.UploadPerMinute), cfg.UploadPerMinute),
	}
}

func perMinute(n int) rate.Limit {
	if n < 1 {
		n = 1
	}
	return rate.Every(time.Minute / time.Duration(n))
}
