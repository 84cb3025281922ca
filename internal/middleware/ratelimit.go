package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// PlayerIDKey is where the auth middleware stores the caller's player id.
const PlayerIDKey = "player_id"

type RateLimiterConfig struct {
	RequestsPerSecond float64
	BurstSize         int
	CleanupInterval   time.Duration
}

var DefaultRateLimiterConfig = RateLimiterConfig{
	RequestsPerSecond: 10.0,
	BurstSize:         20,
	CleanupInterval:   5 * time.Minute,
}

// ActionRateLimiterConfig is tighter: one betting decision every 200ms sustained.
var ActionRateLimiterConfig = RateLimiterConfig{
	RequestsPerSecond: 5.0,
	BurstSize:         10,
	CleanupInterval:   5 * time.Minute,
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client key.
type RateLimiter struct {
	limiters    map[string]*clientLimiter
	mu          sync.Mutex
	config      RateLimiterConfig
	log         *zap.Logger
	stopCleanup chan struct{}
	stopOnce    sync.Once
}

func NewRateLimiter(config RateLimiterConfig, log *zap.Logger) *RateLimiter {
	if log == nil {
		log = zap.NewNop()
	}
	if config.CleanupInterval <= 0 {
		config.CleanupInterval = DefaultRateLimiterConfig.CleanupInterval
	}
	rl := &RateLimiter{
		limiters:    make(map[string]*clientLimiter),
		config:      config,
		log:         log,
		stopCleanup: make(chan struct{}),
	}
	go rl.cleanupLoop()
	return rl
}

func (rl *RateLimiter) Allow(clientID string) bool {
	return rl.AllowN(clientID, 1)
}

func (rl *RateLimiter) AllowN(clientID string, n int) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cl, ok := rl.limiters[clientID]
	if !ok {
		cl = &clientLimiter{
			limiter: rate.NewLimiter(rate.Limit(rl.config.RequestsPerSecond), rl.config.BurstSize),
		}
		rl.limiters[clientID] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, n)
}

func (rl *RateLimiter) LimiterCount() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.limiters)
}

func (rl *RateLimiter) cleanupLoop() {
	ticker := time.NewTicker(rl.config.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanup()
		case <-rl.stopCleanup:
			return
		}
	}
}

func (rl *RateLimiter) cleanup() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-rl.config.CleanupInterval)
	removed := 0
	for id, cl := range rl.limiters {
		if cl.lastSeen.Before(cutoff) {
			delete(rl.limiters, id)
			removed++
		}
	}
	if removed > 0 {
		rl.log.Debug("cleaned up inactive rate limiters", zap.Int("removed", removed))
	}
}

func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stopCleanup) })
}

// Gin limits by authenticated player id, falling back to the client IP.
func (rl *RateLimiter) Gin() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString(PlayerIDKey)
		if key == "" {
			key = c.ClientIP()
		}
		if !rl.Allow(key) {
			rl.log.Info("rate limit exceeded", zap.String("client", key), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded, please slow down"})
			return
		}
		c.Next()
	}
}
