package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitConfig defines configuration for rate limiting
type RateLimitConfig struct {
	// Window is the time window for rate limiting
	Window time.Duration
	// Limit is the maximum number of requests allowed in the window
	Limit int
	// Key prefix for Redis keys
	KeyPrefix string
}

// Decision is the outcome of one rate limit check
type Decision struct {
	Allowed   bool
	Remaining int
	Reset     time.Time
}

// Limiter decides whether the caller identified by key may proceed
type Limiter interface {
	Allow(ctx context.Context, key string) (Decision, error)
	Config() RateLimitConfig
}

// RateLimiter is a fixed-window limiter backed by Redis
type RateLimiter struct {
	redis  *redis.Client
	config RateLimitConfig
}

// NewRateLimiter creates a new rate limiter instance
func NewRateLimiter(redisClient *redis.Client, config RateLimitConfig) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		config: config,
	}
}

// Config returns the limiter's window settings
func (rl *RateLimiter) Config() RateLimitConfig { return rl.config }

// Allow counts a request against the current window
func (rl *RateLimiter) Allow(ctx context.Context, key string) (Decision, error) {
	windowStart := time.Now().Truncate(rl.config.Window)
	redisKey := fmt.Sprintf("%s:%s:%d", rl.config.KeyPrefix, key, windowStart.Unix())

	pipe := rl.redis.Pipeline()
	incrCmd := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, rl.config.Window)
	if _, err := pipe.Exec(ctx); err != nil {
		return Decision{}, err
	}

	count := int(incrCmd.Val())
	return Decision{
		Allowed:   count <= rl.config.Limit,
		Remaining: max(rl.config.Limit-count, 0),
		Reset:     windowStart.Add(rl.config.Window),
	}, nil
}

// LocalRateLimiter keeps a token bucket per key in process memory.
// Used when no Redis is configured; limits are per instance.
// Buckets idle for a whole window are full again and get dropped.
type LocalRateLimiter struct {
	config RateLimitConfig
	now    func() time.Time

	mu        sync.Mutex
	limiters  map[string]*localBucket
	lastSweep time.Time
}

type localBucket struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewLocalRateLimiter refills Limit tokens evenly over Window with a burst of Limit
func NewLocalRateLimiter(config RateLimitConfig) *LocalRateLimiter {
	return &LocalRateLimiter{
		config:    config,
		now:       time.Now,
		limiters:  make(map[string]*localBucket),
		lastSweep: time.Now(),
	}
}

// Config returns the limiter's window settings
func (l *LocalRateLimiter) Config() RateLimitConfig { return l.config }

// Allow takes one token from the key's bucket
func (l *LocalRateLimiter) Allow(_ context.Context, key string) (Decision, error) {
	now := l.now()

	l.mu.Lock()
	if now.Sub(l.lastSweep) >= l.config.Window {
		l.sweep(now)
	}
	bucket, ok := l.limiters[key]
	if !ok {
		every := l.config.Window / time.Duration(max(l.config.Limit, 1))
		bucket = &localBucket{limiter: rate.NewLimiter(rate.Every(every), l.config.Limit)}
		l.limiters[key] = bucket
	}
	bucket.lastSeen = now
	lim := bucket.limiter
	l.mu.Unlock()

	allowed := lim.AllowN(now, 1)
	remaining := int(lim.TokensAt(now))
	return Decision{
		Allowed:   allowed,
		Remaining: max(remaining, 0),
		Reset:     now.Add(l.config.Window),
	}, nil
}

// sweep drops idle buckets; callers hold l.mu
func (l *LocalRateLimiter) sweep(now time.Time) {
	for key, bucket := range l.limiters {
		if now.Sub(bucket.lastSeen) >= l.config.Window {
			delete(l.limiters, key)
		}
	}
	l.lastSweep = now
}

// RateLimit enforces limiter per user; limiter errors let the request through
func RateLimit(limiter Limiter) gin.HandlerFunc {
	cfg := limiter.Config()
	return func(c *gin.Context) {
		userID, ok := UserID(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
			return
		}

		d, err := limiter.Allow(c.Request.Context(), userID.String())
		if err != nil {
			slog.Warn("rate limit check failed", "user_id", userID, "error", err)
			c.Header("X-RateLimit-Error", "rate limit check failed")
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(d.Remaining))
		c.Header("X-RateLimit-Reset", strconv.FormatInt(d.Reset.Unix(), 10))

		if !d.Allowed {
			rateLimitRejects.WithLabelValues(c.FullPath()).Inc()
			c.Header("Retry-After", strconv.Itoa(max(int(time.Until(d.Reset).Seconds()), 1)))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":                "rate limit exceeded",
				"message":              fmt.Sprintf("You have exceeded the rate limit of %d requests per %v", cfg.Limit, cfg.Window),
				"rate_limit_remaining": d.Remaining,
				"rate_limit_reset":     d.Reset.Unix(),
			})
			return
		}

		c.Next()
	}
}
