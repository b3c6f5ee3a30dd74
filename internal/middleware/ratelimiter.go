package middleware

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"

	"github.com/EgehanKilicarslan/gadget-inventory/backend-go/internal/config"
)

// RateLimiter counts requests per client in fixed windows
type RateLimiter interface {
	// Allow records one request for key and reports whether it fits the window
	Allow(ctx context.Context, key string) (RateLimitResult, error)

	// Close closes the underlying connection
	Close() error
}

// RateLimitResult describes the state of a client's current window.
// Limit is zero when limiting is disabled.
type RateLimitResult struct {
	Allowed    bool
	Limit      int64
	Remaining  int64
	ResetAfter time.Duration
}

type redisRateLimiter struct {
	client *redis.Client
	limit  int64
	window time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// RateLimiterOption customizes the Redis rate limiter
type RateLimiterOption func(*redisRateLimiter)

// WithRateLimiterClock replaces the wall clock used to pick windows
func WithRateLimiterClock(now func() time.Time) RateLimiterOption {
	return func(r *redisRateLimiter) {
		r.now = now
	}
}

// NewRateLimiter creates a Redis-backed fixed-window rate limiter.
// The client is owned by the limiter and closed by Close.
func NewRateLimiter(client *redis.Client, cfg *config.Config, logger *slog.Logger, opts ...RateLimiterOption) RateLimiter {
	r := &redisRateLimiter{
		client: client,
		limit:  cfg.RateLimitRequests,
		window: cfg.RateLimitWindowDuration(),
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(r)
	}

	logger.Info("✅ [RateLimiter] Redis rate limiter ready",
		"limit", r.limit,
		"window", r.window,
	)
	return r
}

// windowKey generates the Redis key for a client's current window
// Format: rate:{key}:{windowIndex}
func (r *redisRateLimiter) windowKey(key string, now time.Time) (string, time.Duration) {
	windowSeconds := int64(r.window / time.Second)
	if windowSeconds <= 0 {
		windowSeconds = 1
	}
	index := now.Unix() / windowSeconds
	windowEnd := time.Unix((index+1)*windowSeconds, 0)
	return fmt.Sprintf("rate:%s:%d", key, index), windowEnd.Sub(now)
}

func (r *redisRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	if r.limit <= 0 {
		return RateLimitResult{Allowed: true}, nil
	}

	redisKey, resetAfter := r.windowKey(key, r.now())

	pipe := r.client.Pipeline()
	incr := pipe.Incr(ctx, redisKey)
	pipe.Expire(ctx, redisKey, r.window)

	if _, err := pipe.Exec(ctx); err != nil {
		// Allow the request; the caller decides how to report err
		return RateLimitResult{Allowed: true, Limit: r.limit, Remaining: r.limit, ResetAfter: resetAfter}, err
	}

	count := incr.Val()
	remaining := r.limit - count
	if remaining < 0 {
		remaining = 0
	}

	return RateLimitResult{
		Allowed:    count <= r.limit,
		Limit:      r.limit,
		Remaining:  remaining,
		ResetAfter: resetAfter,
	}, nil
}

func (r *redisRateLimiter) Close() error {
	return r.client.Close()
}

// NoOpRateLimiter is a rate limiter that always allows requests
// Used when Redis is not available
type NoOpRateLimiter struct {
	logger *slog.Logger
}

// NewNoOpRateLimiter creates a no-op rate limiter
func NewNoOpRateLimiter(logger *slog.Logger) RateLimiter {
	logger.Warn("⚠️ [RateLimiter] Using no-op rate limiter - rate limiting is disabled")
	return &NoOpRateLimiter{logger: logger}
}

func (r *NoOpRateLimiter) Allow(ctx context.Context, key string) (RateLimitResult, error) {
	return RateLimitResult{Allowed: true}, nil
}

func (r *NoOpRateLimiter) Close() error {
	return nil
}

// RateLimit rejects clients that exceed the limiter's window with 429
func RateLimit(limiter RateLimiter, logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()

		result, err := limiter.Allow(c.Request.Context(), clientIP)
		if err != nil {
			logger.Warn("⚠️ [RateLimiter] Limiter unavailable, allowing request", "client_ip", clientIP, "error", err)
		}

		if result.Limit > 0 {
			c.Header("X-RateLimit-Limit", strconv.FormatInt(result.Limit, 10))
			c.Header("X-RateLimit-Remaining", strconv.FormatInt(result.Remaining, 10))
		}

		if !result.Allowed {
			retryAfter := int64(result.ResetAfter.Round(time.Second) / time.Second)
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.FormatInt(retryAfter, 10))
			logger.Warn("🚦 [RateLimiter] Rate limit exceeded", "client_ip", clientIP)
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests, please try again later."})
			return
		}

		c.Next()
	}
}
