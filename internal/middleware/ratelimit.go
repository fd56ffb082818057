package middleware

import (
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"
)

const limiterKeyPrefix = "fxproxy:ratelimit"

// NewLimiter builds a limiter from a formatted rate such as "60-M". When redisURL
// is set the counters live in Redis so several replicas share one budget;
// otherwise they are kept in process memory. The returned close func releases
// the Redis client and must be called on shutdown; it is a no-op for memory.
func NewLimiter(formatted, redisURL string) (*limiter.Limiter, func() error, error) {
	noop := func() error { return nil }

	rate, err := limiter.NewRateFromFormatted(formatted)
	if err != nil {
		return nil, noop, fmt.Errorf("parse rate limit %q: %w", formatted, err)
	}

	storeOpts := limiter.StoreOptions{
		Prefix:          limiterKeyPrefix,
		CleanUpInterval: limiter.DefaultCleanUpInterval,
		MaxRetry:        limiter.DefaultMaxRetry,
	}

	if redisURL == "" {
		store := memory.NewStoreWithOptions(storeOpts)
		return limiter.New(store, rate), noop, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, noop, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	store, err := sredis.NewStoreWithOptions(client, storeOpts)
	if err != nil {
		_ = client.Close()
		return nil, noop, fmt.Errorf("create redis limiter store: %w", err)
	}
	return limiter.New(store, rate), client.Close, nil
}

// RateLimit creates a Gin middleware for rate limiting requests.
// It uses the provided limiter instance.
func RateLimit(limiterInstance *limiter.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		// Get the IP address for rate limiting
		ip := c.ClientIP()
		logger := GetLoggerFromCtx(c.Request.Context())

		// Apply the rate limiting
		context, err := limiterInstance.Get(c.Request.Context(), ip)
		if err != nil {
			logger.Error("Failed to get rate limit context", slog.String("ip", ip), slog.String("error", err.Error()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "Internal server error during rate limit check"})
			return
		}

		c.Header("X-RateLimit-Limit", strconv.FormatInt(context.Limit, 10))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(context.Remaining, 10))

		if context.Reached {
			logger.Warn("Rate limit exceeded", slog.String("ip", ip), slog.Int64("limit", context.Limit), slog.Int64("remaining_requests", context.Remaining))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "Too many requests. Please try again later."})
			return
		}

		c.Next()
	}
}
