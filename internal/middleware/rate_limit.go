package middleware

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"bridgebot/backend/internal/util"
	"bridgebot/backend/pkg/logger"
	"bridgebot/backend/pkg/redis"
)

// RateLimiter is a fixed-window request counter kept in Redis
type RateLimiter struct {
	redis  *redis.Client
	limit  int
	window time.Duration
	action string
	log    *logger.Logger
}

// NewRateLimiter creates a limiter allowing limit requests per window and action
func NewRateLimiter(redisClient *redis.Client, limit int, window time.Duration, action string) *RateLimiter {
	return &RateLimiter{
		redis:  redisClient,
		limit:  limit,
		window: window,
		action: action,
		log:    logger.GetLogger().Component("rate_limit"),
	}
}

// Limit returns a middleware that limits requests per operator or client IP
func (rl *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		identifier := "ip:" + c.ClientIP()
		if username, exists := c.Get("username"); exists {
			identifier = "user:" + username.(string)
		}

		count, err := rl.hit(c.Request.Context(), redis.RateLimitKey(identifier, rl.action))
		if err != nil {
			// fail open
			rl.log.Warnf("Rate limit check failed for %s: %v", identifier, err)
			c.Next()
			return
		}

		remaining := int64(rl.limit) - count
		if remaining < 0 {
			remaining = 0
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(rl.limit))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(remaining, 10))

		if count > int64(rl.limit) {
			util.AbortWithCustomError(c, http.StatusTooManyRequests,
				util.ErrCodeRateLimit, "Rate limit exceeded. Please try again later.")
			return
		}

		c.Next()
	}
}

// hit counts one request and starts the window on the first one
func (rl *RateLimiter) hit(ctx context.Context, key string) (int64, error) {
	count, err := rl.redis.Incr(ctx, key)
	if err != nil {
		return 0, err
	}
	if count == 1 {
		if err := rl.redis.Expire(ctx, key, rl.window); err != nil {
			return 0, err
		}
	}
	return count, nil
}

// RateLimit limits every API request per minute
func RateLimit(redisClient *redis.Client, limit int) gin.HandlerFunc {
	return NewRateLimiter(redisClient, limit, time.Minute, "general").Limit()
}

// AuthRateLimit limits login attempts per minute
func AuthRateLimit(redisClient *redis.Client, limit int) gin.HandlerFunc {
	return NewRateLimiter(redisClient, limit, time.Minute, "auth").Limit()
}
