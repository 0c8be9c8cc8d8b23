package middleware

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"framefeed/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"
)

// RateLimitMiddleware counts requests per caller and path in fixed redis
// windows. Without redis it falls back to an in-process token bucket per caller.
func RateLimitMiddleware(redisClient *redis.Client, limit int, window time.Duration, log *logger.Logger) gin.HandlerFunc {
	if limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if redisClient == nil {
		return localRateLimit(limit, window)
	}

	return func(c *gin.Context) {
		key := fmt.Sprintf("rate_limit:%s:%s", c.FullPath(), callerKey(c))

		ctx := c.Request.Context()
		count, err := redisClient.Incr(ctx, key).Result()
		if err != nil {
			// Fail open when redis is unavailable.
			log.Warn("[RATE_LIMIT] redis incr failed for %s: %v", key, err)
			c.Next()
			return
		}

		if count == 1 {
			if err := redisClient.Expire(ctx, key, window).Err(); err != nil {
				// A counter without a TTL would lock the caller out for good.
				log.Warn("[RATE_LIMIT] redis expire failed for %s: %v", key, err)
				if err := redisClient.Del(context.WithoutCancel(ctx), key).Err(); err != nil {
					log.Error("[RATE_LIMIT] failed to drop counter %s: %v", key, err)
				}
			}
		}

		if count > int64(limit) {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}

		c.Next()
	}
}

func localRateLimit(limit int, window time.Duration) gin.HandlerFunc {
	var mu sync.Mutex
	limiters := make(map[string]*rate.Limiter)
	every := rate.Every(window / time.Duration(limit))

	return func(c *gin.Context) {
		key := c.FullPath() + ":" + callerKey(c)

		mu.Lock()
		l, ok := limiters[key]
		if !ok {
			l = rate.NewLimiter(every, limit)
			limiters[key] = l
		}
		mu.Unlock()

		if !l.Allow() {
			c.JSON(http.StatusTooManyRequests, gin.H{"error": "Rate limit exceeded"})
			c.Abort()
			return
		}
		c.Next()
	}
}

func callerKey(c *gin.Context) string {
	if userID := c.GetString(UserIDKey); userID != "" {
		return userID
	}
	return c.ClientIP()
}
