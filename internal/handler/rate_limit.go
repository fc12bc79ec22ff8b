package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prperemyshlev/auth-core/internal/dto"
	"github.com/prperemyshlev/auth-core/internal/service"
	"go.uber.org/zap"
)

// RateLimiter decides whether a keyed request fits its window
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (*service.RateLimitResult, error)
}

// RateLimitMiddleware creates a rate limiting middleware. Requests are
// let through when the limiter itself fails.
func RateLimitMiddleware(rateLimiter RateLimiter, limit int, window time.Duration, keyFunc func(*gin.Context) string, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.FullPath() + ":" + keyFunc(c)

		res, err := rateLimiter.Allow(c.Request.Context(), key, limit, window)
		if err != nil {
			logger.Warn("Rate limiter unavailable", zap.String("path", c.FullPath()), zap.Error(err))
			c.Next()
			return
		}

		c.Header("X-RateLimit-Limit", strconv.Itoa(res.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(res.Remaining))

		if !res.Allowed {
			retryAfter := int(res.RetryAfter.Round(time.Second).Seconds())
			if retryAfter < 1 {
				retryAfter = 1
			}
			c.Header("Retry-After", strconv.Itoa(retryAfter))

			c.JSON(http.StatusTooManyRequests, dto.ErrorResponse{
				Error:   "Too Many Requests",
				Message: "Rate limit exceeded, try again in " + strconv.Itoa(retryAfter) + "s",
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// IPBasedKey keys on the client IP as resolved by gin. Forwarding headers
// only count when the peer is a configured trusted proxy.
func IPBasedKey(c *gin.Context) string {
	return c.ClientIP()
}
