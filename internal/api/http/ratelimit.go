package http

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	apperrors "github.com/archie-s/card-vault/pkg/util/errorutil"
)

const rateLimitKeyPrefix = "card-vault:ratelimit:"

// RateLimiter bounds requests per client IP within a fixed window, counted in
// Redis so limits hold across instances. When Redis is unavailable the limiter
// fails open; availability of the vault wins over strictness of the limit.
func RateLimiter(client *redis.Client, limit int, window time.Duration, logger *zap.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if client == nil || limit <= 0 {
			return c.Next()
		}

		key := fmt.Sprintf("%s%s:%d", rateLimitKeyPrefix, c.IP(), time.Now().Unix()/int64(window.Seconds()))
		count, err := client.Incr(c.Context(), key).Result()
		if err != nil {
			logger.Warn("rate limit counter unavailable", zap.Error(err))
			return c.Next()
		}
		if count == 1 {
			if err := client.Expire(c.Context(), key, window).Err(); err != nil {
				logger.Warn("rate limit expiry failed", zap.Error(err))
			}
		}
		if count > int64(limit) {
			return apperrors.NewTooManyRequests()
		}
		return c.Next()
	}
}
