package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/usegalaxy-au/galaxy_web/config"
)

// NewLimiter limits form submissions per client IP with a sliding window.
// Counters live in Redis when rdb is set, otherwise in process memory.
// Only POST requests are counted.
func NewLimiter(rdb *redis.Client, cfg config.RateLimitConfig) fiber.Handler {
	perMinute := cfg.RequestsPerMinute
	if perMinute <= 0 {
		perMinute = 20
	}

	lc := limiter.Config{
		Next: func(c fiber.Ctx) bool {
			return c.Method() != fiber.MethodPost
		},

		// sliding window
		Max:               perMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		LimitReached: func(c fiber.Ctx) error {
			return fiber.NewError(fiber.StatusTooManyRequests, "Too many requests. Please try again in a minute.")
		},
	}
	if rdb != nil {
		lc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return limiter.New(lc)
}
