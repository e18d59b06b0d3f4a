package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/extractors"
	"github.com/gofiber/fiber/v3/middleware/session"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"

	"github.com/usegalaxy-au/galaxy_web/config"
)

const SessionCookie = "galaxy_session"

// NewSession stores anonymous visitor sessions in Redis when rdb is set,
// otherwise in process memory.
func NewSession(rdb *redis.Client, cfg config.SessionConfig) fiber.Handler {
	idle := time.Duration(cfg.IdleTimeoutMinutes) * time.Minute
	if idle <= 0 {
		idle = 14 * 24 * time.Hour
	}

	sc := session.Config{
		IdleTimeout:    idle,
		CookieSecure:   cfg.CookieSecure,
		CookieHTTPOnly: true,
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		CookiePath:     "/",
		Extractor:      extractors.FromCookie(SessionCookie),
	}
	if rdb != nil {
		sc.Storage = fiberredis.NewFromConnection(rdb)
	}
	return session.New(sc)
}
