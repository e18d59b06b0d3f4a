package http

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/helmet"
	"github.com/gofiber/fiber/v3/middleware/logger"
	recoverer "github.com/gofiber/fiber/v3/middleware/recover"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/internal/api/http/handler"
	"github.com/usegalaxy-au/galaxy_web/internal/api/http/middleware"
	"github.com/usegalaxy-au/galaxy_web/internal/api/http/router"
	"github.com/usegalaxy-au/galaxy_web/internal/view"
	"github.com/usegalaxy-au/galaxy_web/pkg/constants"
	"github.com/usegalaxy-au/galaxy_web/pkg/observability"
)

// Module provides the HTTP server and router to the fx graph.
var Module = fx.Module("http",
	router.Module,
	fx.Provide(NewServer),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Log       *slog.Logger
	Redis     *redis.Client `optional:"true"`
	Views     *view.Engine
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	app := New(p.Cfg, p.Log, p.Views, p.Redis, p.OTel != nil)

	mount(app, p.Router)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					p.Log.Error("HTTP server error", "error", err)
				}
			}()
			p.Log.Info("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// New builds the Fiber app with views and global middleware but no routes.
func New(cfg *config.Config, log *slog.Logger, views *view.Engine, rdb *redis.Client, traced bool) *fiber.App {
	timeout := time.Duration(cfg.Server.TimeoutSeconds) * time.Second

	app := fiber.New(fiber.Config{
		AppName:      constants.AppName,
		Views:        views.Views(),
		ErrorHandler: handler.ErrorHandler(log),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
	})

	if traced && cfg.Observability.Tracing.Enabled {
		app.Use(observability.FiberMiddleware())
	}

	configureGlobalMiddleware(app, cfg, rdb)
	return app
}

// mount registers the routes and the catch-all 404.
func mount(app *fiber.App, r *router.Router) {
	r.Register(app)
	app.Use(func(c fiber.Ctx) error { return fiber.ErrNotFound })
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if cfg.Server.Environment == "production" {
		app.Use(helmet.New(helmet.Config{
			// reCAPTCHA and the CDN stylesheet are loaded cross-origin.
			CrossOriginEmbedderPolicy: "unsafe-none",
		}))
		if cfg.Server.CORS.Enabled {
			app.Use(cors.New(cors.Config{AllowOrigins: cfg.Server.CORS.AllowOrigins}))
		}
	}
	if cfg.Server.RateLimit.Enabled {
		app.Use(middleware.NewLimiter(rdb, cfg.Server.RateLimit))
	}

	app.Use(middleware.NewSession(rdb, cfg.Server.Session))

	app.Use(logger.New(logger.Config{
		Format: "${ip} - [${time}] [req_id=${locals:requestid}] ${method} ${url} ${status}\n",
	}))
}
