package app

import (
	"context"
	"errors"
	"log/slog"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/pkg/captcha"
	"github.com/usegalaxy-au/galaxy_web/pkg/constants"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
	"github.com/usegalaxy-au/galaxy_web/pkg/logs"
	"github.com/usegalaxy-au/galaxy_web/pkg/observability"
	redispkg "github.com/usegalaxy-au/galaxy_web/pkg/redis"
	s3pkg "github.com/usegalaxy-au/galaxy_web/pkg/s3"
)

// InfraModule provides all infrastructure dependencies. Redis, NATS, S3 and
// OpenTelemetry are optional and provided as nil when not configured.
var InfraModule = fx.Module("infra",
	fx.Provide(ProvideLogger),
	fx.Provide(ProvideRedis),
	fx.Provide(ProvideNatsClient),
	fx.Provide(ProvideOTel),
	fx.Provide(ProvideS3Client),
	fx.Provide(ProvideTransport),
	fx.Provide(ProvideDispatcher),
	fx.Provide(ProvideMailer),
	fx.Provide(ProvideCaptcha),
	fx.Provide(ProvideInstitutions),
)

func ProvideLogger(cfg *config.Config) *slog.Logger {
	lc := logs.FromCentralConfig(cfg)
	if lc.Service == "" {
		lc.Service = constants.ServiceName
	}
	return logs.New(lc)
}

func ProvideRedis(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*redis.Client, error) {
	rdb, err := redispkg.NewRedisFromCentral(context.Background(), cfg.Redis)
	if errors.Is(err, redispkg.ErrNotConfigured) {
		log.Info("redis not configured, using in-memory session and limiter storage")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("closing Redis connection")
			return rdb.Close()
		},
	})
	return rdb, nil
}

func ProvideNatsClient(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*nats.Conn, error) {
	if cfg.Nats.URL == "" {
		return nil, nil
	}
	nc, err := nats.Connect(cfg.Nats.URL, nats.Name(constants.ServiceName))
	if err != nil {
		return nil, err
	}
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("draining NATS connection")
			return nc.Drain()
		},
	})
	return nc, nil
}

func ProvideOTel(lc fx.Lifecycle, cfg *config.Config, log *slog.Logger) (*observability.Provider, error) {
	if !cfg.Observability.Enabled {
		return nil, nil
	}
	provider, err := observability.InitTelemetry(context.Background(), observability.FromCentralConfig(cfg))
	if err != nil {
		return nil, err
	}
	log.Info("observability initialized",
		"tracing", cfg.Observability.Tracing.Enabled,
		"metrics", cfg.Observability.Metrics.Enabled,
	)
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			log.Debug("shutting down observability providers")
			return provider.Shutdown(ctx)
		},
	})
	return provider, nil
}

func ProvideS3Client(cfg *config.Config) (*s3pkg.Client, error) {
	if !cfg.S3.Enabled {
		return nil, nil
	}
	return s3pkg.New(context.Background(), cfg.S3)
}

func ProvideTransport(cfg *config.Config, log *slog.Logger) (email.Transport, error) {
	return email.NewTransport(email.FromCentralConfig(cfg.Email), log)
}

func ProvideDispatcher(cfg *config.Config, t email.Transport, log *slog.Logger) *email.Dispatcher {
	log.Info("mail transport selected", "transport", t.Name(), "host", cfg.Email.Host)
	return email.NewDispatcher(email.FromCentralConfig(cfg.Email), t, log)
}

// ProvideMailer queues mail on NATS when email.async is set, otherwise mail
// is sent inline from the request goroutine.
func ProvideMailer(cfg *config.Config, d *email.Dispatcher, nc *nats.Conn, log *slog.Logger) email.Mailer {
	if cfg.Email.Async && nc != nil {
		return email.NewQueuedMailer(nc, cfg.Nats.Subject, d, log)
	}
	return d
}

func ProvideCaptcha(cfg *config.Config) captcha.Verifier {
	return captcha.New(captcha.FromCentralConfig(cfg.Captcha))
}

func ProvideInstitutions(cfg *config.Config) (*institution.Matcher, error) {
	if cfg.Institution.File == "" {
		return institution.Default(), nil
	}
	return institution.Load(cfg.Institution.File)
}
