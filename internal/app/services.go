package app

import (
	"crypto/rand"
	"encoding/hex"
	"log/slog"

	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/internal/content"
	"github.com/usegalaxy-au/galaxy_web/internal/service/request"
	"github.com/usegalaxy-au/galaxy_web/internal/service/subscription"
	"github.com/usegalaxy-au/galaxy_web/internal/view"
	"github.com/usegalaxy-au/galaxy_web/pkg/captcha"
	"github.com/usegalaxy-au/galaxy_web/pkg/constants"
	"github.com/usegalaxy-au/galaxy_web/pkg/crypto"
	"github.com/usegalaxy-au/galaxy_web/pkg/email"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
	s3pkg "github.com/usegalaxy-au/galaxy_web/pkg/s3"
)

// ServiceModule provides all application service dependencies.
var ServiceModule = fx.Module("services",
	fx.Provide(
		ProvideViewEngine,
		ProvideRenderer,
		ProvideImageResolver,
		ProvideContentStore,
		ProvideRequestService,
		ProvideSigner,
		ProvideSubscriptionService,
	),
)

func ProvideViewEngine(cfg *config.Config) (*view.Engine, error) {
	engine, err := view.New(view.Config{
		OverrideDir: cfg.Content.TemplatesDir,
		Debug:       cfg.Server.Environment == "development",
		Globals: map[string]any{
			"site_name":        constants.AppName,
			"hostname":         cfg.Server.Hostname,
			"captcha_site_key": cfg.Captcha.SiteKey,
		},
	})
	if err != nil {
		return nil, err
	}
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return engine, nil
}

func ProvideRenderer(e *view.Engine) view.Renderer {
	return e
}

// ProvideImageResolver serves page images from S3 when configured.
func ProvideImageResolver(cfg *config.Config, s3 *s3pkg.Client) content.ImageResolver {
	if s3 != nil {
		return s3
	}
	return content.StaticResolver{BaseURL: cfg.Content.ImageBaseURL}
}

func ProvideContentStore(cfg *config.Config, images content.ImageResolver, log *slog.Logger) *content.Store {
	return content.FromConfig(cfg.Content, images, log)
}

func ProvideRequestService(
	cfg *config.Config,
	mailer email.Mailer,
	views view.Renderer,
	verifier captcha.Verifier,
	matcher *institution.Matcher,
	log *slog.Logger,
) request.Service {
	return request.New(request.Config{
		Hostname:          cfg.Server.Hostname,
		AdvisoryResources: cfg.Access.AdvisoryResources,
	}, mailer, views, verifier, matcher, log)
}

// ProvideSigner falls back to a per-process key when none is configured, so
// unsubscribe links stop working after a restart.
func ProvideSigner(cfg *config.Config, log *slog.Logger) (*crypto.Signer, error) {
	key := cfg.Unsubscribe.SecretKey
	if key == "" {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, err
		}
		key = hex.EncodeToString(buf)
		log.Warn("unsubscribe.secret_key is not set, using a temporary key")
	}
	return crypto.NewSigner(key)
}

func ProvideSubscriptionService(rdb *redis.Client, signer *crypto.Signer, log *slog.Logger) subscription.Service {
	var set subscription.Set = subscription.NewMemorySet()
	if rdb != nil {
		set = subscription.NewRedisSet(rdb, subscription.SetKey)
	}
	return subscription.New(set, signer, log)
}
