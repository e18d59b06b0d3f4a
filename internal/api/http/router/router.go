package router

import (
	"log/slog"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/fx"

	"github.com/usegalaxy-au/galaxy_web/config"
	"github.com/usegalaxy-au/galaxy_web/internal/api/http/handler"
	"github.com/usegalaxy-au/galaxy_web/internal/content"
	"github.com/usegalaxy-au/galaxy_web/internal/service/request"
	"github.com/usegalaxy-au/galaxy_web/internal/service/subscription"
	"github.com/usegalaxy-au/galaxy_web/pkg/institution"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

type Params struct {
	fx.In

	Cfg             *config.Config
	Log             *slog.Logger
	Content         *content.Store
	Institutions    *institution.Matcher
	RequestSvc      request.Service
	SubscriptionSvc subscription.Service
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	// 1. Health & Metrics
	r.registerSystemRoutes(app)

	// 2. Initialize Handlers
	pageH := handler.NewPageHandler(r.p.Content, r.p.Institutions, r.p.Log)
	requestH := handler.NewRequestHandler(r.p.RequestSvc, r.p.Cfg.Captcha.Enabled, r.p.Log)
	unsubscribeH := handler.NewUnsubscribeHandler(r.p.SubscriptionSvc, r.p.Log)

	// 3. Routes
	r.registerRedirects(app)
	r.registerPageRoutes(app, pageH, unsubscribeH)
	r.registerRequestRoutes(app, requestH)

	// Content pages match any single segment, so they go last.
	app.Get("/:page.html", pageH.Page)
	app.Get("/:page.md", pageH.Page)
}

func (r *Router) registerPageRoutes(app *fiber.App, h *handler.PageHandler, uh *handler.UnsubscribeHandler) {
	app.Get("/", h.Home)
	app.Get("/about", h.About)
	app.Get("/aaf", h.AAF)
	app.Get("/institutions", h.Institutions)
	app.Get("/landing/:subdomain", h.Landing)
	app.Post("/notice/dismiss", h.DismissNotice)
	app.Get("/notice/:id", h.Notice)
	app.Get("/unsubscribe", uh.Unsubscribe)
}

func (r *Router) registerRequestRoutes(app *fiber.App, h *handler.RequestHandler) {
	g := app.Group("/request")
	g.Get("/", h.Index)
	g.Get("/tool", h.ResourceForm)
	g.Post("/tool", h.SubmitResource)
	g.Get("/quota", h.QuotaForm)
	g.Post("/quota", h.SubmitQuota)
	g.Get("/support", h.SupportForm)
	g.Post("/support", h.SubmitSupport)
	g.Get("/access/:resource", h.AccessForm)
	g.Post("/access/:resource", h.SubmitAccess)
}

// registerRedirects keeps addresses from the previous site working.
func (r *Router) registerRedirects(app *fiber.App) {
	redirects := map[string]string{
		"/galaxy":            "/",
		"/galaxy/":           "/",
		"/help":              "/request/support",
		"/request/alphafold": "/request/access/alphafold",
	}
	for from, to := range redirects {
		app.Get(from, func(c fiber.Ctx) error {
			return c.Redirect().Status(fiber.StatusMovedPermanently).To(to)
		})
	}
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New())
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		path := r.p.Cfg.Observability.Metrics.Path
		if path == "" {
			path = "/metrics"
		}
		app.Get(path, adaptor.HTTPHandler(promhttp.Handler()))
	}
}
