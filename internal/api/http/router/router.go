package router

import (
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/adaptor"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/redis/go-redis/v9"
	"go.uber.org/fx"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/handler"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/availability"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/scheduling"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/observability"
	pasetotoken "github.com/Alijeyrad/mentorbook_backend/pkg/paseto"
)

// Module provides the Router to the fx graph.
var Module = fx.Module("router", fx.Provide(NewRouter))

// APIPrefix is where every domain route is mounted.
const APIPrefix = "/api"

type Params struct {
	fx.In

	Cfg             *config.Config
	Redis           *redis.Client `optional:"true"`
	Auth            authorize.IAuthorization
	AvailabilitySvc availability.Service
	SchedulingSvc   scheduling.Service
	AppointmentSvc  appointment.Service
	PasetoMgr       *pasetotoken.Manager
}

type Router struct {
	p Params
}

func NewRouter(p Params) *Router {
	return &Router{p: p}
}

func (r *Router) Register(app *fiber.App) {
	r.registerSystemRoutes(app)

	authRequired := middleware.AuthRequired(r.p.PasetoMgr, r.p.Redis, r.p.Cfg.Authentication.RequireSession)

	requirePerm := func(res authorize.Resource, act authorize.Action) fiber.Handler {
		return middleware.RequirePermission(r.p.Auth, res, act)
	}

	availabilityH := handler.NewAvailabilityHandler(r.p.AvailabilitySvc, r.p.SchedulingSvc)
	appointmentH := handler.NewAppointmentHandler(r.p.AppointmentSvc)

	api := app.Group(APIPrefix)

	r.registerAvailabilityRoutes(api, availabilityH, authRequired, requirePerm)
	r.registerAppointmentRoutes(api, appointmentH, authRequired)
}

// SystemPaths are excluded from tracing and rate limiting.
func (r *Router) SystemPaths() []string {
	return []string{
		healthcheck.LivenessEndpoint,
		healthcheck.ReadinessEndpoint,
		healthcheck.StartupEndpoint,
		r.metricsPath(),
	}
}

func (r *Router) metricsPath() string {
	if p := r.p.Cfg.Observability.Metrics.Path; p != "" {
		return p
	}
	return "/metrics"
}

func (r *Router) registerSystemRoutes(app *fiber.App) {
	app.Get(healthcheck.LivenessEndpoint, healthcheck.New())
	app.Get(healthcheck.ReadinessEndpoint, healthcheck.New(healthcheck.Config{
		Probe: func(c fiber.Ctx) bool { return authorize.IsPolicyHealthy() },
	}))
	app.Get(healthcheck.StartupEndpoint, healthcheck.New())

	if r.p.Cfg.Observability.Enabled && r.p.Cfg.Observability.Metrics.Enabled {
		app.Get(r.metricsPath(), adaptor.HTTPHandler(observability.MetricsHandler()))
	}
}
