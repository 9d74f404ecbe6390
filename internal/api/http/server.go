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

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/handler"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/middleware"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/router"
	"github.com/Alijeyrad/mentorbook_backend/pkg/observability"
)

// Module provides the HTTP Server to the fx graph.
var Module = fx.Module("http", fx.Provide(NewServer))

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       *config.Config
	Redis     *redis.Client `optional:"true"`
	Router    *router.Router
	OTel      *observability.Provider `optional:"true"`
}

func NewServer(p Params) *fiber.App {
	tracing := p.OTel != nil && p.Cfg.Observability.Tracing.Enabled
	app := NewApp(p.Cfg, p.Redis, p.Router, tracing)

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			addr := fmt.Sprintf(":%d", p.Cfg.Server.Port)
			go func() {
				if err := app.Listen(addr, fiber.ListenConfig{DisableStartupMessage: true}); err != nil {
					slog.Error("HTTP server error", "error", err)
				}
			}()
			slog.Info("HTTP server listening", "addr", addr)
			return nil
		},
		OnStop: func(ctx context.Context) error {
			return app.ShutdownWithContext(ctx)
		},
	})

	return app
}

// NewApp builds the fiber application with global middleware and every route
// registered. It does not listen.
func NewApp(cfg *config.Config, rdb *redis.Client, r *router.Router, tracing bool) *fiber.App {
	fc := fiber.Config{
		AppName:      "mentorbook",
		ErrorHandler: handler.ErrorHandler,
	}
	if cfg.Server.TimeoutSeconds > 0 {
		t := time.Duration(cfg.Server.TimeoutSeconds) * time.Second
		fc.ReadTimeout, fc.WriteTimeout = t, t
	}
	app := fiber.New(fc)

	configureGlobalMiddleware(app, cfg, rdb, r.SystemPaths(), tracing)

	r.Register(app)
	return app
}

func configureGlobalMiddleware(app *fiber.App, cfg *config.Config, rdb *redis.Client, systemPaths []string, tracing bool) {
	app.Use(middleware.RequestID())
	app.Use(recoverer.New())

	if tracing {
		app.Use(observability.FiberMiddleware(systemPaths...))
	}

	if cfg.Server.IsProduction() {
		app.Use(helmet.New())
		if cfg.Server.CORS.Enabled {
			app.Use(cors.New(cors.Config{
				AllowOrigins:     cfg.Server.CORS.AllowOrigins,
				AllowMethods:     cfg.Server.CORS.AllowMethods,
				AllowHeaders:     cfg.Server.CORS.AllowHeaders,
				ExposeHeaders:    cfg.Server.CORS.ExposeHeaders,
				AllowCredentials: cfg.Server.CORS.AllowCredentials,
				MaxAge:           cfg.Server.CORS.MaxAgeSeconds,
			}))
		}
		if cfg.Server.RateLimit.Enabled {
			app.Use(middleware.NewLimiter(cfg.Server.RateLimit, rdb))
		}
	}

	if cfg.Server.Environment != "test" {
		app.Use(logger.New(logger.Config{
			Format: "${ip} - [${time}] [req_id=${respHeader:X-Request-Id}] ${method} ${url} ${status} ${latency}\n",
		}))
	}
}
