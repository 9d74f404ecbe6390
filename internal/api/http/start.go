package http

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/fx"

	"github.com/Alijeyrad/mentorbook_backend/config"
	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/router"
	"github.com/Alijeyrad/mentorbook_backend/internal/app"
)

// Start runs the HTTP server until SIGINT/SIGTERM.
func Start(cfg *config.Config, timeout time.Duration) {
	fx.New(
		fx.Supply(cfg),
		app.InfraModule,
		app.ServiceModule,
		app.WorkerModule,
		router.Module,
		Module,

		// NewServer registers the listen hook; requesting the app forces it.
		fx.Invoke(func(*fiber.App) {}),

		fx.StartTimeout(timeout),
		fx.StopTimeout(timeout),
	).Run()
}
