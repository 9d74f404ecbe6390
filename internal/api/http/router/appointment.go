package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/handler"
)

// Role and party checks for appointments live in the service, which knows
// the record being acted on.
func (r *Router) registerAppointmentRoutes(
	api fiber.Router,
	ah *handler.AppointmentHandler,
	authRequired fiber.Handler,
) {
	appts := api.Group("/appointments", authRequired)

	appts.Post("/", ah.Create)
	appts.Get("/", ah.List)
	appts.Get("/my", ah.List)

	a := appts.Group("/:id")
	a.Get("/", ah.Get)
	a.Patch("/confirm", ah.Confirm)
	a.Put("/confirm", ah.Confirm)
	a.Patch("/cancel", ah.Cancel)
	a.Put("/cancel", ah.Cancel)
	a.Patch("/complete", ah.Complete)
	a.Put("/complete", ah.Complete)
	a.Put("/meeting", ah.AttachMeeting)
}
