package router

import (
	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/internal/api/http/handler"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

func (r *Router) registerAvailabilityRoutes(
	api fiber.Router,
	h *handler.AvailabilityHandler,
	authRequired fiber.Handler,
	requirePerm func(authorize.Resource, authorize.Action) fiber.Handler,
) {
	mentors := api.Group("/mentors")

	// "me" is registered first so it never parses as a mentor id.
	me := mentors.Group("/me/availability", authRequired)
	me.Post("/", requirePerm(authorize.ResourceAvailability, authorize.ActionCreate), h.Add)
	me.Put("/", requirePerm(authorize.ResourceAvailability, authorize.ActionUpdate), h.Replace)
	me.Put("/:slotId", requirePerm(authorize.ResourceAvailability, authorize.ActionUpdate), h.Update)
	me.Delete("/:slotId", requirePerm(authorize.ResourceAvailability, authorize.ActionDelete), h.Delete)

	mentors.Get("/:mentorId/availability", h.ListForMentor)
	mentors.Get("/:mentorId/availability/open", h.OpenWindows)
}
