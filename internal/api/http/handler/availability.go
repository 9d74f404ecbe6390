package handler

import (
	"time"

	"github.com/gofiber/fiber/v3"

	"github.com/Alijeyrad/mentorbook_backend/internal/service/availability"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/scheduling"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
)

var ErrInvalidDate = apperr.Validation("VALIDATION_ERROR", "date must be YYYY-MM-DD")

type AvailabilityHandler struct {
	svc   availability.Service
	sched scheduling.Service
}

func NewAvailabilityHandler(svc availability.Service, sched scheduling.Service) *AvailabilityHandler {
	return &AvailabilityHandler{svc: svc, sched: sched}
}

// GET /mentors/:mentorId/availability
func (h *AvailabilityHandler) ListForMentor(c fiber.Ctx) error {
	mentorID, err := uuidParam(c, "mentorId")
	if err != nil {
		return err
	}

	slots, err := h.svc.ListForMentor(c.Context(), mentorID)
	if err != nil {
		return err
	}
	return ok(c, slots)
}

// GET /mentors/:mentorId/availability/open?date=YYYY-MM-DD
func (h *AvailabilityHandler) OpenWindows(c fiber.Ctx) error {
	mentorID, err := uuidParam(c, "mentorId")
	if err != nil {
		return err
	}

	date, err := time.ParseInLocation(time.DateOnly, c.Query("date"), h.sched.Location())
	if err != nil {
		return ErrInvalidDate
	}

	windows, err := h.sched.OpenWindows(c.Context(), mentorID, date)
	if err != nil {
		return err
	}
	return ok(c, windows)
}

// POST /mentors/me/availability
func (h *AvailabilityHandler) Add(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var in []availability.SlotInput
	if err := c.Bind().JSON(&in); err != nil {
		return availability.ErrInvalidSlots
	}

	slots, err := h.svc.Add(c.Context(), actor, in)
	if err != nil {
		return err
	}
	return created(c, slots)
}

// PUT /mentors/me/availability
func (h *AvailabilityHandler) Replace(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var in []availability.SlotInput
	if err := c.Bind().JSON(&in); err != nil {
		return availability.ErrInvalidSlots
	}

	slots, err := h.svc.Replace(c.Context(), actor, in)
	if err != nil {
		return err
	}
	return ok(c, slots)
}

// PUT /mentors/me/availability/:slotId
func (h *AvailabilityHandler) Update(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	slotID, err := uuidParam(c, "slotId")
	if err != nil {
		return err
	}

	var patch availability.SlotPatch
	if err := bindJSON(c, &patch); err != nil {
		return err
	}

	slot, err := h.svc.Update(c.Context(), actor, slotID, patch)
	if err != nil {
		return err
	}
	return ok(c, slot)
}

// DELETE /mentors/me/availability/:slotId
func (h *AvailabilityHandler) Delete(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	slotID, err := uuidParam(c, "slotId")
	if err != nil {
		return err
	}

	if err := h.svc.Delete(c.Context(), actor, slotID); err != nil {
		return err
	}
	return noContent(c)
}
