package handler

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/appointment"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
)

var ErrInvalidMentorID = apperr.Validation("VALIDATION_ERROR", "mentorId is required and must be a valid id")

type AppointmentHandler struct {
	svc appointment.Service
}

func NewAppointmentHandler(svc appointment.Service) *AppointmentHandler {
	return &AppointmentHandler{svc: svc}
}

type createAppointmentBody struct {
	MentorID string  `json:"mentorId"`
	StartsAt string  `json:"startsAt"`
	EndsAt   string  `json:"endsAt"`
	Title    *string `json:"title"`
	Notes    *string `json:"notes"`
}

func parseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, nil
	}
	// date-time without zone is read as UTC
	return time.Parse("2006-01-02T15:04:05", s)
}

// POST /appointments
func (h *AppointmentHandler) Create(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var body createAppointmentBody
	if err := bindJSON(c, &body); err != nil {
		return err
	}

	mentorID, err := uuid.Parse(strings.TrimSpace(body.MentorID))
	if err != nil {
		return ErrInvalidMentorID
	}
	startsAt, err := parseTimestamp(body.StartsAt)
	if err != nil {
		return appointment.ErrInvalidTimes
	}
	endsAt, err := parseTimestamp(body.EndsAt)
	if err != nil {
		return appointment.ErrInvalidTimes
	}

	appt, err := h.svc.Create(c.Context(), actor, appointment.CreateRequest{
		MentorID: mentorID,
		StartsAt: startsAt,
		EndsAt:   endsAt,
		Title:    body.Title,
		Notes:    body.Notes,
	})
	if err != nil {
		return err
	}
	return created(c, appt)
}

// GET /appointments, /appointments/my
func (h *AppointmentHandler) List(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}

	var q struct {
		Status string `query:"status"`
		Page   int    `query:"page"`
		Limit  int    `query:"limit"`
	}
	if err := c.Bind().Query(&q); err != nil {
		return apperr.Validation("VALIDATION_ERROR", "page and limit must be integers")
	}

	res, err := h.svc.List(c.Context(), actor, appointment.ListRequest{
		Status: q.Status,
		Page:   q.Page,
		Limit:  q.Limit,
	})
	if err != nil {
		return err
	}
	return page(c, res.Items, res.Meta)
}

// GET /appointments/:id
func (h *AppointmentHandler) Get(c fiber.Ctx) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	appt, err := h.svc.Get(c.Context(), actor, id)
	if err != nil {
		return err
	}
	return ok(c, appt)
}

// PATCH|PUT /appointments/:id/confirm
func (h *AppointmentHandler) Confirm(c fiber.Ctx) error {
	return h.transition(c, func(actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
		return h.svc.Confirm(c.Context(), actor, id)
	})
}

// PATCH|PUT /appointments/:id/cancel
func (h *AppointmentHandler) Cancel(c fiber.Ctx) error {
	var body struct {
		Reason *string `json:"reason"`
	}
	if err := bindJSON(c, &body); err != nil {
		return err
	}
	return h.transition(c, func(actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
		return h.svc.Cancel(c.Context(), actor, id, appointment.CancelRequest{Reason: body.Reason})
	})
}

// PATCH|PUT /appointments/:id/complete
func (h *AppointmentHandler) Complete(c fiber.Ctx) error {
	return h.transition(c, func(actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
		return h.svc.Complete(c.Context(), actor, id)
	})
}

// PUT /appointments/:id/meeting
func (h *AppointmentHandler) AttachMeeting(c fiber.Ctx) error {
	var m repo.Meeting
	if err := bindJSON(c, &m); err != nil {
		return err
	}
	return h.transition(c, func(actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
		return h.svc.AttachMeeting(c.Context(), actor, id, m)
	})
}

func (h *AppointmentHandler) transition(c fiber.Ctx, do func(repo.Actor, uuid.UUID) (*repo.Appointment, error)) error {
	actor, err := actorOf(c)
	if err != nil {
		return err
	}
	id, err := uuidParam(c, "id")
	if err != nil {
		return err
	}

	appt, err := do(actor, id)
	if err != nil {
		return err
	}
	return ok(c, appt)
}
