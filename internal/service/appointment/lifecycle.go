package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

// Event subjects, relative to events.Prefix.
const (
	EventCreated   = "appointment.created"
	EventConfirmed = "appointment.confirmed"
	EventCancelled = "appointment.cancelled"
	EventCompleted = "appointment.completed"
	EventMeeting   = "appointment.meeting_attached"
)

const maxTransitionAttempts = 4

// Event is the payload published for every lifecycle change.
type Event struct {
	AppointmentID uuid.UUID   `json:"appointmentId"`
	StudentID     uuid.UUID   `json:"studentId"`
	MentorID      uuid.UUID   `json:"mentorId"`
	Status        repo.Status `json:"status"`
	ActorID       uuid.UUID   `json:"actorId"`
	ActorRole     string      `json:"actorRole"`
	StartsAt      string      `json:"startsAt"`
	EndsAt        string      `json:"endsAt"`
}

// decideFunc inspects the current record and returns the target status.
// changed=false means the record is already where the caller wants it.
type decideFunc func(a *repo.Appointment) (to repo.Status, changed bool, err error)

// transition applies a status change with compare-and-swap. A lost race
// re-reads the record and decides again, so the loser sees the rejection
// that matches the winner's outcome.
func (s *appointmentService) transition(ctx context.Context, actor repo.Actor, id uuid.UUID, reason *string, decide decideFunc) (*repo.Appointment, bool, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	appts := s.store.Appointments()
	for range maxTransitionAttempts {
		cur, err := s.load(ctx, s.store, id)
		if err != nil {
			return nil, false, err
		}

		to, changed, err := decide(cur)
		if err != nil {
			return nil, false, err
		}
		if !changed {
			hostView(actor, cur)
			return cur, false, s.attachSummaries(ctx, s.store, cur)
		}

		next, err := appts.UpdateStatus(ctx, repo.StatusChange{
			ID:     id,
			From:   cur.Status,
			To:     to,
			At:     s.now().UTC(),
			By:     actor.ID,
			Reason: reason,
		})
		switch {
		case errors.Is(err, repo.ErrStaleStatus):
			slog.DebugContext(ctx, "appointment status changed underneath, retrying",
				"appointment_id", id, "from", cur.Status, "to", to)
			continue
		case errors.Is(err, repo.ErrNotFound):
			return nil, false, ErrNotFound
		case err != nil:
			slog.ErrorContext(ctx, "update appointment status", "appointment_id", id, "error", err)
			return nil, false, fmt.Errorf("update appointment status: %w", err)
		}

		if err := s.attachSummaries(ctx, s.store, next); err != nil {
			return nil, false, err
		}
		hostView(actor, next)
		return next, true, nil
	}
	return nil, false, ErrConcurrentUpdate
}

// mentorOrAdmin gates actions reserved for the appointment's mentor.
func (s *appointmentService) mentorOrAdmin(ctx context.Context, actor repo.Actor, a *repo.Appointment, action authorize.Action) error {
	if !s.can(ctx, actor, action) {
		return ErrNotMentorParty
	}
	if actor.Role == authorize.RoleAdmin || (actor.Role == authorize.RoleMentor && a.MentorID == actor.ID) {
		return nil
	}
	return ErrNotMentorParty
}

func (s *appointmentService) Confirm(ctx context.Context, actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
	a, changed, err := s.transition(ctx, actor, id, nil, func(a *repo.Appointment) (repo.Status, bool, error) {
		if err := s.mentorOrAdmin(ctx, actor, a, authorize.ActionConfirm); err != nil {
			return "", false, err
		}
		if a.Status != repo.StatusPending {
			return "", false, ErrOnlyPendingConfirm
		}
		return repo.StatusConfirmed, true, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		slog.InfoContext(ctx, "appointment confirmed", "appointment_id", a.ID, "actor_id", actor.ID)
		s.publish(ctx, EventConfirmed, a, actor)
	}
	return a, nil
}

func (s *appointmentService) Cancel(ctx context.Context, actor repo.Actor, id uuid.UUID, req CancelRequest) (*repo.Appointment, error) {
	a, changed, err := s.transition(ctx, actor, id, trimmed(req.Reason), func(a *repo.Appointment) (repo.Status, bool, error) {
		if !s.can(ctx, actor, authorize.ActionCancel) {
			return "", false, ErrCannotCancel
		}
		if actor.Role != authorize.RoleAdmin && !a.HasParticipant(actor.ID) {
			return "", false, ErrCannotCancel
		}
		if a.Status.Terminal() {
			return "", false, ErrAlreadyFinalised
		}
		return repo.StatusCancelled, true, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		slog.InfoContext(ctx, "appointment cancelled", "appointment_id", a.ID, "actor_id", actor.ID)
		s.publish(ctx, EventCancelled, a, actor)
	}
	return a, nil
}

func (s *appointmentService) Complete(ctx context.Context, actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
	a, changed, err := s.transition(ctx, actor, id, nil, func(a *repo.Appointment) (repo.Status, bool, error) {
		if err := s.mentorOrAdmin(ctx, actor, a, authorize.ActionComplete); err != nil {
			return "", false, err
		}
		switch a.Status {
		case repo.StatusCancelled:
			return "", false, ErrCancelledCannotComplete
		case repo.StatusCompleted:
			return a.Status, false, nil
		case repo.StatusPending:
			if !s.cfg.AllowCompleteFromPending {
				return "", false, ErrOnlyConfirmedComplete
			}
		}
		return repo.StatusCompleted, true, nil
	})
	if err != nil {
		return nil, err
	}
	if changed {
		slog.InfoContext(ctx, "appointment completed", "appointment_id", a.ID, "actor_id", actor.ID)
		s.publish(ctx, EventCompleted, a, actor)
	}
	return a, nil
}

func (s *appointmentService) AttachMeeting(ctx context.Context, actor repo.Actor, id uuid.UUID, m repo.Meeting) (*repo.Appointment, error) {
	m.ID = strings.TrimSpace(m.ID)
	m.JoinURL = strings.TrimSpace(m.JoinURL)
	m.StartURL = strings.TrimSpace(m.StartURL)
	if m.ID == "" || m.JoinURL == "" {
		return nil, ErrInvalidMeeting
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	cur, err := s.load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if err := s.mentorOrAdmin(ctx, actor, cur, authorize.ActionUpdate); err != nil {
		return nil, err
	}
	if !cur.Status.Active() {
		return nil, ErrNotActive
	}

	a, err := s.store.Appointments().SetMeeting(ctx, id, m, s.now().UTC())
	switch {
	case errors.Is(err, repo.ErrStaleStatus):
		return nil, ErrNotActive
	case errors.Is(err, repo.ErrNotFound):
		return nil, ErrNotFound
	case err != nil:
		return nil, fmt.Errorf("set meeting: %w", err)
	}
	if err := s.attachSummaries(ctx, s.store, a); err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "appointment meeting attached", "appointment_id", a.ID, "meeting_id", m.ID)
	s.publish(ctx, EventMeeting, a, actor)
	return a, nil
}

// publish runs after commit. Delivery failures never undo a transition.
func (s *appointmentService) publish(ctx context.Context, subject string, a *repo.Appointment, actor repo.Actor) {
	ev := Event{
		AppointmentID: a.ID,
		StudentID:     a.StudentID,
		MentorID:      a.MentorID,
		Status:        a.Status,
		ActorID:       actor.ID,
		ActorRole:     actor.Role.String(),
		StartsAt:      a.StartsAt.UTC().Format(time.RFC3339),
		EndsAt:        a.EndsAt.UTC().Format(time.RFC3339),
	}
	if err := s.events.Publish(ctx, subject, ev); err != nil {
		slog.WarnContext(ctx, "publish appointment event", "subject", subject, "appointment_id", a.ID, "error", err)
	}
}
