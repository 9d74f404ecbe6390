package availability

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/apperr"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

// SlotInput is one weekly window as submitted by a mentor.
type SlotInput struct {
	DayOfWeek *int   `json:"dayOfWeek"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

// SlotPatch replaces only the fields that are set.
type SlotPatch struct {
	DayOfWeek *int    `json:"dayOfWeek"`
	StartTime *string `json:"startTime"`
	EndTime   *string `json:"endTime"`
}

func (p SlotPatch) Empty() bool {
	return p.DayOfWeek == nil && p.StartTime == nil && p.EndTime == nil
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	// ListForMentor is public. Unknown and non-mentor ids yield an empty list.
	ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]*repo.AvailabilitySlot, error)

	Add(ctx context.Context, actor repo.Actor, slots []SlotInput) ([]*repo.AvailabilitySlot, error)
	Update(ctx context.Context, actor repo.Actor, slotID uuid.UUID, patch SlotPatch) (*repo.AvailabilitySlot, error)
	Delete(ctx context.Context, actor repo.Actor, slotID uuid.UUID) error
	Replace(ctx context.Context, actor repo.Actor, slots []SlotInput) ([]*repo.AvailabilitySlot, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type availabilityService struct {
	store   repo.Store
	authz   authorize.IAuthorization
	cache   Cache
	timeout time.Duration
}

func New(store repo.Store, authz authorize.IAuthorization, cache Cache, timeout time.Duration) Service {
	if cache == nil {
		cache = NopCache{}
	}
	return &availabilityService{store: store, authz: authz, cache: cache, timeout: timeout}
}

func (s *availabilityService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.timeout)
}

func (s *availabilityService) requireMentor(ctx context.Context, actor repo.Actor, action authorize.Action) error {
	if actor.Role != authorize.RoleMentor {
		return ErrMentorOnly
	}
	if err := s.authz.MustEnforce(ctx, actor.Role, authorize.ResourceAvailability, action); err != nil {
		return ErrMentorOnly
	}
	return nil
}

func (s *availabilityService) ListForMentor(ctx context.Context, mentorID uuid.UUID) ([]*repo.AvailabilitySlot, error) {
	// gen is read before the store so a change committed meanwhile voids our Set
	slots, gen, ok := s.cache.Get(ctx, mentorID)
	if ok {
		return slots, nil
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	profile, err := s.store.Availability().GetProfileByUser(ctx, mentorID)
	if errors.Is(err, repo.ErrNotFound) {
		return []*repo.AvailabilitySlot{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get mentor profile: %w", err)
	}

	slots, err = s.store.Availability().ListByProfile(ctx, profile.ID)
	if err != nil {
		return nil, fmt.Errorf("list availability: %w", err)
	}
	if slots == nil {
		slots = []*repo.AvailabilitySlot{}
	}

	s.cache.Set(ctx, mentorID, gen, slots)
	return slots, nil
}

func (s *availabilityService) Add(ctx context.Context, actor repo.Actor, in []SlotInput) ([]*repo.AvailabilitySlot, error) {
	if err := s.requireMentor(ctx, actor, authorize.ActionCreate); err != nil {
		return nil, err
	}
	if len(in) == 0 {
		return nil, ErrInvalidSlots
	}
	parsed, err := validateInputs(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var out []*repo.AvailabilitySlot
	err = s.store.Tx(ctx, []string{repo.MentorLock(actor.ID)}, func(r repo.Repositories) error {
		profile, err := r.Availability().EnsureProfile(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("ensure mentor profile: %w", err)
		}
		for _, sl := range parsed {
			sl.MentorProfileID = profile.ID
		}
		if err := r.Availability().InsertSlots(ctx, parsed); err != nil {
			return err
		}
		out, err = r.Availability().ListByProfile(ctx, profile.ID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to add availability", "mentor_id", actor.ID, "error", err)
		return nil, fmt.Errorf("add availability: %w", err)
	}

	s.cache.Invalidate(ctx, actor.ID)
	slog.InfoContext(ctx, "availability added", "mentor_id", actor.ID, "added", len(parsed), "total", len(out))
	return out, nil
}

func (s *availabilityService) Update(ctx context.Context, actor repo.Actor, slotID uuid.UUID, patch SlotPatch) (*repo.AvailabilitySlot, error) {
	if err := s.requireMentor(ctx, actor, authorize.ActionUpdate); err != nil {
		return nil, err
	}
	if patch.Empty() {
		return nil, ErrNothingToUpdate
	}

	var (
		day        *int
		start, end *repo.TimeOfDay
	)
	if patch.DayOfWeek != nil {
		if !validDay(*patch.DayOfWeek) {
			return nil, ErrInvalidDay
		}
		day = patch.DayOfWeek
	}
	if patch.StartTime != nil {
		t, err := parseTime("startTime", *patch.StartTime)
		if err != nil {
			return nil, err
		}
		start = &t
	}
	if patch.EndTime != nil {
		t, err := parseTime("endTime", *patch.EndTime)
		if err != nil {
			return nil, err
		}
		end = &t
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var out *repo.AvailabilitySlot
	err := s.store.Tx(ctx, []string{repo.MentorLock(actor.ID)}, func(r repo.Repositories) error {
		slot, err := s.ownedSlot(ctx, r, actor, slotID)
		if err != nil {
			return err
		}

		if day != nil {
			slot.DayOfWeek = *day
		}
		if start != nil {
			slot.StartTime = *start
		}
		if end != nil {
			slot.EndTime = *end
		}
		if slot.StartTime >= slot.EndTime {
			return ErrInvalidRange
		}

		if err := r.Availability().UpdateSlot(ctx, slot); err != nil {
			return fmt.Errorf("update slot: %w", err)
		}
		out = slot
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, actor.ID)
	slog.InfoContext(ctx, "availability slot updated", "mentor_id", actor.ID, "slot_id", slotID)
	return out, nil
}

func (s *availabilityService) Delete(ctx context.Context, actor repo.Actor, slotID uuid.UUID) error {
	if err := s.requireMentor(ctx, actor, authorize.ActionDelete); err != nil {
		return err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	err := s.store.Tx(ctx, []string{repo.MentorLock(actor.ID)}, func(r repo.Repositories) error {
		if _, err := s.ownedSlot(ctx, r, actor, slotID); err != nil {
			return err
		}
		if err := r.Availability().DeleteSlot(ctx, slotID); err != nil {
			if errors.Is(err, repo.ErrNotFound) {
				return ErrSlotNotFound
			}
			return fmt.Errorf("delete slot: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.cache.Invalidate(ctx, actor.ID)
	slog.InfoContext(ctx, "availability slot deleted", "mentor_id", actor.ID, "slot_id", slotID)
	return nil
}

func (s *availabilityService) Replace(ctx context.Context, actor repo.Actor, in []SlotInput) ([]*repo.AvailabilitySlot, error) {
	if err := s.requireMentor(ctx, actor, authorize.ActionUpdate); err != nil {
		return nil, err
	}
	parsed, err := validateInputs(in)
	if err != nil {
		return nil, err
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	var out []*repo.AvailabilitySlot
	err = s.store.Tx(ctx, []string{repo.MentorLock(actor.ID)}, func(r repo.Repositories) error {
		profile, err := r.Availability().EnsureProfile(ctx, actor.ID)
		if err != nil {
			return fmt.Errorf("ensure mentor profile: %w", err)
		}
		if err := r.Availability().DeleteByProfile(ctx, profile.ID); err != nil {
			return err
		}
		for _, sl := range parsed {
			sl.MentorProfileID = profile.ID
		}
		if err := r.Availability().InsertSlots(ctx, parsed); err != nil {
			return err
		}
		out, err = r.Availability().ListByProfile(ctx, profile.ID)
		return err
	})
	if err != nil {
		slog.ErrorContext(ctx, "failed to replace availability", "mentor_id", actor.ID, "error", err)
		return nil, fmt.Errorf("replace availability: %w", err)
	}
	if out == nil {
		out = []*repo.AvailabilitySlot{}
	}

	s.cache.Invalidate(ctx, actor.ID)
	slog.InfoContext(ctx, "availability replaced", "mentor_id", actor.ID, "total", len(out))
	return out, nil
}

// ownedSlot loads slotID and checks it belongs to actor's mentor profile.
func (s *availabilityService) ownedSlot(ctx context.Context, r repo.Repositories, actor repo.Actor, slotID uuid.UUID) (*repo.AvailabilitySlot, error) {
	slot, err := r.Availability().GetSlot(ctx, slotID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrSlotNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get slot: %w", err)
	}

	profile, err := r.Availability().GetProfileByUser(ctx, actor.ID)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotSlotOwner
	}
	if err != nil {
		return nil, fmt.Errorf("get mentor profile: %w", err)
	}
	if slot.MentorProfileID != profile.ID {
		return nil, ErrNotSlotOwner
	}
	return slot, nil
}

// ---------------------------------------------------------------------------
// Validation
// ---------------------------------------------------------------------------

func validDay(d int) bool { return d >= 0 && d <= 6 }

func parseTime(field, v string) (repo.TimeOfDay, error) {
	if strings.TrimSpace(v) == "" {
		return 0, apperr.Wrapf(ErrInvalidTime, "%s is required", field)
	}
	t, err := repo.ParseTimeOfDay(v)
	if err != nil {
		return 0, apperr.Wrapf(ErrInvalidTime, "%s must be HH:MM between 00:00 and 23:59", field)
	}
	return t, nil
}

// validateInputs checks every entry before anything is written.
func validateInputs(in []SlotInput) ([]*repo.AvailabilitySlot, error) {
	out := make([]*repo.AvailabilitySlot, 0, len(in))
	for i, sl := range in {
		if sl.DayOfWeek == nil || !validDay(*sl.DayOfWeek) {
			return nil, apperr.Wrapf(ErrInvalidDay, "dayOfWeek must be integer 0-6 at index %d", i)
		}
		start, err := parseTime("startTime", sl.StartTime)
		if err != nil {
			return nil, apperr.Wrapf(ErrInvalidTime, "%s at index %d", err.Error(), i)
		}
		end, err := parseTime("endTime", sl.EndTime)
		if err != nil {
			return nil, apperr.Wrapf(ErrInvalidTime, "%s at index %d", err.Error(), i)
		}
		if start >= end {
			return nil, apperr.Wrapf(ErrInvalidRange, "startTime must be before endTime at index %d", i)
		}
		out = append(out, &repo.AvailabilitySlot{DayOfWeek: *sl.DayOfWeek, StartTime: start, EndTime: end})
	}
	return out, nil
}
