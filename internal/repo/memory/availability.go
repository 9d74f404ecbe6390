package memory

import (
	"cmp"
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

type availabilityRepo struct{ g guard }

func (r *availabilityRepo) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*repo.MentorProfile, error) {
	var out *repo.MentorProfile
	err := r.g.read(func(d *state, _ time.Time) error {
		id, ok := d.profileByUser[userID]
		if !ok {
			return repo.ErrNotFound
		}
		cp := *d.profiles[id]
		out = &cp
		return nil
	})
	return out, err
}

func (r *availabilityRepo) EnsureProfile(ctx context.Context, userID uuid.UUID) (*repo.MentorProfile, error) {
	var out *repo.MentorProfile
	err := r.g.write(func(d *state, now time.Time) error {
		if id, ok := d.profileByUser[userID]; ok {
			cp := *d.profiles[id]
			out = &cp
			return nil
		}
		if _, ok := d.users[userID]; !ok {
			return repo.ErrNotFound
		}
		p := &repo.MentorProfile{ID: uuid.Must(uuid.NewV7()), UserID: userID, CreatedAt: now}
		d.profiles[p.ID] = p
		d.profileByUser[userID] = p.ID
		cp := *p
		out = &cp
		return nil
	})
	return out, err
}

func (r *availabilityRepo) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*repo.AvailabilitySlot, error) {
	var out []*repo.AvailabilitySlot
	err := r.g.read(func(d *state, _ time.Time) error {
		for _, s := range d.slots {
			if s.MentorProfileID == profileID {
				cp := *s
				out = append(out, &cp)
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *repo.AvailabilitySlot) int {
		return cmp.Or(
			cmp.Compare(a.DayOfWeek, b.DayOfWeek),
			cmp.Compare(a.StartTime, b.StartTime),
			cmp.Compare(a.EndTime, b.EndTime),
		)
	})
	return out, err
}

func (r *availabilityRepo) GetSlot(ctx context.Context, id uuid.UUID) (*repo.AvailabilitySlot, error) {
	var out *repo.AvailabilitySlot
	err := r.g.read(func(d *state, _ time.Time) error {
		s, ok := d.slots[id]
		if !ok {
			return repo.ErrNotFound
		}
		cp := *s
		out = &cp
		return nil
	})
	return out, err
}

func (r *availabilityRepo) InsertSlots(ctx context.Context, slots []*repo.AvailabilitySlot) error {
	return r.g.write(func(d *state, now time.Time) error {
		for _, s := range slots {
			if _, ok := d.profiles[s.MentorProfileID]; !ok {
				return repo.ErrNotFound
			}
		}
		for _, s := range slots {
			if s.ID == uuid.Nil {
				s.ID = uuid.Must(uuid.NewV7())
			}
			s.CreatedAt, s.UpdatedAt = now, now
			cp := *s
			d.slots[s.ID] = &cp
		}
		return nil
	})
}

func (r *availabilityRepo) UpdateSlot(ctx context.Context, slot *repo.AvailabilitySlot) error {
	return r.g.write(func(d *state, now time.Time) error {
		cur, ok := d.slots[slot.ID]
		if !ok {
			return repo.ErrNotFound
		}
		cp := *cur
		cp.DayOfWeek, cp.StartTime, cp.EndTime = slot.DayOfWeek, slot.StartTime, slot.EndTime
		cp.UpdatedAt = now
		d.slots[slot.ID] = &cp
		*slot = cp
		return nil
	})
}

func (r *availabilityRepo) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	return r.g.write(func(d *state, _ time.Time) error {
		if _, ok := d.slots[id]; !ok {
			return repo.ErrNotFound
		}
		delete(d.slots, id)
		return nil
	})
}

func (r *availabilityRepo) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	return r.g.write(func(d *state, _ time.Time) error {
		for id, s := range d.slots {
			if s.MentorProfileID == profileID {
				delete(d.slots, id)
			}
		}
		return nil
	})
}
