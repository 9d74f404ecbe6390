package memory

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

type appointmentRepo struct{ g guard }

func clone(a *repo.Appointment) *repo.Appointment {
	cp := *a
	if a.Meeting != nil {
		m := *a.Meeting
		cp.Meeting = &m
	}
	cp.Student, cp.Mentor = nil, nil
	return &cp
}

func overlaps(a *repo.Appointment, start, end time.Time) bool {
	return a.StartsAt.Before(end) && start.Before(a.EndsAt)
}

func (r *appointmentRepo) Create(ctx context.Context, a *repo.Appointment) error {
	return r.g.write(func(d *state, now time.Time) error {
		if a.Status.Active() {
			for _, x := range d.appointments {
				if !x.Status.Active() || !overlaps(x, a.StartsAt, a.EndsAt) {
					continue
				}
				if x.MentorID == a.MentorID {
					return repo.ErrMentorOverlap
				}
				if x.StudentID == a.StudentID {
					return repo.ErrStudentOverlap
				}
			}
		}
		if a.ID == uuid.Nil {
			a.ID = uuid.Must(uuid.NewV7())
		}
		a.CreatedAt, a.UpdatedAt = now, now
		d.appointments[a.ID] = clone(a)
		return nil
	})
}

func (r *appointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*repo.Appointment, error) {
	var out *repo.Appointment
	err := r.g.read(func(d *state, _ time.Time) error {
		a, ok := d.appointments[id]
		if !ok {
			return repo.ErrNotFound
		}
		out = clone(a)
		return nil
	})
	return out, err
}

func matches(a *repo.Appointment, f repo.AppointmentFilter) bool {
	if f.StudentID != nil && a.StudentID != *f.StudentID {
		return false
	}
	if f.MentorID != nil && a.MentorID != *f.MentorID {
		return false
	}
	if f.Status != nil && a.Status != *f.Status {
		return false
	}
	return true
}

func (r *appointmentRepo) filtered(f repo.AppointmentFilter) ([]*repo.Appointment, error) {
	var out []*repo.Appointment
	err := r.g.read(func(d *state, _ time.Time) error {
		for _, a := range d.appointments {
			if matches(a, f) {
				out = append(out, clone(a))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *repo.Appointment) int {
		if c := a.StartsAt.Compare(b.StartsAt); c != 0 {
			return c
		}
		return slices.Compare(a.ID[:], b.ID[:])
	})
	return out, err
}

func (r *appointmentRepo) List(ctx context.Context, f repo.AppointmentFilter) ([]*repo.Appointment, error) {
	all, err := r.filtered(f)
	if err != nil {
		return nil, err
	}
	if f.Offset >= len(all) {
		return []*repo.Appointment{}, nil
	}
	all = all[f.Offset:]
	if f.Limit > 0 && f.Limit < len(all) {
		all = all[:f.Limit]
	}
	return all, nil
}

func (r *appointmentRepo) Count(ctx context.Context, f repo.AppointmentFilter) (int, error) {
	n := 0
	err := r.g.read(func(d *state, _ time.Time) error {
		for _, a := range d.appointments {
			if matches(a, f) {
				n++
			}
		}
		return nil
	})
	return n, err
}

func (r *appointmentRepo) FindOverlapping(ctx context.Context, party repo.Party, partyID uuid.UUID, startsAt, endsAt time.Time) ([]*repo.Appointment, error) {
	var out []*repo.Appointment
	err := r.g.read(func(d *state, _ time.Time) error {
		for _, a := range d.appointments {
			if !a.Status.Active() || !overlaps(a, startsAt, endsAt) {
				continue
			}
			if (party == repo.PartyMentor && a.MentorID == partyID) ||
				(party == repo.PartyStudent && a.StudentID == partyID) {
				out = append(out, clone(a))
			}
		}
		return nil
	})
	slices.SortFunc(out, func(a, b *repo.Appointment) int { return a.StartsAt.Compare(b.StartsAt) })
	return out, err
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, c repo.StatusChange) (*repo.Appointment, error) {
	var out *repo.Appointment
	err := r.g.write(func(d *state, _ time.Time) error {
		cur, ok := d.appointments[c.ID]
		if !ok {
			return repo.ErrNotFound
		}
		if cur.Status != c.From {
			return repo.ErrStaleStatus
		}
		next := clone(cur)
		next.Status = c.To
		next.UpdatedAt = c.At
		switch c.To {
		case repo.StatusCancelled:
			at, by := c.At, c.By
			next.CancelledAt, next.CancelledBy = &at, &by
			next.CancelNote = c.Reason
		case repo.StatusCompleted:
			at := c.At
			next.CompletedAt = &at
		}
		d.appointments[c.ID] = next
		out = clone(next)
		return nil
	})
	return out, err
}

func (r *appointmentRepo) SetMeeting(ctx context.Context, id uuid.UUID, m repo.Meeting, at time.Time) (*repo.Appointment, error) {
	var out *repo.Appointment
	err := r.g.write(func(d *state, _ time.Time) error {
		cur, ok := d.appointments[id]
		if !ok {
			return repo.ErrNotFound
		}
		if !cur.Status.Active() {
			return repo.ErrStaleStatus
		}
		next := clone(cur)
		next.Meeting = &m
		next.UpdatedAt = at
		d.appointments[id] = next
		out = clone(next)
		return nil
	})
	return out, err
}
