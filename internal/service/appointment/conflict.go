package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

// Overlaps reports whether [a1, a2) and [b1, b2) share an instant.
// Touching endpoints do not overlap.
func Overlaps(a1, a2, b1, b2 time.Time) bool {
	return a1.Before(b2) && b1.Before(a2)
}

// FindOverlapping returns the party's active appointments that overlap
// [startsAt, endsAt).
func FindOverlapping(ctx context.Context, appts repo.AppointmentRepository, partyID uuid.UUID, party repo.Party, startsAt, endsAt time.Time) ([]*repo.Appointment, error) {
	found, err := appts.FindOverlapping(ctx, party, partyID, startsAt, endsAt)
	if err != nil {
		return nil, fmt.Errorf("find overlapping %s appointments: %w", party, err)
	}
	out := found[:0]
	for _, a := range found {
		if a.Status.Active() && Overlaps(a.StartsAt, a.EndsAt, startsAt, endsAt) {
			out = append(out, a)
		}
	}
	return out, nil
}

// checkConflicts runs the detector for the mentor, then for the student.
func checkConflicts(ctx context.Context, appts repo.AppointmentRepository, mentorID, studentID uuid.UUID, startsAt, endsAt time.Time) error {
	busy, err := FindOverlapping(ctx, appts, mentorID, repo.PartyMentor, startsAt, endsAt)
	if err != nil {
		return err
	}
	if len(busy) > 0 {
		return ErrMentorBusy
	}

	busy, err = FindOverlapping(ctx, appts, studentID, repo.PartyStudent, startsAt, endsAt)
	if err != nil {
		return err
	}
	if len(busy) > 0 {
		return ErrStudentBusy
	}
	return nil
}

// mapOverlap turns a storage-level overlap rejection into the domain error.
func mapOverlap(err error) error {
	switch {
	case errors.Is(err, repo.ErrMentorOverlap):
		return ErrMentorBusy
	case errors.Is(err, repo.ErrStudentOverlap):
		return ErrStudentBusy
	}
	return err
}
