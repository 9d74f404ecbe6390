package postgres

import (
	"context"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

const (
	profilesTable = "mentor_profiles"
	slotsTable    = "availability_slots"
)

var slotColumns = []string{"id", "mentor_profile_id", "day_of_week", "start_minute", "end_minute", "created_at", "updated_at"}

type availabilityRepo struct{ db execer }

func (r *availabilityRepo) GetProfileByUser(ctx context.Context, userID uuid.UUID) (*repo.MentorProfile, error) {
	query, args := psql.Select("id", "user_id", "created_at").
		From(psql.Table(profilesTable)).
		Where(entsql.EQ("user_id", userID)).
		Query()

	var p repo.MentorProfile
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&p.ID, &p.UserID, &p.CreatedAt); err != nil {
		return nil, mapError(err)
	}
	return &p, nil
}

// EnsureProfile inserts with ON CONFLICT DO NOTHING and then reads back, so
// concurrent callers converge on a single row.
func (r *availabilityRepo) EnsureProfile(ctx context.Context, userID uuid.UUID) (*repo.MentorProfile, error) {
	q := psql.Insert(profilesTable).
		Columns("id", "user_id", "created_at").
		Values(uuid.Must(uuid.NewV7()), userID, time.Now().UTC()).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing())
	if _, err := exec(ctx, r.db, q); err != nil {
		return nil, fmt.Errorf("insert mentor profile: %w", err)
	}
	return r.GetProfileByUser(ctx, userID)
}

func (r *availabilityRepo) ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*repo.AvailabilitySlot, error) {
	query, args := psql.Select(slotColumns...).
		From(psql.Table(slotsTable)).
		Where(entsql.EQ("mentor_profile_id", profileID)).
		OrderBy("day_of_week", "start_minute", "end_minute").
		Query()

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	var out []*repo.AvailabilitySlot
	for rows.Next() {
		s, err := scanSlot(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *availabilityRepo) GetSlot(ctx context.Context, id uuid.UUID) (*repo.AvailabilitySlot, error) {
	query, args := psql.Select(slotColumns...).
		From(psql.Table(slotsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	s, err := scanSlot(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return s, nil
}

func (r *availabilityRepo) InsertSlots(ctx context.Context, slots []*repo.AvailabilitySlot) error {
	if len(slots) == 0 {
		return nil
	}
	now := time.Now().UTC()
	q := psql.Insert(slotsTable).Columns(slotColumns...)
	for _, s := range slots {
		if s.ID == uuid.Nil {
			s.ID = uuid.Must(uuid.NewV7())
		}
		s.CreatedAt, s.UpdatedAt = now, now
		q.Values(s.ID, s.MentorProfileID, s.DayOfWeek, int(s.StartTime), int(s.EndTime), s.CreatedAt, s.UpdatedAt)
	}
	if _, err := exec(ctx, r.db, q); err != nil {
		return fmt.Errorf("insert availability slots: %w", err)
	}
	return nil
}

func (r *availabilityRepo) UpdateSlot(ctx context.Context, slot *repo.AvailabilitySlot) error {
	slot.UpdatedAt = time.Now().UTC()
	q := psql.Update(slotsTable).
		Set("day_of_week", slot.DayOfWeek).
		Set("start_minute", int(slot.StartTime)).
		Set("end_minute", int(slot.EndTime)).
		Set("updated_at", slot.UpdatedAt).
		Where(entsql.EQ("id", slot.ID))
	n, err := exec(ctx, r.db, q)
	if err != nil {
		return fmt.Errorf("update availability slot: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *availabilityRepo) DeleteSlot(ctx context.Context, id uuid.UUID) error {
	n, err := exec(ctx, r.db, psql.Delete(slotsTable).Where(entsql.EQ("id", id)))
	if err != nil {
		return fmt.Errorf("delete availability slot: %w", err)
	}
	if n == 0 {
		return repo.ErrNotFound
	}
	return nil
}

func (r *availabilityRepo) DeleteByProfile(ctx context.Context, profileID uuid.UUID) error {
	if _, err := exec(ctx, r.db, psql.Delete(slotsTable).Where(entsql.EQ("mentor_profile_id", profileID))); err != nil {
		return fmt.Errorf("clear availability: %w", err)
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSlot(row scanner) (*repo.AvailabilitySlot, error) {
	var (
		s          repo.AvailabilitySlot
		start, end int
	)
	if err := row.Scan(&s.ID, &s.MentorProfileID, &s.DayOfWeek, &start, &end, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	s.StartTime, s.EndTime = repo.TimeOfDay(start), repo.TimeOfDay(end)
	return &s, nil
}
