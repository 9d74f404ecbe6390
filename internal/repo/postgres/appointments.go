package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"
	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/crypto"
)

const appointmentsTable = "appointments"

var appointmentColumns = []string{
	"id", "student_id", "mentor_id", "starts_at", "ends_at", "status",
	"title", "notes", "meeting_id", "meeting_join_url", "meeting_start_url",
	"created_at", "updated_at", "cancelled_at", "cancelled_by", "cancel_reason", "completed_at",
}

// startURLLabel binds sealed host links to their column.
const startURLLabel = "appointments.meeting_start_url"

type appointmentRepo struct {
	db     execer
	sealer *crypto.Sealer
}

func (r *appointmentRepo) sealStartURL(v string) (sql.NullString, error) {
	if v == "" {
		return sql.NullString{}, nil
	}
	if r.sealer == nil {
		return sql.NullString{String: v, Valid: true}, nil
	}
	sealed, err := r.sealer.Seal(v, startURLLabel)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("seal meeting start url: %w", err)
	}
	return sql.NullString{String: sealed, Valid: true}, nil
}

func (r *appointmentRepo) openStartURL(v sql.NullString) (string, error) {
	if !v.Valid || r.sealer == nil {
		return v.String, nil
	}
	plain, err := r.sealer.Open(v.String, startURLLabel)
	if err != nil {
		return "", fmt.Errorf("open meeting start url: %w", err)
	}
	return plain, nil
}

func activeStatuses() []any {
	return lo.Map(repo.ActiveStatuses, func(s repo.Status, _ int) any { return string(s) })
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func (r *appointmentRepo) Create(ctx context.Context, a *repo.Appointment) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.Must(uuid.NewV7())
	}
	now := time.Now().UTC()
	a.CreatedAt, a.UpdatedAt = now, now

	var meetingID, joinURL, startURL sql.NullString
	if a.Meeting != nil {
		meetingID = sql.NullString{String: a.Meeting.ID, Valid: true}
		joinURL = sql.NullString{String: a.Meeting.JoinURL, Valid: true}
		var err error
		if startURL, err = r.sealStartURL(a.Meeting.StartURL); err != nil {
			return err
		}
	}

	q := psql.Insert(appointmentsTable).
		Columns(appointmentColumns...).
		Values(
			a.ID, a.StudentID, a.MentorID, a.StartsAt.UTC(), a.EndsAt.UTC(), string(a.Status),
			nullString(a.Title), nullString(a.Notes), meetingID, joinURL, startURL,
			a.CreatedAt, a.UpdatedAt, nil, nil, nil, nil,
		)
	if _, err := exec(ctx, r.db, q); err != nil {
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *appointmentRepo) GetByID(ctx context.Context, id uuid.UUID) (*repo.Appointment, error) {
	query, args := psql.Select(appointmentColumns...).
		From(psql.Table(appointmentsTable)).
		Where(entsql.EQ("id", id)).
		Query()

	a, err := r.scanAppointment(r.db.QueryRowContext(ctx, query, args...))
	if err != nil {
		return nil, mapError(err)
	}
	return a, nil
}

func filterPredicate(f repo.AppointmentFilter) *entsql.Predicate {
	var preds []*entsql.Predicate
	if f.StudentID != nil {
		preds = append(preds, entsql.EQ("student_id", *f.StudentID))
	}
	if f.MentorID != nil {
		preds = append(preds, entsql.EQ("mentor_id", *f.MentorID))
	}
	if f.Status != nil {
		preds = append(preds, entsql.EQ("status", string(*f.Status)))
	}
	switch len(preds) {
	case 0:
		return nil
	case 1:
		return preds[0]
	default:
		return entsql.And(preds...)
	}
}

func (r *appointmentRepo) List(ctx context.Context, f repo.AppointmentFilter) ([]*repo.Appointment, error) {
	sel := psql.Select(appointmentColumns...).
		From(psql.Table(appointmentsTable)).
		OrderBy("starts_at", "id")
	if p := filterPredicate(f); p != nil {
		sel.Where(p)
	}
	if f.Limit > 0 {
		sel.Limit(f.Limit)
	}
	if f.Offset > 0 {
		sel.Offset(f.Offset)
	}
	return r.query(ctx, sel)
}

func (r *appointmentRepo) Count(ctx context.Context, f repo.AppointmentFilter) (int, error) {
	sel := psql.Select(entsql.Count("*")).From(psql.Table(appointmentsTable))
	if p := filterPredicate(f); p != nil {
		sel.Where(p)
	}
	query, args := sel.Query()

	var n int
	if err := r.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, mapError(err)
	}
	return n, nil
}

func (r *appointmentRepo) FindOverlapping(ctx context.Context, party repo.Party, partyID uuid.UUID, startsAt, endsAt time.Time) ([]*repo.Appointment, error) {
	column := "mentor_id"
	if party == repo.PartyStudent {
		column = "student_id"
	}

	sel := psql.Select(appointmentColumns...).
		From(psql.Table(appointmentsTable)).
		Where(entsql.And(
			entsql.EQ(column, partyID),
			entsql.In("status", activeStatuses()...),
			entsql.LT("starts_at", endsAt.UTC()),
			entsql.GT("ends_at", startsAt.UTC()),
		)).
		OrderBy("starts_at")
	return r.query(ctx, sel)
}

func (r *appointmentRepo) UpdateStatus(ctx context.Context, c repo.StatusChange) (*repo.Appointment, error) {
	q := psql.Update(appointmentsTable).
		Set("status", string(c.To)).
		Set("updated_at", c.At.UTC()).
		Where(entsql.And(
			entsql.EQ("id", c.ID),
			entsql.EQ("status", string(c.From)),
		))
	switch c.To {
	case repo.StatusCancelled:
		q.Set("cancelled_at", c.At.UTC()).
			Set("cancelled_by", c.By).
			Set("cancel_reason", nullString(c.Reason))
	case repo.StatusCompleted:
		q.Set("completed_at", c.At.UTC())
	}

	n, err := exec(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("update appointment status: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, c.ID); err != nil {
			return nil, err
		}
		return nil, repo.ErrStaleStatus
	}
	return r.GetByID(ctx, c.ID)
}

func (r *appointmentRepo) SetMeeting(ctx context.Context, id uuid.UUID, m repo.Meeting, at time.Time) (*repo.Appointment, error) {
	startURL, err := r.sealStartURL(m.StartURL)
	if err != nil {
		return nil, err
	}

	q := psql.Update(appointmentsTable).
		Set("meeting_id", m.ID).
		Set("meeting_join_url", m.JoinURL).
		Set("meeting_start_url", startURL).
		Set("updated_at", at.UTC()).
		Where(entsql.And(
			entsql.EQ("id", id),
			entsql.In("status", activeStatuses()...),
		))

	n, err := exec(ctx, r.db, q)
	if err != nil {
		return nil, fmt.Errorf("set appointment meeting: %w", err)
	}
	if n == 0 {
		if _, err := r.GetByID(ctx, id); err != nil {
			return nil, err
		}
		return nil, repo.ErrStaleStatus
	}
	return r.GetByID(ctx, id)
}

func (r *appointmentRepo) query(ctx context.Context, sel *entsql.Selector) ([]*repo.Appointment, error) {
	query, args := sel.Query()
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, mapError(err)
	}
	defer rows.Close()

	out := []*repo.Appointment{}
	for rows.Next() {
		a, err := r.scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *appointmentRepo) scanAppointment(row scanner) (*repo.Appointment, error) {
	var (
		a                            repo.Appointment
		title, notes, cancelNote     sql.NullString
		meetingID, joinURL, startURL sql.NullString
		cancelledAt, completedAt     sql.NullTime
		cancelledBy                  uuid.NullUUID
	)
	err := row.Scan(
		&a.ID, &a.StudentID, &a.MentorID, &a.StartsAt, &a.EndsAt, &a.Status,
		&title, &notes, &meetingID, &joinURL, &startURL,
		&a.CreatedAt, &a.UpdatedAt, &cancelledAt, &cancelledBy, &cancelNote, &completedAt,
	)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		a.Title = &title.String
	}
	if notes.Valid {
		a.Notes = &notes.String
	}
	if meetingID.Valid {
		start, err := r.openStartURL(startURL)
		if err != nil {
			return nil, err
		}
		a.Meeting = &repo.Meeting{ID: meetingID.String, JoinURL: joinURL.String, StartURL: start}
	}
	if cancelledAt.Valid {
		a.CancelledAt = &cancelledAt.Time
	}
	if cancelledBy.Valid {
		a.CancelledBy = &cancelledBy.UUID
	}
	if cancelNote.Valid {
		a.CancelNote = &cancelNote.String
	}
	if completedAt.Valid {
		a.CompletedAt = &completedAt.Time
	}
	return &a, nil
}
