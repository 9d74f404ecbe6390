// Package postgres implements repo.Store on Postgres. Queries are built with
// ent's dialect/sql builder and run through database/sql with lib/pq.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"
	"github.com/lib/pq"
	"github.com/samber/lo"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/pkg/crypto"
)

var psql = entsql.Dialect(dialect.Postgres)

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type querier interface {
	Query() (string, []any)
}

func exec(ctx context.Context, db execer, q querier) (int64, error) {
	query, args := q.Query()
	res, err := db.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, mapError(err)
	}
	return res.RowsAffected()
}

type Store struct {
	db     *sql.DB
	sealer *crypto.Sealer
	repos
}

var _ repo.Store = (*Store)(nil)

type Option func(*Store)

// WithSealer seals meeting host links at rest.
func WithSealer(sealer *crypto.Sealer) Option {
	return func(s *Store) { s.sealer = sealer }
}

func New(db *sql.DB, opts ...Option) *Store {
	s := &Store{db: db}
	for _, o := range opts {
		o(s)
	}
	s.repos = newRepos(db, s.sealer)
	return s
}

type repos struct {
	users        *userRepo
	availability *availabilityRepo
	appointments *appointmentRepo
}

func newRepos(db execer, sealer *crypto.Sealer) repos {
	return repos{
		users:        &userRepo{db: db},
		availability: &availabilityRepo{db: db},
		appointments: &appointmentRepo{db: db, sealer: sealer},
	}
}

func (r repos) Users() repo.UserRepository                { return r.users }
func (r repos) Availability() repo.AvailabilityRepository { return r.availability }
func (r repos) Appointments() repo.AppointmentRepository  { return r.appointments }

const lockQuery = `SELECT pg_advisory_xact_lock(hashtext($1))`

func (s *Store) Tx(ctx context.Context, locks []string, fn func(r repo.Repositories) error) error {
	keys := lo.Uniq(locks)
	slices.Sort(keys)

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	for _, k := range keys {
		if _, err := tx.ExecContext(ctx, lockQuery, k); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("acquire lock %q: %w", k, err)
		}
	}

	if err := fn(newRepos(tx, s.sealer)); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil {
			return errors.Join(err, rbErr)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return mapError(err)
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }
func (s *Store) Close() error                   { return s.db.Close() }

// mapError translates driver errors into repo sentinels.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return repo.ErrNotFound
	}
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return err
	}
	switch pqErr.Code {
	case "23P01": // exclusion_violation
		switch pqErr.Constraint {
		case "appointments_mentor_no_overlap":
			return repo.ErrMentorOverlap
		case "appointments_student_no_overlap":
			return repo.ErrStudentOverlap
		}
	case "23505": // unique_violation
		return fmt.Errorf("%w: %s", repo.ErrDuplicate, pqErr.Constraint)
	case "23503": // foreign_key_violation
		return fmt.Errorf("%w: %s", repo.ErrNotFound, pqErr.Constraint)
	}
	return err
}
