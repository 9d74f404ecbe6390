// Package memory is an in-process repo.Store. It backs the "memory" database
// driver and the service tests.
package memory

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

type state struct {
	users         map[uuid.UUID]*repo.User
	emails        map[string]uuid.UUID
	profiles      map[uuid.UUID]*repo.MentorProfile
	profileByUser map[uuid.UUID]uuid.UUID
	slots         map[uuid.UUID]*repo.AvailabilitySlot
	appointments  map[uuid.UUID]*repo.Appointment
}

func newState() *state {
	return &state{
		users:         map[uuid.UUID]*repo.User{},
		emails:        map[string]uuid.UUID{},
		profiles:      map[uuid.UUID]*repo.MentorProfile{},
		profileByUser: map[uuid.UUID]uuid.UUID{},
		slots:         map[uuid.UUID]*repo.AvailabilitySlot{},
		appointments:  map[uuid.UUID]*repo.Appointment{},
	}
}

// clone copies the maps. Records are never mutated in place, so sharing the
// pointers is enough to restore the state on rollback.
func (s *state) clone() *state {
	return &state{
		users:         maps.Clone(s.users),
		emails:        maps.Clone(s.emails),
		profiles:      maps.Clone(s.profiles),
		profileByUser: maps.Clone(s.profileByUser),
		slots:         maps.Clone(s.slots),
		appointments:  maps.Clone(s.appointments),
	}
}

// Store keeps everything in maps guarded by one RWMutex. Plain repository
// calls lock per call; Tx holds the write lock for the whole callback, so
// transactions are serializable.
type Store struct {
	mu    sync.RWMutex
	data  *state
	clock func() time.Time

	users        *userRepo
	availability *availabilityRepo
	appointments *appointmentRepo
}

var _ repo.Store = (*Store)(nil)

type Option func(*Store)

// WithClock overrides the timestamp source used for CreatedAt/UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.clock = now }
}

func New(opts ...Option) *Store {
	s := &Store{data: newState(), clock: time.Now}
	for _, o := range opts {
		o(s)
	}
	g := lockedGuard{s}
	s.users = &userRepo{g: g}
	s.availability = &availabilityRepo{g: g}
	s.appointments = &appointmentRepo{g: g}
	return s
}

func (s *Store) Users() repo.UserRepository                { return s.users }
func (s *Store) Availability() repo.AvailabilityRepository { return s.availability }
func (s *Store) Appointments() repo.AppointmentRepository  { return s.appointments }

// Tx holds the store write lock for the whole of fn, which covers any lock
// keys a caller could ask for, and restores the previous state if fn fails.
func (s *Store) Tx(ctx context.Context, _ []string, fn func(r repo.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	backup := s.data.clone()
	g := txGuard{s}
	tx := txRepos{
		users:        &userRepo{g: g},
		availability: &availabilityRepo{g: g},
		appointments: &appointmentRepo{g: g},
	}
	if err := fn(tx); err != nil {
		s.data = backup
		return err
	}
	return nil
}

func (s *Store) Ping(ctx context.Context) error { return ctx.Err() }
func (s *Store) Close() error                   { return nil }

// guard hands repositories the state under the right lock.
type guard interface {
	read(fn func(d *state, now time.Time) error) error
	write(fn func(d *state, now time.Time) error) error
}

type lockedGuard struct{ s *Store }

func (g lockedGuard) read(fn func(d *state, now time.Time) error) error {
	g.s.mu.RLock()
	defer g.s.mu.RUnlock()
	return fn(g.s.data, g.s.clock().UTC())
}

func (g lockedGuard) write(fn func(d *state, now time.Time) error) error {
	g.s.mu.Lock()
	defer g.s.mu.Unlock()
	return fn(g.s.data, g.s.clock().UTC())
}

// txGuard runs with Store.mu already held by Tx.
type txGuard struct{ s *Store }

func (g txGuard) read(fn func(d *state, now time.Time) error) error {
	return fn(g.s.data, g.s.clock().UTC())
}

func (g txGuard) write(fn func(d *state, now time.Time) error) error {
	return fn(g.s.data, g.s.clock().UTC())
}

type txRepos struct {
	users        *userRepo
	availability *availabilityRepo
	appointments *appointmentRepo
}

func (t txRepos) Users() repo.UserRepository                { return t.users }
func (t txRepos) Availability() repo.AvailabilityRepository { return t.availability }
func (t txRepos) Appointments() repo.AppointmentRepository  { return t.appointments }
