package repo

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("record already exists")

	// ErrStaleStatus is returned by a status compare-and-swap whose expected
	// status no longer matches the stored one.
	ErrStaleStatus = errors.New("appointment status changed concurrently")

	// ErrMentorOverlap and ErrStudentOverlap are raised by the storage layer
	// itself when an insert would double-book a party.
	ErrMentorOverlap  = errors.New("mentor has an overlapping active appointment")
	ErrStudentOverlap = errors.New("student has an overlapping active appointment")
)

type UserRepository interface {
	Create(ctx context.Context, u *User) error
	GetByID(ctx context.Context, id uuid.UUID) (*User, error)
	// Summaries returns the summaries of the users that exist among ids.
	Summaries(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]UserSummary, error)
}

type AvailabilityRepository interface {
	GetProfileByUser(ctx context.Context, userID uuid.UUID) (*MentorProfile, error)
	// EnsureProfile returns the user's mentor profile, creating it if needed.
	EnsureProfile(ctx context.Context, userID uuid.UUID) (*MentorProfile, error)

	// ListByProfile is ordered by day of week, then start time.
	ListByProfile(ctx context.Context, profileID uuid.UUID) ([]*AvailabilitySlot, error)
	GetSlot(ctx context.Context, id uuid.UUID) (*AvailabilitySlot, error)
	InsertSlots(ctx context.Context, slots []*AvailabilitySlot) error
	UpdateSlot(ctx context.Context, slot *AvailabilitySlot) error
	DeleteSlot(ctx context.Context, id uuid.UUID) error
	DeleteByProfile(ctx context.Context, profileID uuid.UUID) error
}

// AppointmentFilter narrows List and Count. Nil fields do not filter.
type AppointmentFilter struct {
	StudentID *uuid.UUID
	MentorID  *uuid.UUID
	Status    *Status
	Offset    int
	Limit     int
}

// StatusChange is a compare-and-swap on an appointment's status.
type StatusChange struct {
	ID   uuid.UUID
	From Status
	To   Status
	At   time.Time
	By   uuid.UUID

	// Reason is stored with a cancellation.
	Reason *string
}

type AppointmentRepository interface {
	Create(ctx context.Context, a *Appointment) error
	GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error)
	// List is ordered by StartsAt ascending.
	List(ctx context.Context, f AppointmentFilter) ([]*Appointment, error)
	Count(ctx context.Context, f AppointmentFilter) (int, error)

	// FindOverlapping returns the party's active appointments intersecting
	// [startsAt, endsAt). Touching endpoints do not intersect.
	FindOverlapping(ctx context.Context, party Party, partyID uuid.UUID, startsAt, endsAt time.Time) ([]*Appointment, error)

	// UpdateStatus applies c only if the stored status still equals c.From,
	// otherwise it returns ErrStaleStatus.
	UpdateStatus(ctx context.Context, c StatusChange) (*Appointment, error)

	// SetMeeting stores meeting metadata on an active appointment. It returns
	// ErrStaleStatus when the appointment is no longer active.
	SetMeeting(ctx context.Context, id uuid.UUID, m Meeting, at time.Time) (*Appointment, error)
}

type Repositories interface {
	Users() UserRepository
	Availability() AvailabilityRepository
	Appointments() AppointmentRepository
}

// Store is the storage root.
type Store interface {
	Repositories

	// Tx runs fn in a single transaction while holding an exclusive lock on
	// every key in locks. Keys are acquired in sorted order and released when
	// the transaction ends. fn's error rolls the transaction back.
	Tx(ctx context.Context, locks []string, fn func(r Repositories) error) error

	Ping(ctx context.Context) error
	Close() error
}
