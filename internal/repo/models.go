// Package repo holds the scheduling records and the storage contracts the
// services depend on. Implementations live in the postgres and memory
// subpackages.
package repo

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
)

// Actor is the authenticated identity performing an operation.
type Actor struct {
	ID   uuid.UUID
	Role authorize.Role
}

func (a Actor) Is(role authorize.Role) bool { return a.Role == role }

type User struct {
	ID        uuid.UUID      `json:"id"`
	Name      string         `json:"name"`
	Email     string         `json:"email"`
	Role      authorize.Role `json:"role"`
	CreatedAt time.Time      `json:"createdAt"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}

type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// MentorProfile is the 1:1 key between a mentor identity and its slots.
type MentorProfile struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}

type AvailabilitySlot struct {
	ID              uuid.UUID `json:"id"`
	MentorProfileID uuid.UUID `json:"mentorProfileId"`
	DayOfWeek       int       `json:"dayOfWeek"`
	StartTime       TimeOfDay `json:"startTime"`
	EndTime         TimeOfDay `json:"endTime"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

type Status string

const (
	StatusPending   Status = "PENDING"
	StatusConfirmed Status = "CONFIRMED"
	StatusCancelled Status = "CANCELLED"
	StatusCompleted Status = "COMPLETED"
)

// ActiveStatuses are the statuses that hold a party's time.
var ActiveStatuses = []Status{StatusPending, StatusConfirmed}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

func (s Status) Active() bool   { return s == StatusPending || s == StatusConfirmed }
func (s Status) Terminal() bool { return s == StatusCancelled || s == StatusCompleted }

func ParseStatus(s string) (Status, error) {
	st := Status(strings.ToUpper(strings.TrimSpace(s)))
	if !st.Valid() {
		return "", fmt.Errorf("unknown status %q", s)
	}
	return st, nil
}

// Meeting is opaque metadata of an external video meeting.
type Meeting struct {
	ID       string `json:"id"`
	JoinURL  string `json:"joinUrl"`
	StartURL string `json:"startUrl,omitempty"`
}

type Appointment struct {
	ID          uuid.UUID    `json:"id"`
	StudentID   uuid.UUID    `json:"studentId"`
	MentorID    uuid.UUID    `json:"mentorId"`
	StartsAt    time.Time    `json:"startsAt"`
	EndsAt      time.Time    `json:"endsAt"`
	Status      Status       `json:"status"`
	Title       *string      `json:"title,omitempty"`
	Notes       *string      `json:"notes,omitempty"`
	Meeting     *Meeting     `json:"meeting,omitempty"`
	Student     *UserSummary `json:"student,omitempty"`
	Mentor      *UserSummary `json:"mentor,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	CancelledAt *time.Time   `json:"cancelledAt,omitempty"`
	CancelledBy *uuid.UUID   `json:"cancelledBy,omitempty"`
	CancelNote  *string      `json:"cancellationReason,omitempty"`
	CompletedAt *time.Time   `json:"completedAt,omitempty"`
}

// HasParticipant reports whether id is the student or the mentor.
func (a *Appointment) HasParticipant(id uuid.UUID) bool {
	return a.StudentID == id || a.MentorID == id
}

// Party selects which side of an appointment a query is about.
type Party int

const (
	PartyMentor Party = iota + 1
	PartyStudent
)

func (p Party) String() string {
	switch p {
	case PartyMentor:
		return "mentor"
	case PartyStudent:
		return "student"
	default:
		return "unknown"
	}
}

// Lock keys understood by Store.Tx.
func MentorLock(id uuid.UUID) string  { return "mentor:" + id.String() }
func StudentLock(id uuid.UUID) string { return "student:" + id.String() }
func ProfileLock(id uuid.UUID) string { return "profile:" + id.String() }
