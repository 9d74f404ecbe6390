package appointment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/scheduling"
	"github.com/Alijeyrad/mentorbook_backend/pkg/authorize"
	"github.com/Alijeyrad/mentorbook_backend/pkg/events"
)

// ---------------------------------------------------------------------------
// DTOs
// ---------------------------------------------------------------------------

type CreateRequest struct {
	MentorID uuid.UUID
	StartsAt time.Time
	EndsAt   time.Time
	Title    *string
	Notes    *string
}

type ListRequest struct {
	Status string
	Page   int
	Limit  int
}

type CancelRequest struct {
	Reason *string
}

type PageMeta struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	Total      int `json:"total"`
	TotalPages int `json:"totalPages"`
}

type Page struct {
	Items []*repo.Appointment
	Meta  PageMeta
}

// ---------------------------------------------------------------------------
// Interface
// ---------------------------------------------------------------------------

type Service interface {
	Create(ctx context.Context, actor repo.Actor, req CreateRequest) (*repo.Appointment, error)
	List(ctx context.Context, actor repo.Actor, req ListRequest) (*Page, error)
	Get(ctx context.Context, actor repo.Actor, id uuid.UUID) (*repo.Appointment, error)

	Confirm(ctx context.Context, actor repo.Actor, id uuid.UUID) (*repo.Appointment, error)
	Cancel(ctx context.Context, actor repo.Actor, id uuid.UUID, req CancelRequest) (*repo.Appointment, error)
	Complete(ctx context.Context, actor repo.Actor, id uuid.UUID) (*repo.Appointment, error)
	AttachMeeting(ctx context.Context, actor repo.Actor, id uuid.UUID, m repo.Meeting) (*repo.Appointment, error)
}

// ---------------------------------------------------------------------------
// Implementation
// ---------------------------------------------------------------------------

type appointmentService struct {
	store  repo.Store
	authz  authorize.IAuthorization
	events events.Publisher
	cfg    scheduling.Config
	now    func() time.Time
}

func New(store repo.Store, authz authorize.IAuthorization, publisher events.Publisher, cfg scheduling.Config) Service {
	if publisher == nil {
		publisher = events.Nop{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &appointmentService{
		store:  store,
		authz:  authz,
		events: publisher,
		cfg:    cfg,
		now:    time.Now,
	}
}

func (s *appointmentService) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.cfg.QueryTimeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

func (s *appointmentService) can(ctx context.Context, actor repo.Actor, action authorize.Action) bool {
	return s.authz.MustEnforce(ctx, actor.Role, authorize.ResourceAppointment, action) == nil
}

func (s *appointmentService) Create(ctx context.Context, actor repo.Actor, req CreateRequest) (*repo.Appointment, error) {
	if actor.Role != authorize.RoleStudent || !s.can(ctx, actor, authorize.ActionCreate) {
		return nil, ErrOnlyStudents
	}
	if req.StartsAt.IsZero() || req.EndsAt.IsZero() {
		return nil, ErrInvalidTimes
	}
	if !req.StartsAt.Before(req.EndsAt) {
		return nil, ErrEndsBeforeStart
	}
	if s.cfg.RejectPast && req.StartsAt.Before(s.now()) {
		return nil, ErrInPast
	}
	if req.MentorID == actor.ID {
		return nil, ErrSelfBooking
	}

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	appt := &repo.Appointment{
		StudentID: actor.ID,
		MentorID:  req.MentorID,
		StartsAt:  req.StartsAt.UTC(),
		EndsAt:    req.EndsAt.UTC(),
		Status:    repo.StatusPending,
		Title:     trimmed(req.Title),
		Notes:     trimmed(req.Notes),
	}

	locks := []string{repo.MentorLock(req.MentorID), repo.StudentLock(actor.ID)}
	err := s.store.Tx(ctx, locks, func(r repo.Repositories) error {
		mentor, err := r.Users().GetByID(ctx, req.MentorID)
		if errors.Is(err, repo.ErrNotFound) || (err == nil && mentor.Role != authorize.RoleMentor) {
			return ErrMentorNotFound
		}
		if err != nil {
			return fmt.Errorf("get mentor: %w", err)
		}

		student, err := r.Users().GetByID(ctx, actor.ID)
		if errors.Is(err, repo.ErrNotFound) {
			return ErrStudentNotFound
		}
		if err != nil {
			return fmt.Errorf("get student: %w", err)
		}

		if s.cfg.EnforceAvailability {
			ok, err := s.withinAvailability(ctx, r, mentor.ID, appt.StartsAt, appt.EndsAt)
			if err != nil {
				return err
			}
			if !ok {
				return ErrNotWithinAvailability
			}
		}

		if err := checkConflicts(ctx, r.Appointments(), mentor.ID, actor.ID, appt.StartsAt, appt.EndsAt); err != nil {
			return err
		}

		if err := r.Appointments().Create(ctx, appt); err != nil {
			if mapped := mapOverlap(err); mapped != err {
				return mapped
			}
			return fmt.Errorf("create appointment: %w", err)
		}

		ms, ss := mentor.Summary(), student.Summary()
		appt.Mentor, appt.Student = &ms, &ss
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.InfoContext(ctx, "appointment created",
		"appointment_id", appt.ID,
		"mentor_id", appt.MentorID,
		"student_id", appt.StudentID,
		"starts_at", appt.StartsAt,
	)
	s.publish(ctx, EventCreated, appt, actor)
	return appt, nil
}

// withinAvailability reads the mentor's weekly slots inside the booking
// transaction so a concurrent availability edit cannot slip in between.
func (s *appointmentService) withinAvailability(ctx context.Context, r repo.Repositories, mentorID uuid.UUID, startsAt, endsAt time.Time) (bool, error) {
	profile, err := r.Availability().GetProfileByUser(ctx, mentorID)
	if errors.Is(err, repo.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("get mentor profile: %w", err)
	}
	slots, err := r.Availability().ListByProfile(ctx, profile.ID)
	if err != nil {
		return false, fmt.Errorf("list availability: %w", err)
	}
	return scheduling.Contains(slots, startsAt, endsAt, s.cfg.Location), nil
}

func (s *appointmentService) List(ctx context.Context, actor repo.Actor, req ListRequest) (*Page, error) {
	if !s.can(ctx, actor, authorize.ActionList) {
		return nil, ErrCannotList
	}

	var f repo.AppointmentFilter
	switch actor.Role {
	case authorize.RoleStudent:
		f.StudentID = &actor.ID
	case authorize.RoleMentor:
		f.MentorID = &actor.ID
	case authorize.RoleAdmin:
	default:
		return nil, ErrCannotList
	}

	if req.Status != "" {
		st, err := repo.ParseStatus(req.Status)
		if err != nil {
			return nil, ErrInvalidStatus
		}
		f.Status = &st
	}

	page, limit := req.Page, req.Limit
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = s.cfg.DefaultPageSize
	}
	if s.cfg.MaxPageSize > 0 && limit > s.cfg.MaxPageSize {
		limit = s.cfg.MaxPageSize
	}
	f.Limit, f.Offset = limit, (page-1)*limit

	ctx, cancel := s.bounded(ctx)
	defer cancel()

	items, err := s.store.Appointments().List(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	total, err := s.store.Appointments().Count(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("count appointments: %w", err)
	}
	if err := s.attachSummaries(ctx, s.store, items...); err != nil {
		return nil, err
	}
	hostView(actor, items...)

	return &Page{
		Items: items,
		Meta: PageMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: (total + limit - 1) / limit,
		},
	}, nil
}

func (s *appointmentService) Get(ctx context.Context, actor repo.Actor, id uuid.UUID) (*repo.Appointment, error) {
	ctx, cancel := s.bounded(ctx)
	defer cancel()

	a, err := s.load(ctx, s.store, id)
	if err != nil {
		return nil, err
	}
	if !s.can(ctx, actor, authorize.ActionRead) {
		return nil, ErrCannotView
	}
	if actor.Role != authorize.RoleAdmin && !a.HasParticipant(actor.ID) {
		return nil, ErrCannotView
	}
	if err := s.attachSummaries(ctx, s.store, a); err != nil {
		return nil, err
	}
	hostView(actor, a)
	return a, nil
}

// hostView hides the meeting host link from everyone but the mentor and admins.
func hostView(actor repo.Actor, items ...*repo.Appointment) {
	for _, a := range items {
		if a.Meeting == nil || a.MentorID == actor.ID || actor.Is(authorize.RoleAdmin) {
			continue
		}
		m := *a.Meeting
		m.StartURL = ""
		a.Meeting = &m
	}
}

func (s *appointmentService) load(ctx context.Context, r repo.Repositories, id uuid.UUID) (*repo.Appointment, error) {
	a, err := r.Appointments().GetByID(ctx, id)
	if errors.Is(err, repo.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get appointment: %w", err)
	}
	return a, nil
}

func (s *appointmentService) attachSummaries(ctx context.Context, r repo.Repositories, items ...*repo.Appointment) error {
	if len(items) == 0 {
		return nil
	}
	ids := make([]uuid.UUID, 0, 2*len(items))
	for _, a := range items {
		ids = append(ids, a.StudentID, a.MentorID)
	}
	summaries, err := r.Users().Summaries(ctx, ids)
	if err != nil {
		return fmt.Errorf("load user summaries: %w", err)
	}
	for _, a := range items {
		if u, ok := summaries[a.StudentID]; ok {
			a.Student = &u
		}
		if u, ok := summaries[a.MentorID]; ok {
			a.Mentor = &u
		}
	}
	return nil
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" {
		return nil
	}
	return &v
}
