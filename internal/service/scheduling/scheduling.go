package scheduling

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
	"github.com/Alijeyrad/mentorbook_backend/internal/service/availability"
)

type Service interface {
	// Location is the canonical clock weekly slots are read in.
	Location() *time.Location

	// OpenWindows lists the still-free parts of the mentor's windows on date.
	OpenWindows(ctx context.Context, mentorID uuid.UUID, date time.Time) ([]Interval, error)
}

type schedulingService struct {
	availability availability.Service
	appointments repo.AppointmentRepository
	cfg          Config
}

func New(avail availability.Service, appointments repo.AppointmentRepository, cfg Config) Service {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &schedulingService{availability: avail, appointments: appointments, cfg: cfg}
}

func (s *schedulingService) Location() *time.Location { return s.cfg.Location }

func (s *schedulingService) OpenWindows(ctx context.Context, mentorID uuid.UUID, date time.Time) ([]Interval, error) {
	slots, err := s.availability.ListForMentor(ctx, mentorID)
	if err != nil {
		return nil, err
	}

	d := date.In(s.cfg.Location)
	dayStart := time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, s.cfg.Location)
	dayEnd := dayStart.AddDate(0, 0, 1)

	if s.cfg.QueryTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.cfg.QueryTimeout)
		defer cancel()
	}

	booked, err := s.appointments.FindOverlapping(ctx, repo.PartyMentor, mentorID, dayStart, dayEnd)
	if err != nil {
		return nil, fmt.Errorf("list booked appointments: %w", err)
	}
	busy := lo.Map(booked, func(a *repo.Appointment, _ int) Interval {
		return Interval{Start: a.StartsAt, End: a.EndsAt}
	})

	windows := OpenWindows(slots, busy, dayStart, s.cfg.Location)
	if windows == nil {
		windows = []Interval{}
	}
	return windows, nil
}
