package scheduling

import (
	"time"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

// Contains reports whether [startsAt, endsAt) falls entirely inside one of
// the weekly slots, reading both instants on the clock of loc.
//
// A range that ends on a later calendar day than it starts never matches, so
// bookings across midnight are rejected. No slots means nothing is bookable.
func Contains(slots []*repo.AvailabilitySlot, startsAt, endsAt time.Time, loc *time.Location) bool {
	if len(slots) == 0 || !startsAt.Before(endsAt) {
		return false
	}
	if loc == nil {
		loc = time.UTC
	}

	start, end := startsAt.In(loc), endsAt.In(loc)
	if !sameDate(start, end) {
		return false
	}

	day := int(start.Weekday())
	from := repo.TimeOfDayOf(start, loc)
	to := ceilTimeOfDay(end, loc)

	for _, s := range slots {
		if s.DayOfWeek == day && s.StartTime <= from && to <= s.EndTime {
			return true
		}
	}
	return false
}

func sameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// ceilTimeOfDay rounds a partial minute up, so 10:30:20 does not fit a slot
// ending at 10:30.
func ceilTimeOfDay(t time.Time, loc *time.Location) repo.TimeOfDay {
	tod := repo.TimeOfDayOf(t, loc)
	if t.Second() != 0 || t.Nanosecond() != 0 {
		tod++
	}
	return tod
}
