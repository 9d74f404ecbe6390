package repo

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var ErrInvalidTimeOfDay = errors.New("time must be HH:MM between 00:00 and 23:59")

// TimeOfDay is a wall-clock time at minute precision, stored as minutes since
// midnight. Its text form is zero-padded "HH:MM".
type TimeOfDay int

const MinutesPerDay = 24 * 60

// ParseTimeOfDay accepts "HH:MM" and "H:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	h, m, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || len(h) < 1 || len(h) > 2 || len(m) != 2 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	hours, err := strconv.Atoi(h)
	if err != nil || hours < 0 || hours > 23 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	minutes, err := strconv.Atoi(m)
	if err != nil || minutes < 0 || minutes > 59 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, s)
	}
	return TimeOfDay(hours*60 + minutes), nil
}

// TimeOfDayOf returns the wall-clock minute of t in loc.
func TimeOfDayOf(t time.Time, loc *time.Location) TimeOfDay {
	t = t.In(loc)
	return TimeOfDay(t.Hour()*60 + t.Minute())
}

func (t TimeOfDay) Valid() bool { return t >= 0 && t < MinutesPerDay }

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: expected a string", ErrInvalidTimeOfDay)
	}
	v, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = v
	return nil
}

// On returns the instant at this time of day on the calendar date of day in loc.
func (t TimeOfDay) On(day time.Time, loc *time.Location) time.Time {
	d := day.In(loc)
	return time.Date(d.Year(), d.Month(), d.Day(), int(t)/60, int(t)%60, 0, 0, loc)
}
