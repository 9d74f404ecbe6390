package scheduling

import (
	"slices"
	"time"

	"github.com/Alijeyrad/mentorbook_backend/internal/repo"
)

// Interval is a half-open [Start, End) range of absolute time.
type Interval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (i Interval) Overlaps(o Interval) bool {
	return i.Start.Before(o.End) && o.Start.Before(i.End)
}

// OpenWindows returns the parts of the weekly windows on date's calendar day
// (in loc) that no busy interval covers, ordered by start.
func OpenWindows(slots []*repo.AvailabilitySlot, busy []Interval, date time.Time, loc *time.Location) []Interval {
	if loc == nil {
		loc = time.UTC
	}
	day := int(date.In(loc).Weekday())

	var windows []Interval
	for _, s := range slots {
		if s.DayOfWeek != day || s.StartTime >= s.EndTime {
			continue
		}
		windows = append(windows, Interval{Start: s.StartTime.On(date, loc), End: s.EndTime.On(date, loc)})
	}
	windows = merge(windows)

	busy = merge(slices.Clone(busy))
	for _, b := range busy {
		windows = subtract(windows, b)
	}
	return windows
}

// merge sorts and coalesces overlapping or touching intervals.
func merge(in []Interval) []Interval {
	if len(in) == 0 {
		return in
	}
	slices.SortFunc(in, func(a, b Interval) int { return a.Start.Compare(b.Start) })

	out := []Interval{in[0]}
	for _, iv := range in[1:] {
		last := &out[len(out)-1]
		if !iv.Start.After(last.End) {
			if iv.End.After(last.End) {
				last.End = iv.End
			}
			continue
		}
		out = append(out, iv)
	}
	return out
}

func subtract(windows []Interval, b Interval) []Interval {
	out := windows[:0:0]
	for _, w := range windows {
		if !w.Overlaps(b) {
			out = append(out, w)
			continue
		}
		if w.Start.Before(b.Start) {
			out = append(out, Interval{Start: w.Start, End: b.Start})
		}
		if b.End.Before(w.End) {
			out = append(out, Interval{Start: b.End, End: w.End})
		}
	}
	return out
}
