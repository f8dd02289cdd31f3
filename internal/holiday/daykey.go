// Package holiday holds the pure holiday model: day keys and windows, feed events,
// the per-day filter, result aggregation and the cache entry codec.
package holiday

import (
	"fmt"
	"time"
)

const dayKeyLayout = "20060102"

// DayKey is a calendar date normalized to UTC midnight
type DayKey struct {
	midnight time.Time
}

// DayOf returns the UTC date that contains t
func DayOf(t time.Time) DayKey {
	u := t.UTC()
	return DayKey{midnight: time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)}
}

// ParseDayKey parses a YYYYMMDD date stamp
func ParseDayKey(s string) (DayKey, error) {
	t, err := time.ParseInLocation(dayKeyLayout, s, time.UTC)
	if err != nil {
		return DayKey{}, fmt.Errorf("invalid date stamp %q: %w", s, err)
	}
	return DayKey{midnight: t}, nil
}

// String formats the key as YYYYMMDD
func (d DayKey) String() string {
	return d.midnight.Format(dayKeyLayout)
}

// Time returns UTC midnight of the day
func (d DayKey) Time() time.Time {
	return d.midnight
}

// IsZero reports whether the key was never set
func (d DayKey) IsZero() bool {
	return d.midnight.IsZero()
}

// Equal reports whether both keys denote the same date
func (d DayKey) Equal(other DayKey) bool {
	return d.midnight.Equal(other.midnight)
}

// AddDays returns the key n days later (or earlier for negative n)
func (d DayKey) AddDays(n int) DayKey {
	return DayKey{midnight: d.midnight.AddDate(0, 0, n)}
}

// Window returns the inclusive [00:00:00.000, 23:59:59.999] UTC interval of the day
func (d DayKey) Window() Window {
	return Window{
		Start: d.midnight,
		End:   d.midnight.Add(24*time.Hour - time.Millisecond),
	}
}

// Window is an inclusive time interval
type Window struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether [start, end] intersects the window, bounds included
func (w Window) Overlaps(start, end time.Time) bool {
	return !start.After(w.End) && !end.Before(w.Start)
}
