package holiday

import (
	"time"

	"github.com/teambition/rrule-go"
)

// Event is a dated calendar entry read from a feed
type Event struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	AllDay  bool

	// RRule is the raw recurrence rule (without the "RRULE:" prefix), empty for single events.
	RRule string
	// ExDates are occurrence starts removed from the recurrence.
	ExDates []time.Time
	// RecurrenceID is set on an override: it replaces the occurrence of the
	// series with the same UID that starts at this instant.
	RecurrenceID time.Time
	// Cancelled events are never selected. A cancelled override removes its occurrence.
	Cancelled bool
}

// Duration returns the length of the event
func (e Event) Duration() time.Duration {
	return e.End.Sub(e.Start)
}

// IsOverride reports whether the event replaces one occurrence of a series
func (e Event) IsOverride() bool {
	return !e.RecurrenceID.IsZero()
}

// ForDay returns the events overlapping the day window, in source order.
// A recurring event is selected when one of its occurrences overlaps the window;
// the returned copy carries that occurrence's start and end. Occurrences listed
// in EXDATE or replaced by an override are skipped; the override is tested on its own.
func ForDay(events []Event, day DayKey) []Event {
	window := day.Window()
	matched := make([]Event, 0)
	overridden := overridesByUID(events)

	for _, ev := range events {
		if ev.Cancelled {
			continue
		}
		if ev.RRule == "" || ev.IsOverride() {
			if window.Overlaps(ev.Start, ev.End) {
				matched = append(matched, ev)
			}
			continue
		}

		if occ, ok := occurrenceIn(ev, overridden[ev.UID], window); ok {
			matched = append(matched, occ)
		}
	}

	return matched
}

// overridesByUID collects the RECURRENCE-ID instants per series UID
func overridesByUID(events []Event) map[string][]time.Time {
	var overridden map[string][]time.Time
	for _, ev := range events {
		if !ev.IsOverride() || ev.UID == "" {
			continue
		}
		if overridden == nil {
			overridden = make(map[string][]time.Time)
		}
		overridden[ev.UID] = append(overridden[ev.UID], ev.RecurrenceID)
	}
	return overridden
}

// occurrenceIn expands a recurring event and returns its first occurrence overlapping window.
// An unparseable rule degrades to the single base occurrence.
func occurrenceIn(ev Event, overridden []time.Time, window Window) (Event, bool) {
	rule, err := rrule.StrToRRule(ev.RRule)
	if err != nil {
		single := ev
		single.RRule = ""
		return single, window.Overlaps(ev.Start, ev.End) && !excluded(ev.Start, ev.ExDates, overridden)
	}

	var set rrule.Set
	set.RRule(rule)
	set.DTStart(ev.Start)
	for _, ex := range ev.ExDates {
		set.ExDate(ex)
	}
	for _, rid := range overridden {
		set.ExDate(rid)
	}

	dur := ev.Duration()
	// Look back by the duration to catch occurrences that started before the window.
	for _, start := range set.Between(window.Start.Add(-dur), window.End, true) {
		end := start.Add(dur)
		if !window.Overlaps(start, end) {
			continue
		}
		occ := ev
		occ.Start = start
		occ.End = end
		occ.RRule = ""
		occ.ExDates = nil
		return occ, true
	}
	return Event{}, false
}

func excluded(start time.Time, lists ...[]time.Time) bool {
	for _, list := range lists {
		for _, t := range list {
			if t.Equal(start) {
				return true
			}
		}
	}
	return false
}
