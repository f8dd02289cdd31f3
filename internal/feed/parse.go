package feed

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"
	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/holiday"
)

const (
	dateLayout        = "20060102"
	dateTimeLayout    = "20060102T150405"
	utcDateTimeLayout = "20060102T150405Z"
)

var (
	utf8BOM         = []byte{0xEF, 0xBB, 0xBF}
	calendarPreface = []byte("BEGIN:VCALENDAR")
)

// ParseICS reads an iCalendar document into events, in document order.
// Events without a usable DTSTART are skipped.
func ParseICS(body []byte, logger zerolog.Logger) ([]holiday.Event, error) {
	trimmed := bytes.TrimSpace(bytes.TrimPrefix(body, utf8BOM))
	if len(trimmed) == 0 {
		return nil, &FormatError{Err: errors.New("empty document")}
	}
	if !bytes.HasPrefix(bytes.ToUpper(trimmed[:min(len(trimmed), len(calendarPreface))]), calendarPreface) {
		return nil, &FormatError{Err: errors.New("document does not start with BEGIN:VCALENDAR")}
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(trimmed))
	if err != nil {
		return nil, &FormatError{Err: err}
	}

	events := make([]holiday.Event, 0)
	for _, ve := range cal.Events() {
		ev, err := parseVEvent(ve)
		if err != nil {
			logger.Warn().Err(err).Str("uid", ev.UID).Msg("Skipping unreadable calendar event")
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseVEvent(ve *ical.VEvent) (holiday.Event, error) {
	var ev holiday.Event

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		ev.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		ev.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		ev.RRule = strings.TrimPrefix(strings.TrimSpace(p.Value), "RRULE:")
	}
	if p := ve.GetProperty(ical.ComponentPropertyStatus); p != nil {
		ev.Cancelled = strings.EqualFold(strings.TrimSpace(p.Value), "CANCELLED")
	}

	startProp := ve.GetProperty(ical.ComponentPropertyDtStart)
	if startProp == nil {
		return ev, errors.New("missing DTSTART")
	}
	start, allDay, err := parseTimeValue(startProp.Value, startProp.ICalParameters)
	if err != nil {
		return ev, fmt.Errorf("DTSTART: %w", err)
	}
	ev.Start = start
	ev.AllDay = allDay

	endProp := ve.GetProperty(ical.ComponentPropertyDtEnd)
	switch {
	case endProp != nil:
		end, _, err := parseTimeValue(endProp.Value, endProp.ICalParameters)
		if err != nil {
			return ev, fmt.Errorf("DTEND: %w", err)
		}
		if allDay {
			// DTEND of a date-valued event is exclusive
			end = end.Add(-time.Millisecond)
		}
		ev.End = end
	case allDay:
		ev.End = start.Add(24*time.Hour - time.Millisecond)
	default:
		ev.End = start
	}
	if ev.End.Before(ev.Start) {
		ev.End = ev.Start
	}

	// EXDATE may repeat and each value may list several instants
	for _, p := range ve.GetProperties(ical.ComponentPropertyExdate) {
		for _, part := range strings.Split(p.Value, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			ex, _, err := parseTimeValue(part, p.ICalParameters)
			if err != nil {
				return ev, fmt.Errorf("EXDATE: %w", err)
			}
			ev.ExDates = append(ev.ExDates, ex)
		}
	}

	if p := ve.GetProperty(ical.ComponentPropertyRecurrenceId); p != nil {
		rid, _, err := parseTimeValue(p.Value, p.ICalParameters)
		if err != nil {
			return ev, fmt.Errorf("RECURRENCE-ID: %w", err)
		}
		ev.RecurrenceID = rid
	}

	return ev, nil
}

// parseTimeValue parses a DATE or DATE-TIME value. UTC, TZID-qualified and floating
// times are normalized to UTC; floating times are read as UTC.
func parseTimeValue(value string, params map[string][]string) (time.Time, bool, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false, errors.New("empty time value")
	}

	if strings.EqualFold(firstParam(params, "VALUE"), "DATE") || !strings.Contains(value, "T") {
		t, err := time.ParseInLocation(dateLayout, value, time.UTC)
		return t, true, err
	}

	if strings.HasSuffix(value, "Z") {
		t, err := time.Parse(utcDateTimeLayout, value)
		return t.UTC(), false, err
	}

	loc := time.UTC
	if tzid := firstParam(params, "TZID"); tzid != "" {
		if l, err := time.LoadLocation(tzid); err == nil {
			loc = l
		}
	}
	t, err := time.ParseInLocation(dateTimeLayout, value, loc)
	return t.UTC(), false, err
}

func firstParam(params map[string][]string, name string) string {
	if values, ok := params[name]; ok && len(values) > 0 {
		return values[0]
	}
	return ""
}
