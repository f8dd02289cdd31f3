package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/belphemur/holidays/internal/clock"
	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
)

// googleWindow is how far around now events are listed
const googleWindow = 48 * time.Hour

// GoogleFetcher lists holiday events through the Google Calendar API.
// Public holiday calendars are addressed as "<language>.<calendar id>".
type GoogleFetcher struct {
	srv    *calendar.Service
	clock  clock.Clock
	logger zerolog.Logger
}

// NewGoogleFetcher creates a fetcher authenticated with an API key
func NewGoogleFetcher(ctx context.Context, apiKey string, clk clock.Clock, opts ...option.ClientOption) (*GoogleFetcher, error) {
	if apiKey == "" {
		return nil, errors.New("google API key is required")
	}
	logger := logging.GetLogger("feed-google")

	opts = append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)
	srv, err := calendar.NewService(ctx, opts...)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to create Google Calendar service client")
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &GoogleFetcher{srv: srv, clock: clk, logger: logger}, nil
}

// Fetch lists the events from two days before to two days after now
func (g *GoogleFetcher) Fetch(ctx context.Context, calendarID, language string) ([]holiday.Event, error) {
	id := language + "." + calendarID
	now := g.clock.Now().UTC()
	logger := g.logger.With().Str("calendar_id", id).Logger()

	events := make([]holiday.Event, 0)
	err := g.srv.Events.List(id).
		TimeMin(now.Add(-googleWindow).Format(time.RFC3339)).
		TimeMax(now.Add(googleWindow).Format(time.RFC3339)).
		SingleEvents(true).
		Pages(ctx, func(page *calendar.Events) error {
			for _, item := range page.Items {
				ev, err := convertEvent(item)
				if err != nil {
					return &FormatError{Err: err}
				}
				events = append(events, ev)
			}
			return nil
		})
	if err != nil {
		var formatErr *FormatError
		if errors.As(err, &formatErr) {
			logger.Error().Err(err).Msg("Calendar API returned an unreadable event")
			return nil, err
		}
		netErr := &NetworkError{URL: id, Err: err}
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			netErr.StatusCode = apiErr.Code
		}
		logger.Error().Err(err).Int("status", netErr.StatusCode).Msg("Failed to list calendar events")
		return nil, netErr
	}

	logger.Info().Int("event_count", len(events)).Msg("Calendar events listed")
	return events, nil
}

func convertEvent(item *calendar.Event) (holiday.Event, error) {
	ev := holiday.Event{UID: item.Id, Summary: item.Summary, Cancelled: item.Status == "cancelled"}

	start, allDay, err := parseEventDateTime(item.Start)
	if err != nil {
		return ev, fmt.Errorf("event %s start: %w", item.Id, err)
	}
	ev.Start = start
	ev.AllDay = allDay

	switch {
	case item.End != nil && (item.End.Date != "" || item.End.DateTime != ""):
		end, _, err := parseEventDateTime(item.End)
		if err != nil {
			return ev, fmt.Errorf("event %s end: %w", item.Id, err)
		}
		if allDay {
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
	return ev, nil
}

func parseEventDateTime(dt *calendar.EventDateTime) (time.Time, bool, error) {
	if dt == nil {
		return time.Time{}, false, errors.New("missing date")
	}
	if dt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, dt.DateTime)
		return t.UTC(), false, err
	}
	if dt.Date != "" {
		t, err := time.ParseInLocation(time.DateOnly, dt.Date, time.UTC)
		return t, true, err
	}
	return time.Time{}, false, errors.New("missing date")
}

var _ Fetcher = (*GoogleFetcher)(nil)
