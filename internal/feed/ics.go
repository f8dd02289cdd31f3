// Package feed retrieves holiday calendars and turns them into dated events.
package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/config"
	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
)

// maxDocumentSize bounds the calendar document read into memory
const maxDocumentSize = 16 << 20

// Fetcher retrieves the events of a calendar in a language
type Fetcher interface {
	Fetch(ctx context.Context, calendarID, language string) ([]holiday.Event, error)
}

// ICSFetcher downloads the public iCalendar export of a calendar
type ICSFetcher struct {
	feed   config.FeedConfig
	client *http.Client
	logger zerolog.Logger
}

// NewICSFetcher creates a fetcher for the feed URL template. A nil client uses
// an http.Client bounded by the configured timeout.
func NewICSFetcher(feed config.FeedConfig, client *http.Client) *ICSFetcher {
	if client == nil {
		client = &http.Client{Timeout: feed.Timeout}
	}
	return &ICSFetcher{
		feed:   feed,
		client: client,
		logger: logging.GetLogger("feed"),
	}
}

// Fetch downloads and parses the calendar document
func (f *ICSFetcher) Fetch(ctx context.Context, calendarID, language string) ([]holiday.Event, error) {
	url := f.feed.FeedURL(calendarID, language)
	logger := f.logger.With().Str("url", url).Logger()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &NetworkError{URL: url, Err: err}
	}
	req.Header.Set("Accept", "text/calendar")

	logger.Debug().Msg("Fetching calendar document")
	resp, err := f.client.Do(req)
	if err != nil {
		logger.Error().Err(err).Msg("Calendar request failed")
		return nil, &NetworkError{URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain so the connection can be reused
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 64<<10))
		logger.Error().Int("status", resp.StatusCode).Msg("Calendar request returned a non-success status")
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode, Err: errors.New(resp.Status)}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize+1))
	if err != nil {
		logger.Error().Err(err).Msg("Failed to read calendar document")
		return nil, &NetworkError{URL: url, StatusCode: resp.StatusCode, Err: err}
	}
	if len(body) > maxDocumentSize {
		return nil, &FormatError{Err: fmt.Errorf("document exceeds %d bytes", maxDocumentSize)}
	}

	events, err := ParseICS(body, logger)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to parse calendar document")
		return nil, err
	}

	logger.Info().Int("event_count", len(events)).Msg("Calendar document fetched")
	return events, nil
}

var _ Fetcher = (*ICSFetcher)(nil)
