// Package engine decides, per update cycle, whether to republish today's cached
// holiday result or to fetch, filter, aggregate, publish and cache a fresh one.
package engine

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/clock"
	"github.com/belphemur/holidays/internal/config"
	"github.com/belphemur/holidays/internal/constants"
	"github.com/belphemur/holidays/internal/feed"
	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
)

// SettingsSource provides the calendar selection
type SettingsSource interface {
	Settings() config.CalendarConfig
}

// Connectivity reports whether the network is usable
type Connectivity interface {
	IsConnected(ctx context.Context) bool
}

// Publisher hands a publication to the host; it is fire-and-forget
type Publisher interface {
	Publish(ctx context.Context, data holiday.ExtensionData)
}

// CacheStore persists today's result
type CacheStore interface {
	Read(ctx context.Context) (*holiday.CacheEntry, error)
	Write(ctx context.Context, entry holiday.CacheEntry) error
	Clear(ctx context.Context) error
}

// Options holds the texts and identifiers attached to publications
type Options struct {
	Icon                 string
	ClickTarget          string
	NotConfiguredMessage string
	MultipleFormat       string
}

// OptionsFromConfig builds Options from the publish section
func OptionsFromConfig(cfg config.PublishConfig) Options {
	return Options{
		Icon:                 cfg.Icon,
		ClickTarget:          cfg.SettingsTarget,
		NotConfiguredMessage: cfg.NotConfigured,
		MultipleFormat:       cfg.MultipleHolidays,
	}
}

// Engine runs update cycles. It is not safe for concurrent use; Worker serializes calls.
type Engine struct {
	settings     SettingsSource
	cache        CacheStore
	fetcher      feed.Fetcher
	connectivity Connectivity
	publisher    Publisher
	clock        clock.Clock
	builder      *holiday.Builder
	opts         Options
	logger       zerolog.Logger
}

// New creates an Engine
func New(settings SettingsSource, cache CacheStore, fetcher feed.Fetcher, connectivity Connectivity, publisher Publisher, clk clock.Clock, opts Options) *Engine {
	if opts.Icon == "" {
		opts.Icon = constants.DefaultIcon
	}
	if opts.ClickTarget == "" {
		opts.ClickTarget = constants.DefaultSettingsTarget
	}
	if opts.NotConfiguredMessage == "" {
		opts.NotConfiguredMessage = "Not configured"
	}
	return &Engine{
		settings:     settings,
		cache:        cache,
		fetcher:      fetcher,
		connectivity: connectivity,
		publisher:    publisher,
		clock:        clk,
		builder:      holiday.NewBuilder(opts.MultipleFormat),
		opts:         opts,
		logger:       logging.GetLogger("engine"),
	}
}

// Update runs one cycle. Failures end the cycle and leave the published state as it was.
func (e *Engine) Update(ctx context.Context, reason Reason) Outcome {
	logger := e.logger.With().Str("cycle_id", uuid.NewString()).Str("reason", reason.String()).Logger()

	// One snapshot per cycle
	settings := e.settings.Settings()
	settings.ID = strings.TrimSpace(settings.ID)
	settings.Language = strings.TrimSpace(settings.Language)
	if settings.Language == "" {
		settings.Language = constants.DefaultLanguage
	}

	if !settings.Configured() {
		logger.Info().Msg("No calendar selected, publishing call to action")
		e.publisher.Publish(ctx, holiday.NotConfigured(e.opts.NotConfiguredMessage, e.opts.Icon, e.opts.ClickTarget))
		return OutcomeNotConfigured
	}

	logger = logger.With().Str("calendar_id", settings.ID).Str("language", settings.Language).Logger()
	today := holiday.DayOf(e.clock.Now())
	logger.Debug().Str("today", today.String()).Msg("Starting update cycle")

	if !reason.BypassesCache() && e.useCache(ctx, settings, today, logger) {
		logger.Info().Msg("Published cached result")
		return OutcomeCacheHit
	}

	if !e.connectivity.IsConnected(ctx) {
		logger.Info().Msg("No network connectivity, skipping update")
		return OutcomeOffline
	}

	events, err := e.fetcher.Fetch(ctx, settings.ID, settings.Language)
	if err != nil {
		var formatErr *feed.FormatError
		switch {
		case errors.As(err, &formatErr):
			logger.Error().Err(err).Msg("Calendar document could not be parsed, keeping previous state")
		case errors.Is(err, context.Canceled):
			logger.Warn().Err(err).Msg("Update cancelled")
		default:
			logger.Error().Err(err).Msg("Failed to fetch calendar, keeping previous state")
		}
		return OutcomeFetchFailed
	}

	matched := holiday.ForDay(events, today)
	result := e.builder.Build(matched)
	logger.Debug().Int("event_count", len(events)).Int("matched_count", len(matched)).Msg("Filtered calendar events")

	e.publisher.Publish(ctx, holiday.Publication(result, e.opts.Icon))

	entry := holiday.CacheEntry{
		CalendarID: settings.ID,
		Language:   settings.Language,
		Date:       today,
		Result:     result,
	}
	if err := e.cache.Write(ctx, entry); err != nil {
		logger.Error().Err(err).Msg("Failed to write cache entry")
	}

	logger.Info().Int("holiday_count", len(matched)).Bool("visible", result.Visible()).Msg("Published fresh result")
	return OutcomeUpdated
}

// useCache republishes a cache entry valid for the current settings and today.
// An entry invalid in any key is cleared and the extension unpublished before the fetch.
func (e *Engine) useCache(ctx context.Context, settings config.CalendarConfig, today holiday.DayKey, logger zerolog.Logger) bool {
	entry, err := e.cache.Read(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("Failed to read cache entry, treating as miss")
		return false
	}
	if entry == nil {
		logger.Debug().Msg("No cache entry")
		return false
	}

	var cause string
	switch {
	case entry.CalendarID != settings.ID:
		cause = "calendar_changed"
	case entry.Language != settings.Language:
		cause = "language_changed"
	case !entry.Date.Equal(today):
		cause = "date_changed"
	}

	if cause != "" {
		logger.Info().
			Str("cause", cause).
			Str("cached_calendar_id", entry.CalendarID).
			Str("cached_language", entry.Language).
			Str("cached_date", entry.Date.String()).
			Msg("Invalidating cache entry")
		if err := e.cache.Clear(ctx); err != nil {
			logger.Error().Err(err).Msg("Failed to clear cache entry")
		}
		e.publisher.Publish(ctx, holiday.Unpublished())
		return false
	}

	e.publisher.Publish(ctx, holiday.Publication(entry.Result, e.opts.Icon))
	return true
}
