package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
)

// CacheStore persists the single cache record of one instance
type CacheStore struct {
	db       *DB
	instance string
	logger   zerolog.Logger
}

// NewCacheStore creates a cache store bound to an instance name
func NewCacheStore(db *DB, instance string) (*CacheStore, error) {
	if db == nil {
		return nil, errors.New("database is required")
	}
	if instance == "" {
		return nil, errors.New("instance name is required")
	}
	return &CacheStore{
		db:       db,
		instance: instance,
		logger:   logging.GetLogger("cache-store").With().Str("instance", instance).Logger(),
	}, nil
}

// Read returns the stored entry, or nil when none is stored.
// A record that cannot be decoded is reported as absent.
func (s *CacheStore) Read(ctx context.Context) (*holiday.CacheEntry, error) {
	var payload string
	err := s.db.conn.QueryRowContext(ctx, `
		SELECT payload FROM holiday_cache WHERE instance = ?
	`, s.instance).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		s.logger.Debug().Msg("No cache entry stored")
		return nil, nil
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to read cache entry")
		return nil, fmt.Errorf("failed to read cache entry: %w", err)
	}

	var entry holiday.CacheEntry
	if err := json.Unmarshal([]byte(payload), &entry); err != nil {
		s.logger.Warn().Err(err).Str("payload", payload).Msg("Ignoring corrupt cache entry")
		return nil, nil
	}

	s.logger.Debug().
		Str("calendar_id", entry.CalendarID).
		Str("language", entry.Language).
		Str("date", entry.Date.String()).
		Msg("Cache entry loaded")
	return &entry, nil
}

// Write stores the entry, replacing any previous one
func (s *CacheStore) Write(ctx context.Context, entry holiday.CacheEntry) error {
	payload, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry: %w", err)
	}

	err = s.db.WithTransaction(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO holiday_cache (instance, payload, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT(instance) DO UPDATE SET
				payload = excluded.payload,
				updated_at = excluded.updated_at
		`, s.instance, string(payload), time.Now().UTC())
		return err
	})
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to write cache entry")
		return fmt.Errorf("failed to write cache entry: %w", err)
	}

	s.logger.Debug().
		Str("calendar_id", entry.CalendarID).
		Str("language", entry.Language).
		Str("date", entry.Date.String()).
		Msg("Cache entry written")
	return nil
}

// Clear removes the stored entry
func (s *CacheStore) Clear(ctx context.Context) error {
	if _, err := s.db.conn.ExecContext(ctx, `
		DELETE FROM holiday_cache WHERE instance = ?
	`, s.instance); err != nil {
		s.logger.Error().Err(err).Msg("Failed to clear cache entry")
		return fmt.Errorf("failed to clear cache entry: %w", err)
	}
	s.logger.Debug().Msg("Cache entry cleared")
	return nil
}
