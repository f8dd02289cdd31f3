package config

import (
	"fmt"
	"sync"

	"github.com/knadh/koanf/providers/file"
	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/belphemur/holidays/internal/logging"
)

// ChangeFunc is invoked after a reload changed the calendar selection
type ChangeFunc func(previous, current CalendarConfig)

// Watcher provides the current calendar selection and reloads it from disk on demand
// or whenever the configuration file changes.
type Watcher struct {
	path     string
	current  *atomic.Pointer[Config]
	logger   zerolog.Logger
	mu       sync.Mutex
	provider *file.File
	onChange ChangeFunc
}

// NewWatcher creates a watcher seeded with an already loaded configuration
func NewWatcher(path string, cfg *Config) *Watcher {
	return &Watcher{
		path:    path,
		current: atomic.NewPointer(cfg),
		logger:  logging.GetLogger("config-watcher"),
	}
}

// Config returns the latest successfully loaded configuration
func (w *Watcher) Config() *Config {
	return w.current.Load()
}

// Settings returns the current calendar selection
func (w *Watcher) Settings() CalendarConfig {
	return w.current.Load().Calendar
}

// Reload re-reads the configuration file. An invalid file leaves the previous
// configuration in place. It reports whether the calendar selection changed.
func (w *Watcher) Reload() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	next, err := Load(w.path)
	if err != nil {
		return false, fmt.Errorf("failed to reload configuration: %w", err)
	}

	previous := w.current.Swap(next)
	changed := previous.Calendar != next.Calendar
	if changed {
		w.logger.Info().
			Str("previous_calendar", previous.Calendar.ID).
			Str("previous_language", previous.Calendar.Language).
			Str("calendar", next.Calendar.ID).
			Str("language", next.Calendar.Language).
			Msg("Calendar selection changed")
		if w.onChange != nil {
			w.onChange(previous.Calendar, next.Calendar)
		}
	}
	return changed, nil
}

// Watch starts watching the configuration file and reloads it on every write
func (w *Watcher) Watch(onChange ChangeFunc) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.provider != nil {
		return fmt.Errorf("configuration watcher already started")
	}

	w.onChange = onChange
	provider := file.Provider(w.path)
	if err := provider.Watch(func(_ any, err error) {
		if err != nil {
			w.logger.Error().Err(err).Msg("Configuration file watch failed")
			return
		}
		if _, err := w.Reload(); err != nil {
			w.logger.Warn().Err(err).Msg("Ignoring invalid configuration change")
		}
	}); err != nil {
		return fmt.Errorf("failed to watch configuration file: %w", err)
	}
	w.provider = provider
	w.logger.Info().Str("path", w.path).Msg("Watching configuration file")
	return nil
}

// Unwatch stops watching the configuration file
func (w *Watcher) Unwatch() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.provider == nil {
		return nil
	}
	err := w.provider.Unwatch()
	w.provider = nil
	return err
}
