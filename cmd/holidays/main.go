package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"

	"github.com/belphemur/holidays/internal/clock"
	"github.com/belphemur/holidays/internal/config"
	"github.com/belphemur/holidays/internal/connectivity"
	"github.com/belphemur/holidays/internal/constants"
	"github.com/belphemur/holidays/internal/database"
	"github.com/belphemur/holidays/internal/engine"
	"github.com/belphemur/holidays/internal/feed"
	"github.com/belphemur/holidays/internal/handlers"
	"github.com/belphemur/holidays/internal/logging"
	"github.com/belphemur/holidays/internal/notify"
	"github.com/belphemur/holidays/internal/publish"
	appSignals "github.com/belphemur/holidays/internal/signals"
	"github.com/belphemur/holidays/internal/trigger"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// workerQueueSize bounds the triggers waiting behind the running cycle
const workerQueueSize = 16

func main() {
	// Determine if we're in development mode
	isDev := os.Getenv("ENV") != "production"

	logging.Initialize(isDev)
	logger := logging.GetLogger("main")

	logger.Info().
		Str("version", version).
		Str("commit", commit).
		Str("build_date", date).
		Msg("Starting Holidays service")

	// Create context that's canceled on SIGINT/SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info().Str("signal", sig.String()).Msg("Received signal, initiating shutdown")
		cancel()
	}()

	if err := run(ctx, isDev); err != nil {
		logger.Fatal().Err(err).Msg("Application run failed")
	}
}

func run(ctx context.Context, isDev bool) (err error) {
	logger := logging.GetLogger("main")

	configPath := os.Getenv("CONFIG_FILE")
	if configPath == "" {
		configPath = "configs/holidays.toml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Error().Err(err).Str("config_path", configPath).Msg("Failed to load configuration")
		return err
	}

	if !isDev {
		logging.SetLogLevel(cfg.Service.LogLevel)
		logger.Info().Str("log_level", cfg.Service.LogLevel).Msg("Log level set")
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Service.StateFile), 0755); err != nil {
		logger.Error().Err(err).Str("path", filepath.Dir(cfg.Service.StateFile)).Msg("Failed to create data directory")
		return err
	}

	db, err := database.New(database.NewDefaultOptions(cfg.Service.StateFile))
	if err != nil {
		wrappedErr := fmt.Errorf("failed to initialize database: %w", err)
		logger.Error().Err(wrappedErr).Str("db_path", cfg.Service.StateFile).Msg("Database initialization failed")
		return wrappedErr
	}
	var closers []func() error
	defer func() {
		err = multierror.Append(err, shutdown(closers)).ErrorOrNil()
	}()
	closers = append(closers, db.Close)

	if err := db.MigrateDatabase(); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	cache, err := database.NewCacheStore(db, cfg.Service.Instance)
	if err != nil {
		return fmt.Errorf("failed to create cache store: %w", err)
	}

	clk := clock.Real{}
	fetcher, err := newFetcher(ctx, cfg.Feed, clk)
	if err != nil {
		return err
	}

	// Publication fan-out
	state := publish.NewState()
	state.Subscribe("main-state")
	appSignals.OnHolidayPublished(publish.LogListener(), "main-log")
	if cfg.Publish.Notify {
		notifier, err := notify.New(constants.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("Desktop notifications unavailable")
		} else {
			appSignals.OnHolidayPublished(notifier.Listen, "main-notify")
			closers = append(closers, notifier.Close)
		}
	}

	watcher := config.NewWatcher(configPath, cfg)
	eng := engine.New(
		watcher,
		cache,
		fetcher,
		connectivity.NewChecker(cfg.Connectivity, nil),
		publish.NewSignalPublisher(),
		clk,
		engine.OptionsFromConfig(cfg.Publish),
	)

	worker := engine.NewWorker(eng, workerQueueSize)
	worker.Start(ctx)
	closers = append(closers, func() error { worker.Stop(); return nil })

	// Configuration reloads trigger a cycle once the calendar selection changed
	appSignals.OnCalendarChanged(func(ctx context.Context, data appSignals.CalendarChangedData) {
		signalLogger := logging.GetLogger("signal-calendar-changed")
		signalLogger.Info().
			Str("calendar_id", data.CalendarID).
			Str("language", data.Language).
			Msg("Calendar selection changed - queueing update")
		if err := worker.Trigger(ctx, engine.ReasonExternalSignal); err != nil {
			signalLogger.Warn().Err(err).Msg("Failed to queue update after calendar change")
		}
	}, "main-calendar-changed-handler")

	if err := watcher.Watch(func(_, current config.CalendarConfig) {
		appSignals.EmitCalendarChanged(ctx, current.ID, current.Language)
	}); err != nil {
		logger.Warn().Err(err).Msg("Configuration changes will not be picked up")
	} else {
		closers = append(closers, watcher.Unwatch)
	}

	sched, err := trigger.NewScheduler(cfg.Schedule, worker)
	if err != nil {
		return err
	}
	sched.Start(ctx)
	closers = append(closers, func() error { sched.Stop(); return nil })

	if cfg.Schedule.ClockWatchInterval > 0 {
		go trigger.NewClockWatcher(cfg.Schedule.ClockWatchInterval, cfg.Schedule.ClockJumpThreshold, worker).Run(ctx)
	}
	trigger.WatchSignals(ctx, worker, syscall.SIGHUP)

	if err := worker.Trigger(ctx, engine.ReasonInitial); err != nil {
		return fmt.Errorf("failed to queue initial update: %w", err)
	}

	if cfg.Service.Port > 0 {
		srv := newServer(cfg.Service.Port, state, worker)
		go func() {
			logger.Info().Int("port", cfg.Service.Port).Msg("Starting HTTP server")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				logger.Error().Err(err).Msg("HTTP server error")
			}
		}()
		closers = append(closers, func() error {
			shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer shutdownCancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	<-ctx.Done()
	logger.Info().Msg("Context cancelled, initiating shutdown sequence")
	return nil
}

// newFetcher picks the Google Calendar API when an API key is configured, the ICS feed otherwise
func newFetcher(ctx context.Context, cfg config.FeedConfig, clk clock.Clock) (feed.Fetcher, error) {
	logger := logging.GetLogger("main")
	if cfg.GoogleAPIKey != "" {
		fetcher, err := feed.NewGoogleFetcher(ctx, cfg.GoogleAPIKey, clk)
		if err != nil {
			return nil, fmt.Errorf("failed to create Google Calendar fetcher: %w", err)
		}
		logger.Info().Msg("Using Google Calendar API fetcher")
		return fetcher, nil
	}
	logger.Info().Str("url_template", cfg.URLTemplate).Msg("Using ICS feed fetcher")
	return feed.NewICSFetcher(cfg, nil), nil
}

func newServer(port int, state *publish.State, worker *engine.Worker) *http.Server {
	base := handlers.NewBaseHandler(state, worker)
	mux := http.NewServeMux()
	handlers.NewHealthHandler(base).RegisterRoutes(mux)
	handlers.NewStatusHandler(base).RegisterRoutes(mux)
	handlers.NewRefreshHandler(base, handlers.DefaultRefreshTimeout).RegisterRoutes(mux)

	return &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

// shutdown runs the closers in reverse registration order and collects their errors
func shutdown(closers []func() error) error {
	logger := logging.GetLogger("main")
	var result *multierror.Error
	for i := len(closers) - 1; i >= 0; i-- {
		if err := closers[i](); err != nil {
			result = multierror.Append(result, err)
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		logger.Error().Err(err).Msg("Shutdown finished with errors")
		return err
	}
	logger.Info().Msg("Shutdown complete")
	return nil
}
