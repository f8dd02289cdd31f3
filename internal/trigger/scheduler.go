package trigger

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/config"
	"github.com/belphemur/holidays/internal/engine"
	"github.com/belphemur/holidays/internal/logging"
)

// MidnightSpec fires at the start of every UTC day
const MidnightSpec = "0 0 * * *"

// Scheduler queues periodic cycles on a cron schedule evaluated in UTC
type Scheduler struct {
	cron    *cron.Cron
	target  Target
	ctx     context.Context
	entries map[string]cron.EntryID
	logger  zerolog.Logger
}

// NewScheduler registers the configured periodic spec and, when enabled, the UTC midnight spec
func NewScheduler(cfg config.ScheduleConfig, target Target) (*Scheduler, error) {
	logger := logging.GetLogger("scheduler")
	s := &Scheduler{
		cron: cron.New(
			cron.WithLocation(time.UTC),
			cron.WithLogger(cronLogger{logger: logger}),
		),
		target:  target,
		ctx:     context.Background(),
		entries: make(map[string]cron.EntryID),
		logger:  logger,
	}

	if err := s.add("periodic", cfg.Periodic); err != nil {
		return nil, err
	}
	if cfg.Midnight {
		if err := s.add("midnight", MidnightSpec); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func (s *Scheduler) add(name, spec string) error {
	id, err := s.cron.AddFunc(spec, func() { s.fire(name) })
	if err != nil {
		return fmt.Errorf("invalid %s schedule %q: %w", name, spec, err)
	}
	s.entries[name] = id
	s.logger.Debug().Str("schedule", name).Str("spec", spec).Msg("Registered schedule")
	return nil
}

func (s *Scheduler) fire(name string) {
	s.logger.Debug().Str("schedule", name).Msg("Schedule fired")
	if err := s.target.Trigger(s.ctx, engine.ReasonPeriodic); err != nil {
		s.logger.Warn().Err(err).Str("schedule", name).Msg("Failed to queue periodic update")
	}
}

// Start begins running the schedules; ctx bounds the triggers it queues
func (s *Scheduler) Start(ctx context.Context) {
	s.ctx = ctx
	s.cron.Start()
	for name, id := range s.entries {
		s.logger.Info().Str("schedule", name).Time("next", s.cron.Entry(id).Next).Msg("Schedule started")
	}
}

// Stop halts the schedules and waits for a running trigger to return
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
	s.logger.Info().Msg("Scheduler stopped")
}

// Next returns when the named schedule fires next after t
func (s *Scheduler) Next(name string, t time.Time) (time.Time, bool) {
	id, ok := s.entries[name]
	if !ok {
		return time.Time{}, false
	}
	return s.cron.Entry(id).Schedule.Next(t), true
}

// cronLogger adapts zerolog to cron.Logger
type cronLogger struct {
	logger zerolog.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug().Fields(keysAndValues).Msg(msg)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error().Err(err).Fields(keysAndValues).Msg(msg)
}
