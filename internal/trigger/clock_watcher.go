package trigger

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/engine"
	"github.com/belphemur/holidays/internal/logging"
)

// ClockWatcher queues an external-signal cycle when the wall clock jumps relative
// to the monotonic clock, as happens when the system time or time zone is changed.
type ClockWatcher struct {
	interval  time.Duration
	threshold time.Duration
	target    Target
	logger    zerolog.Logger

	wall    func() time.Time
	elapsed func() time.Duration
}

// NewClockWatcher creates a watcher sampling the clocks every interval
func NewClockWatcher(interval, threshold time.Duration, target Target) *ClockWatcher {
	start := time.Now()
	return &ClockWatcher{
		interval:  interval,
		threshold: threshold,
		target:    target,
		logger:    logging.GetLogger("clock-watcher"),
		wall:      func() time.Time { return time.Now().Round(0) },
		elapsed:   func() time.Duration { return time.Since(start) },
	}
}

// Run samples the clocks until ctx is done
func (w *ClockWatcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	lastWall, lastElapsed := w.wall(), w.elapsed()
	w.logger.Info().Dur("interval", w.interval).Dur("threshold", w.threshold).Msg("Clock watcher started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("Clock watcher stopped")
			return
		case <-ticker.C:
			lastWall, lastElapsed = w.check(ctx, lastWall, lastElapsed)
		}
	}
}

// check compares a new sample with the previous one and returns the new sample
func (w *ClockWatcher) check(ctx context.Context, lastWall time.Time, lastElapsed time.Duration) (time.Time, time.Duration) {
	nowWall, nowElapsed := w.wall(), w.elapsed()

	jump := nowWall.Sub(lastWall) - (nowElapsed - lastElapsed)
	if jump < 0 {
		jump = -jump
	}
	if jump > w.threshold {
		w.logger.Info().Dur("jump", jump).Time("wall_clock", nowWall).Msg("Wall clock changed")
		if err := w.target.Trigger(ctx, engine.ReasonExternalSignal); err != nil {
			w.logger.Warn().Err(err).Msg("Failed to queue update after clock change")
		}
	}
	return nowWall, nowElapsed
}
