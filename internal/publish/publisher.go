// Package publish fans publications out to in-process observers and keeps the latest one.
package publish

import (
	"context"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
	"github.com/belphemur/holidays/internal/signals"
)

// SignalPublisher emits every publication on signals.HolidayPublished
type SignalPublisher struct{}

// NewSignalPublisher creates a publisher backed by the HolidayPublished signal
func NewSignalPublisher() *SignalPublisher {
	return &SignalPublisher{}
}

// Publish emits the publication and returns once every listener ran
func (p *SignalPublisher) Publish(ctx context.Context, data holiday.ExtensionData) {
	signals.EmitHolidayPublished(ctx, data)
}

// State remembers the latest publication
type State struct {
	latest *atomic.Pointer[holiday.ExtensionData]
	count  *atomic.Int64
}

// NewState creates an empty State
func NewState() *State {
	return &State{
		latest: atomic.NewPointer[holiday.ExtensionData](nil),
		count:  atomic.NewInt64(0),
	}
}

// Record stores a publication; it has the signature of a HolidayPublished listener
func (s *State) Record(_ context.Context, data holiday.ExtensionData) {
	s.latest.Store(&data)
	s.count.Inc()
}

// Latest returns the last publication and whether anything was published yet
func (s *State) Latest() (holiday.ExtensionData, bool) {
	data := s.latest.Load()
	if data == nil {
		return holiday.ExtensionData{}, false
	}
	return *data, true
}

// Count returns the number of publications recorded
func (s *State) Count() int64 {
	return s.count.Load()
}

// Subscribe registers the state as a HolidayPublished listener
func (s *State) Subscribe(key string) {
	signals.OnHolidayPublished(s.Record, key)
}

// LogListener logs every publication
func LogListener() func(ctx context.Context, data holiday.ExtensionData) {
	logger := logging.GetLogger("publish")
	return func(_ context.Context, data holiday.ExtensionData) {
		event := logger.Info().Bool("visible", data.Visible)
		addOptional(event, "status", data.Status)
		addOptional(event, "expanded_title", data.ExpandedTitle)
		addOptional(event, "expanded_body", data.ExpandedBody)
		if data.ClickTarget != "" {
			event = event.Str("click_target", data.ClickTarget)
		}
		event.Msg("Published holiday status")
	}
}

func addOptional(event *zerolog.Event, key string, value *string) {
	if value != nil {
		event.Str(key, *value)
	}
}
