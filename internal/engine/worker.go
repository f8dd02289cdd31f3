package engine

import (
	"context"
	"errors"
	"sync"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"github.com/belphemur/holidays/internal/logging"
)

// ErrWorkerStopped is returned when a trigger arrives after the worker stopped
var ErrWorkerStopped = errors.New("update worker stopped")

// Updater runs one update cycle
type Updater interface {
	Update(ctx context.Context, reason Reason) Outcome
}

type request struct {
	reason Reason
	result chan Outcome
}

// Worker runs update cycles one at a time, in arrival order
type Worker struct {
	updater Updater
	queue   chan request
	logger  zerolog.Logger

	startOnce sync.Once
	stopOnce  sync.Once
	cancel    context.CancelFunc
	done      chan struct{}

	pending   *atomic.Int64
	processed *atomic.Int64
	running   *atomic.Bool
	last      *atomic.Pointer[Outcome]
}

// NewWorker creates a worker with room for queueSize waiting triggers
func NewWorker(updater Updater, queueSize int) *Worker {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Worker{
		updater:   updater,
		queue:     make(chan request, queueSize),
		logger:    logging.GetLogger("worker"),
		done:      make(chan struct{}),
		pending:   atomic.NewInt64(0),
		processed: atomic.NewInt64(0),
		running:   atomic.NewBool(false),
		last:      atomic.NewPointer[Outcome](nil),
	}
}

// Start launches the worker goroutine. The context is handed to every cycle and
// cancelling it stops the worker.
func (w *Worker) Start(ctx context.Context) {
	w.startOnce.Do(func() {
		select {
		case <-w.done:
			return
		default:
		}
		ctx, w.cancel = context.WithCancel(ctx)
		go w.loop(ctx)
		w.logger.Info().Int("queue_size", cap(w.queue)).Msg("Update worker started")
	})
}

// Stop cancels the running cycle, drops queued triggers and waits for the worker to exit
func (w *Worker) Stop() {
	w.stopOnce.Do(func() {
		if w.cancel == nil {
			close(w.done)
			return
		}
		w.cancel()
		<-w.done
		w.logger.Info().Int64("processed", w.processed.Load()).Msg("Update worker stopped")
	})
}

func (w *Worker) loop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case <-ctx.Done():
			return
		case req := <-w.queue:
			w.pending.Dec()
			if ctx.Err() != nil {
				return
			}
			w.running.Store(true)
			outcome := w.updater.Update(ctx, req.reason)
			w.running.Store(false)
			w.processed.Inc()
			w.last.Store(&outcome)
			w.logger.Debug().Str("reason", req.reason.String()).Str("outcome", outcome.String()).Msg("Update cycle finished")
			if req.result != nil {
				req.result <- outcome
			}
		}
	}
}

func (w *Worker) enqueue(ctx context.Context, req request) error {
	select {
	case <-w.done:
		return ErrWorkerStopped
	default:
	}

	w.pending.Inc()
	select {
	case w.queue <- req:
		return nil
	case <-ctx.Done():
		w.pending.Dec()
		return ctx.Err()
	case <-w.done:
		w.pending.Dec()
		return ErrWorkerStopped
	}
}

// Trigger queues a cycle without waiting for it
func (w *Worker) Trigger(ctx context.Context, reason Reason) error {
	if err := w.enqueue(ctx, request{reason: reason}); err != nil {
		w.logger.Warn().Err(err).Str("reason", reason.String()).Msg("Dropping update trigger")
		return err
	}
	return nil
}

// Do queues a cycle and waits for its outcome
func (w *Worker) Do(ctx context.Context, reason Reason) (Outcome, error) {
	req := request{reason: reason, result: make(chan Outcome, 1)}
	if err := w.enqueue(ctx, req); err != nil {
		return 0, err
	}
	select {
	case outcome := <-req.result:
		return outcome, nil
	case <-ctx.Done():
		return 0, ctx.Err()
	case <-w.done:
		return 0, ErrWorkerStopped
	}
}

// Stats is a snapshot of the worker counters
type Stats struct {
	Pending     int64    `json:"pending"`
	Processed   int64    `json:"processed"`
	Running     bool     `json:"running"`
	LastOutcome *Outcome `json:"last_outcome,omitempty"`
}

// Stats returns the worker counters
func (w *Worker) Stats() Stats {
	return Stats{
		Pending:     w.pending.Load(),
		Processed:   w.processed.Load(),
		Running:     w.running.Load(),
		LastOutcome: w.last.Load(),
	}
}
