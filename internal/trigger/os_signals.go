package trigger

import (
	"context"
	"os"
	"os/signal"

	"github.com/belphemur/holidays/internal/engine"
	"github.com/belphemur/holidays/internal/logging"
)

// WatchSignals queues an external-signal cycle for every received OS signal until ctx is done
func WatchSignals(ctx context.Context, target Target, sigs ...os.Signal) {
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, sigs...)
	go func() {
		defer signal.Stop(ch)
		forwardSignals(ctx, ch, target)
	}()
}

func forwardSignals(ctx context.Context, ch <-chan os.Signal, target Target) {
	logger := logging.GetLogger("signals")
	for {
		select {
		case <-ctx.Done():
			return
		case sig := <-ch:
			logger.Info().Str("signal", sig.String()).Msg("Received signal, queueing update")
			if err := target.Trigger(ctx, engine.ReasonExternalSignal); err != nil {
				logger.Warn().Err(err).Msg("Failed to queue update after signal")
			}
		}
	}
}
