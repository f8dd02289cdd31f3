// Package trigger turns schedules, clock jumps and OS signals into update cycles.
package trigger

import (
	"context"

	"github.com/belphemur/holidays/internal/engine"
)

// Target receives update triggers; engine.Worker satisfies it
type Target interface {
	Trigger(ctx context.Context, reason engine.Reason) error
}

var _ Target = (*engine.Worker)(nil)
