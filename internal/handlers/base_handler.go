// Package handlers exposes the published holiday state and manual refreshes over HTTP.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/belphemur/holidays/internal/engine"
	"github.com/belphemur/holidays/internal/holiday"
	"github.com/belphemur/holidays/internal/logging"
)

// StateReader returns the latest publication
type StateReader interface {
	Latest() (holiday.ExtensionData, bool)
}

// Refresher runs update cycles on demand; engine.Worker satisfies it
type Refresher interface {
	Do(ctx context.Context, reason engine.Reason) (engine.Outcome, error)
	Stats() engine.Stats
}

// BaseHandler contains common handler functionality
type BaseHandler struct {
	State     StateReader
	Refresher Refresher
	logger    zerolog.Logger
}

// NewBaseHandler creates a common base handler with shared components
func NewBaseHandler(state StateReader, refresher Refresher) *BaseHandler {
	return &BaseHandler{
		State:     state,
		Refresher: refresher,
		logger:    logging.GetLogger("handlers"),
	}
}

// writeJSON writes v as the JSON response body
func (h *BaseHandler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError writes an ErrorResponse for code
func (h *BaseHandler) writeError(w http.ResponseWriter, status int, code string) {
	h.writeJSON(w, status, ErrorResponse{Code: code, Message: ErrorMessages[code]})
}
