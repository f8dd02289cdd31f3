package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/belphemur/holidays/internal/engine"
	"github.com/belphemur/holidays/internal/holiday"
)

// DefaultRefreshTimeout bounds how long a refresh request waits for its cycle
const DefaultRefreshTimeout = time.Minute

// RefreshResponse is the JSON body of /api/refresh
type RefreshResponse struct {
	Outcome   engine.Outcome         `json:"outcome"`
	Published *holiday.ExtensionData `json:"published"`
	Worker    engine.Stats           `json:"worker"`
}

// RefreshHandler runs a manual update cycle
type RefreshHandler struct {
	*BaseHandler
	Timeout time.Duration
}

// NewRefreshHandler creates a new refresh handler
func NewRefreshHandler(baseHandler *BaseHandler, timeout time.Duration) *RefreshHandler {
	if timeout <= 0 {
		timeout = DefaultRefreshTimeout
	}
	return &RefreshHandler{BaseHandler: baseHandler, Timeout: timeout}
}

// RegisterRoutes registers refresh routes
func (h *RefreshHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/refresh", h.handleRefresh)
}

func (h *RefreshHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	handlerLogger := h.logger.With().Str("handler", "handleRefresh").Logger()
	handlerLogger.Info().Str("method", r.Method).Msg("Handling refresh request")

	if r.Method != http.MethodPost {
		handlerLogger.Warn().Msg("Invalid method for refresh request")
		w.Header().Set("Allow", http.MethodPost)
		h.writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), h.Timeout)
	defer cancel()

	outcome, err := h.Refresher.Do(ctx, engine.ReasonManual)
	if err != nil {
		handlerLogger.Error().Err(err).Msg("Manual refresh failed")
		switch {
		case errors.Is(err, engine.ErrWorkerStopped):
			h.writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable)
		case errors.Is(err, context.DeadlineExceeded):
			h.writeError(w, http.StatusGatewayTimeout, ErrCodeRefreshTimeout)
		default:
			h.writeError(w, http.StatusInternalServerError, ErrCodeRefreshFailed)
		}
		return
	}

	response := RefreshResponse{Outcome: outcome, Worker: h.Refresher.Stats()}
	if published, ok := h.State.Latest(); ok {
		response.Published = &published
	}
	handlerLogger.Info().Str("outcome", outcome.String()).Msg("Manual refresh completed")
	h.writeJSON(w, http.StatusOK, response)
}
