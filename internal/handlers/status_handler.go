package handlers

import "net/http"

// StatusHandler serves the latest publication
type StatusHandler struct {
	*BaseHandler
}

// NewStatusHandler creates a new status handler
func NewStatusHandler(baseHandler *BaseHandler) *StatusHandler {
	return &StatusHandler{BaseHandler: baseHandler}
}

// RegisterRoutes registers status routes
func (h *StatusHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/status", h.handleStatus)
}

// handleStatus returns 204 until the first publication
func (h *StatusHandler) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		h.writeError(w, http.StatusMethodNotAllowed, ErrCodeMethodNotAllowed)
		return
	}

	published, ok := h.State.Latest()
	if !ok {
		h.logger.Debug().Msg("Status requested before first publication")
		w.WriteHeader(http.StatusNoContent)
		return
	}

	h.writeJSON(w, http.StatusOK, published)
}
