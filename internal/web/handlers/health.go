package handlers

import (
	"encoding/json"
	"net/http"
)

// Health handles GET /healthz.
func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	payload := map[string]any{"status": "ok"}
	if h.sessions != nil {
		payload["sessions"] = h.sessions.Len()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Debug("health write failed", "error", err)
	}
}
