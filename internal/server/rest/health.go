package rest

import (
	"context"
	"net/http"
	"time"
)

// Pinger reports whether the storage backend is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

const readinessTimeout = 3 * time.Second

func (h *Handler) live(w http.ResponseWriter, _ *http.Request) {
	writeSuccess(w, http.StatusOK, "Service is alive", nil)
}

func (h *Handler) ready(w http.ResponseWriter, r *http.Request) {
	if h.storage == nil {
		writeSuccess(w, http.StatusOK, "Service is ready", nil)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), readinessTimeout)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		h.logger.Warn(r.Context(), "readiness check failed", "error", err)
		writeError(w, http.StatusServiceUnavailable, "Storage is unavailable", "")
		return
	}
	writeSuccess(w, http.StatusOK, "Service is ready", nil)
}
