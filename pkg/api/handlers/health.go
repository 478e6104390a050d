package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/shopforge/shopforge/pkg/api/response"
	"github.com/shopforge/shopforge/pkg/storage"
	"github.com/shopforge/shopforge/pkg/version"
)

const readinessProbeTimeout = 2 * time.Second

// HealthHandler handles health check endpoints.
type HealthHandler struct {
	store     storage.RecordStore
	startedAt time.Time
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(store storage.RecordStore) *HealthHandler {
	return &HealthHandler{
		store:     store,
		startedAt: time.Now().UTC(),
	}
}

// Health handles the /health endpoint (liveness probe).
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{
		"status": "ok",
	})
}

// Ready handles the /ready endpoint (readiness probe). The service is ready
// when the record store answers a cheap read.
func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readinessProbeTimeout)
	defer cancel()

	if _, err := h.store.ListCategories(ctx); err != nil {
		response.JSON(w, http.StatusServiceUnavailable, map[string]bool{
			"ready": false,
		})
		return
	}
	response.JSON(w, http.StatusOK, map[string]bool{
		"ready": true,
	})
}

// Status handles the /status endpoint (detailed status).
func (h *HealthHandler) Status(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]any{
		"version":        version.Info(),
		"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
	})
}
