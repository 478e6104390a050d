package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopforge/shopforge/pkg/api/models"
	"github.com/shopforge/shopforge/pkg/api/response"
	"github.com/shopforge/shopforge/pkg/logger"
	"github.com/shopforge/shopforge/pkg/saga"
)

// RunHandler exposes the journaled workflow run history.
type RunHandler struct {
	journal saga.Journal
	logger  logger.Logger
}

// NewRunHandler creates a run handler.
func NewRunHandler(journal saga.Journal, log logger.Logger) *RunHandler {
	return &RunHandler{
		journal: journal,
		logger:  log,
	}
}

// GetRun handles GET /api/v1/runs/{id}.
func (h *RunHandler) GetRun(w http.ResponseWriter, r *http.Request) {
	runID := chi.URLParam(r, "id")
	if runID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "run id is required", getRequestID(r.Context()))
		return
	}

	run, err := h.journal.Get(r.Context(), runID)
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, models.NewRunResponse(run))
}

// ListRuns handles GET /api/v1/runs.
func (h *RunHandler) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	status := strings.TrimSpace(r.URL.Query().Get("status"))
	if status != "" {
		if _, err := saga.ParseRunStatus(status); err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "unknown run status: "+status, getRequestID(r.Context()))
			return
		}
	}

	runs, total, err := h.journal.List(r.Context(), saga.RunListFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}

	items := make([]models.RunSummary, 0, len(runs))
	for _, run := range runs {
		items = append(items, models.NewRunSummary(run))
	}
	response.JSON(w, http.StatusOK, models.RunListResponse{
		Items:  items,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}
