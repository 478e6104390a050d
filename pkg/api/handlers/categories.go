package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopforge/shopforge/pkg/api/models"
	"github.com/shopforge/shopforge/pkg/api/response"
	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/logger"
	"github.com/shopforge/shopforge/pkg/storage"
)

// CategoryHandler handles category API endpoints.
type CategoryHandler struct {
	store     storage.RecordStore
	logger    logger.Logger
	validator *validator.Validate
}

// NewCategoryHandler creates a category handler.
func NewCategoryHandler(store storage.RecordStore, log logger.Logger) *CategoryHandler {
	return &CategoryHandler{
		store:     store,
		logger:    log,
		validator: validator.New(),
	}
}

// CreateCategory handles POST /api/v1/categories.
func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var payload models.CreateCategoryPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
		return
	}
	if err := h.validator.Struct(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(r.Context()))
		return
	}

	category, err := h.store.CreateCategory(r.Context(), catalog.CategoryRef{Name: payload.Name})
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusCreated, category)
}

// GetCategory handles GET /api/v1/categories/{id}.
func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	categoryID := chi.URLParam(r, "id")
	if categoryID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "category id is required", getRequestID(r.Context()))
		return
	}

	category, err := h.store.GetCategory(r.Context(), categoryID)
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, category)
}

// ListCategories handles GET /api/v1/categories.
func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	categories, err := h.store.ListCategories(r.Context())
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	if categories == nil {
		categories = []catalog.CategoryRef{}
	}
	response.JSON(w, http.StatusOK, models.CategoryListResponse{
		Items: categories,
		Total: len(categories),
	})
}
