// Package handlers provides HTTP request handlers.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/shopforge/shopforge/pkg/api/middleware"
	"github.com/shopforge/shopforge/pkg/api/models"
	"github.com/shopforge/shopforge/pkg/api/response"
	"github.com/shopforge/shopforge/pkg/assets"
	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/events"
	"github.com/shopforge/shopforge/pkg/logger"
	"github.com/shopforge/shopforge/pkg/saga"
	"github.com/shopforge/shopforge/pkg/storage"
)

const (
	maxMultipartMemory = 32 << 20
	maxImageBytes      = 10 << 20

	idempotencyKeyHeader = "Idempotency-Key"
)

// ProductHandler handles product API endpoints.
type ProductHandler struct {
	orchestrator *saga.Orchestrator
	store        storage.RecordStore
	assets       assets.Store
	idempotency  saga.IdempotencyStore
	publisher    events.Publisher
	logger       logger.Logger
	validator    *validator.Validate
}

// NewProductHandler creates a product handler.
func NewProductHandler(
	orchestrator *saga.Orchestrator,
	store storage.RecordStore,
	assetStore assets.Store,
	idempotency saga.IdempotencyStore,
	publisher events.Publisher,
	log logger.Logger,
) *ProductHandler {
	if idempotency == nil {
		idempotency = saga.NewMemoryIdempotencyStore()
	}
	if publisher == nil {
		publisher = events.NopPublisher{}
	}
	return &ProductHandler{
		orchestrator: orchestrator,
		store:        store,
		assets:       assetStore,
		idempotency:  idempotency,
		publisher:    publisher,
		logger:       log,
		validator:    validator.New(),
	}
}

// CreateProduct handles POST /api/v1/products.
//
// The request is either a plain JSON body, or a multipart form with a JSON
// "product" field plus any number of "images" file parts. File parts keep
// their submission order as display order.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	if h.orchestrator == nil {
		response.Error(w, http.StatusServiceUnavailable, response.ErrCodeServiceUnavailable, "product pipeline unavailable", getRequestID(r.Context()))
		return
	}

	idemKey := strings.TrimSpace(r.Header.Get(idempotencyKeyHeader))
	if idemKey != "" {
		productID, err := h.idempotency.Get(r.Context(), idemKey)
		if err != nil {
			h.logger.Warn("idempotency lookup failed", "error", err)
		} else if productID != "" {
			aggregate, err := h.loadAggregate(r.Context(), productID)
			if err != nil {
				response.HandleError(w, err, getRequestID(r.Context()))
				return
			}
			response.JSON(w, http.StatusOK, aggregate)
			return
		}
	}

	payload, files, ok := h.decodeCreateRequest(w, r)
	if !ok {
		return
	}
	if err := h.validator.Struct(&payload); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, err.Error(), getRequestID(r.Context()))
		return
	}

	aggregate, err := h.orchestrator.Execute(r.Context(), payload.CreateRequest(), files)
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}

	if idemKey != "" {
		if err := h.idempotency.Set(context.WithoutCancel(r.Context()), idemKey, aggregate.Product.ID); err != nil {
			h.logger.Warn("idempotency record failed", "key", idemKey, "error", err)
		}
	}
	h.publish(r.Context(), events.NewEvent(events.TypeProductCreated, aggregate.Product.ID, map[string]any{
		"product_id": aggregate.Product.ID,
		"name":       aggregate.Product.Name,
		"status":     aggregate.Product.Status,
	}))

	response.JSON(w, http.StatusCreated, aggregate)
}

// GetProduct handles GET /api/v1/products/{id}.
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "product id is required", getRequestID(r.Context()))
		return
	}

	aggregate, err := h.loadAggregate(r.Context(), productID)
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	response.JSON(w, http.StatusOK, aggregate)
}

// ListProducts handles GET /api/v1/products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, offset := parsePagination(r)
	status := strings.TrimSpace(r.URL.Query().Get("status"))

	products, total, err := h.store.ListProducts(r.Context(), storage.ProductFilter{
		Status: status,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	if products == nil {
		products = []catalog.Product{}
	}

	response.JSON(w, http.StatusOK, models.ProductListResponse{
		Items:  products,
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// ListProductImages handles GET /api/v1/products/{id}/images.
func (h *ProductHandler) ListProductImages(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "product id is required", getRequestID(r.Context()))
		return
	}

	if _, err := h.store.GetProduct(r.Context(), productID); err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	images, err := h.store.ListImages(r.Context(), productID)
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	if images == nil {
		images = []catalog.ImageDescriptor{}
	}

	response.JSON(w, http.StatusOK, models.ImageListResponse{
		Items: images,
		Total: len(images),
	})
}

// DeleteProduct handles DELETE /api/v1/products/{id}. The product row is
// removed together with its images, attributes, links, and remote assets.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "id")
	if productID == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "product id is required", getRequestID(r.Context()))
		return
	}

	if _, err := h.store.GetProduct(r.Context(), productID); err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}

	images, err := h.store.ListImages(r.Context(), productID)
	if err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	for _, image := range images {
		if err := h.assets.Delete(r.Context(), image.ExternalID); err != nil && !errors.Is(err, assets.ErrAssetNotFound) {
			h.logger.Warn("asset delete failed", "product_id", productID, "external_id", image.ExternalID, "error", err)
		}
	}

	if err := h.store.DeleteImages(r.Context(), productID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	if err := h.store.DeleteAttributes(r.Context(), productID); err != nil && !errors.Is(err, storage.ErrNotFound) {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}
	if category, err := h.store.ProductCategory(r.Context(), productID); err == nil && category != nil {
		if err := h.store.UnlinkCategory(r.Context(), productID, category.ID); err != nil && !errors.Is(err, storage.ErrNotFound) {
			h.logger.Warn("category unlink failed", "product_id", productID, "error", err)
		}
	}
	if err := h.store.DeleteProduct(r.Context(), productID); err != nil {
		response.HandleError(w, err, getRequestID(r.Context()))
		return
	}

	h.publish(r.Context(), events.NewEvent(events.TypeProductDeleted, productID, map[string]any{
		"product_id": productID,
	}))

	w.WriteHeader(http.StatusNoContent)
}

// loadAggregate assembles the full product view from stored rows.
func (h *ProductHandler) loadAggregate(ctx context.Context, productID string) (*catalog.ProductAggregate, error) {
	product, err := h.store.GetProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	images, err := h.store.ListImages(ctx, productID)
	if err != nil {
		return nil, err
	}
	attrs, err := h.store.ListAttributes(ctx, productID)
	if err != nil {
		return nil, err
	}
	category, err := h.store.ProductCategory(ctx, productID)
	if err != nil {
		return nil, err
	}
	if images == nil {
		images = []catalog.ImageDescriptor{}
	}
	if attrs == nil {
		attrs = []catalog.Attribute{}
	}
	return &catalog.ProductAggregate{
		Product:    product,
		Images:     images,
		Attributes: attrs,
		Category:   category,
	}, nil
}

func (h *ProductHandler) decodeCreateRequest(w http.ResponseWriter, r *http.Request) (models.CreateProductPayload, []catalog.ImageUpload, bool) {
	var payload models.CreateProductPayload

	contentType := r.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "multipart/") {
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid request body", getRequestID(r.Context()))
			return payload, nil, false
		}
		return payload, nil, true
	}

	if err := r.ParseMultipartForm(maxMultipartMemory); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid multipart form", getRequestID(r.Context()))
		return payload, nil, false
	}
	if r.MultipartForm != nil {
		defer func() { _ = r.MultipartForm.RemoveAll() }()
	}

	productJSON := r.FormValue("product")
	if strings.TrimSpace(productJSON) == "" {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "product field is required", getRequestID(r.Context()))
		return payload, nil, false
	}
	if err := json.Unmarshal([]byte(productJSON), &payload); err != nil {
		response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "invalid product field", getRequestID(r.Context()))
		return payload, nil, false
	}

	var files []catalog.ImageUpload
	if r.MultipartForm != nil {
		for order, header := range r.MultipartForm.File["images"] {
			file, err := header.Open()
			if err != nil {
				response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "unreadable image part", getRequestID(r.Context()))
				return payload, nil, false
			}
			data, err := io.ReadAll(io.LimitReader(file, maxImageBytes+1))
			_ = file.Close()
			if err != nil {
				response.Error(w, http.StatusBadRequest, response.ErrCodeBadRequest, "unreadable image part", getRequestID(r.Context()))
				return payload, nil, false
			}
			if len(data) > maxImageBytes {
				response.Error(w, http.StatusBadRequest, response.ErrCodeValidationFailed, "image exceeds size limit", getRequestID(r.Context()))
				return payload, nil, false
			}
			files = append(files, catalog.ImageUpload{Data: data, DisplayOrder: order})
		}
	}
	return payload, files, true
}

func (h *ProductHandler) publish(ctx context.Context, event events.Event) {
	if err := h.publisher.Publish(context.WithoutCancel(ctx), event); err != nil {
		h.logger.Warn("event publish failed", "type", event.Type, "key", event.Key, "error", err)
	}
}

func parsePagination(r *http.Request) (limit, offset int) {
	limit = 20
	offset = 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			limit = parsed
		}
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed >= 0 {
			offset = parsed
		}
	}
	return limit, offset
}

// getRequestID extracts request ID from context
func getRequestID(ctx context.Context) string {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		return reqID
	}
	return "unknown"
}
