package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/shopforge/shopforge/pkg/api/models"
	"github.com/shopforge/shopforge/pkg/assets"
	"github.com/shopforge/shopforge/pkg/catalog"
	"github.com/shopforge/shopforge/pkg/logger"
	"github.com/shopforge/shopforge/pkg/saga"
	storagemem "github.com/shopforge/shopforge/pkg/storage/memory"
)

func newProductTestHandler(t *testing.T) (*ProductHandler, *storagemem.MemoryStore) {
	t.Helper()

	store := storagemem.NewMemoryStore()
	assetStore := assets.NewMemoryStore()
	orchestrator, err := saga.NewOrchestrator(store, assetStore)
	if err != nil {
		t.Fatalf("NewOrchestrator: %v", err)
	}
	handler := NewProductHandler(orchestrator, store, assetStore, nil, nil, logger.Global())
	return handler, store
}

func routeWithID(handler http.HandlerFunc, method, path string) *chi.Mux {
	router := chi.NewRouter()
	router.Method(method, path, handler)
	return router
}

func TestProductHandler_CreateJSON(t *testing.T) {
	handler, _ := newProductTestHandler(t)

	body := `{"name":"Shirt","price_minor":1999,"currency":"USD","attributes":[{"variant_type":"color","value":"red"}]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.CreateProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var aggregate catalog.ProductAggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &aggregate); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if aggregate.Product.ID == "" {
		t.Fatal("product id missing in response")
	}
	if len(aggregate.Attributes) != 1 || aggregate.Attributes[0].Value != "red" {
		t.Fatalf("attributes = %+v", aggregate.Attributes)
	}
}

func TestProductHandler_CreateMultipartWithImages(t *testing.T) {
	handler, store := newProductTestHandler(t)

	category, err := store.CreateCategory(context.Background(), catalog.CategoryRef{Name: "Shirts"})
	if err != nil {
		t.Fatalf("CreateCategory: %v", err)
	}

	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	productJSON := fmt.Sprintf(`{"name":"Shirt","price_minor":1999,"category_id":%q}`, category.ID)
	if err := form.WriteField("product", productJSON); err != nil {
		t.Fatalf("WriteField: %v", err)
	}
	for i := 0; i < 2; i++ {
		part, err := form.CreateFormFile("images", fmt.Sprintf("img-%d.jpg", i))
		if err != nil {
			t.Fatalf("CreateFormFile: %v", err)
		}
		if _, err := part.Write([]byte{0xFF, 0xD8, byte(i)}); err != nil {
			t.Fatalf("write image part: %v", err)
		}
	}
	if err := form.Close(); err != nil {
		t.Fatalf("close form: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", &buf)
	req.Header.Set("Content-Type", form.FormDataContentType())
	rec := httptest.NewRecorder()

	handler.CreateProduct(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var aggregate catalog.ProductAggregate
	if err := json.Unmarshal(rec.Body.Bytes(), &aggregate); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(aggregate.Images) != 2 {
		t.Fatalf("images = %d, want 2", len(aggregate.Images))
	}
	if aggregate.Images[0].DisplayOrder != 0 || aggregate.Images[1].DisplayOrder != 1 {
		t.Fatalf("display orders = %+v", aggregate.Images)
	}
	if aggregate.Category == nil || aggregate.Category.ID != category.ID {
		t.Fatalf("category = %+v", aggregate.Category)
	}
}

func TestProductHandler_CreateValidationError(t *testing.T) {
	handler, _ := newProductTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(`{"price_minor":100}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()

	handler.CreateProduct(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "VALIDATION_FAILED") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestProductHandler_IdempotencyReplay(t *testing.T) {
	handler, _ := newProductTestHandler(t)

	body := `{"name":"Shirt","price_minor":1999}`
	first := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	first.Header.Set("Content-Type", "application/json")
	first.Header.Set(idempotencyKeyHeader, "client-key-1")
	firstRec := httptest.NewRecorder()
	handler.CreateProduct(firstRec, first)
	if firstRec.Code != http.StatusCreated {
		t.Fatalf("first create status = %d", firstRec.Code)
	}
	var created catalog.ProductAggregate
	if err := json.Unmarshal(firstRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode first response: %v", err)
	}

	second := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	second.Header.Set("Content-Type", "application/json")
	second.Header.Set(idempotencyKeyHeader, "client-key-1")
	secondRec := httptest.NewRecorder()
	handler.CreateProduct(secondRec, second)

	if secondRec.Code != http.StatusOK {
		t.Fatalf("replay status = %d, want 200", secondRec.Code)
	}
	var replayed catalog.ProductAggregate
	if err := json.Unmarshal(secondRec.Body.Bytes(), &replayed); err != nil {
		t.Fatalf("decode replay response: %v", err)
	}
	if replayed.Product.ID != created.Product.ID {
		t.Fatalf("replay returned %q, want %q", replayed.Product.ID, created.Product.ID)
	}
}

func TestProductHandler_GetNotFound(t *testing.T) {
	handler, _ := newProductTestHandler(t)
	router := routeWithID(handler.GetProduct, http.MethodGet, "/api/v1/products/{id}")

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "NOT_FOUND") {
		t.Fatalf("body = %s", rec.Body.String())
	}
}

func TestProductHandler_ListPagination(t *testing.T) {
	handler, store := newProductTestHandler(t)

	for i := 0; i < 3; i++ {
		if _, err := store.CreateProduct(context.Background(), catalog.Product{
			Name:     fmt.Sprintf("Product %d", i),
			Currency: "USD",
			Status:   catalog.StatusActive,
		}); err != nil {
			t.Fatalf("CreateProduct: %v", err)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/api/v1/products?limit=2&offset=0", nil)
	rec := httptest.NewRecorder()
	handler.ListProducts(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var list models.ProductListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 3 || len(list.Items) != 2 || list.Limit != 2 {
		t.Fatalf("list = total %d items %d limit %d", list.Total, len(list.Items), list.Limit)
	}
}

func TestProductHandler_ListImages(t *testing.T) {
	handler, store := newProductTestHandler(t)

	product, err := store.CreateProduct(context.Background(), catalog.Product{Name: "Shirt"})
	if err != nil {
		t.Fatalf("CreateProduct: %v", err)
	}
	images := []catalog.ImageDescriptor{
		{ExternalID: "ext-1", URL: "http://assets/1", DisplayOrder: 1},
		{ExternalID: "ext-0", URL: "http://assets/0", DisplayOrder: 0},
	}
	if err := store.CreateImages(context.Background(), product.ID, images); err != nil {
		t.Fatalf("CreateImages: %v", err)
	}

	router := routeWithID(handler.ListProductImages, http.MethodGet, "/api/v1/products/{id}/images")
	req := httptest.NewRequest(http.MethodGet, "/api/v1/products/"+product.ID+"/images", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var list models.ImageListResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &list); err != nil {
		t.Fatalf("decode list: %v", err)
	}
	if list.Total != 2 || len(list.Items) != 2 {
		t.Fatalf("list = total %d items %d", list.Total, len(list.Items))
	}
	if list.Items[0].DisplayOrder != 0 || list.Items[1].DisplayOrder != 1 {
		t.Fatalf("items not in display order: %+v", list.Items)
	}

	missingReq := httptest.NewRequest(http.MethodGet, "/api/v1/products/missing/images", nil)
	missingRec := httptest.NewRecorder()
	router.ServeHTTP(missingRec, missingReq)
	if missingRec.Code != http.StatusNotFound {
		t.Fatalf("missing product status = %d, want 404", missingRec.Code)
	}
}

func TestProductHandler_DeleteRemovesRowsAndAssets(t *testing.T) {
	handler, store := newProductTestHandler(t)

	body := `{"name":"Shirt","price_minor":500,"attributes":[{"variant_type":"size","value":"M"}]}`
	createReq := httptest.NewRequest(http.MethodPost, "/api/v1/products", strings.NewReader(body))
	createReq.Header.Set("Content-Type", "application/json")
	createRec := httptest.NewRecorder()
	handler.CreateProduct(createRec, createReq)
	if createRec.Code != http.StatusCreated {
		t.Fatalf("create status = %d", createRec.Code)
	}
	var created catalog.ProductAggregate
	if err := json.Unmarshal(createRec.Body.Bytes(), &created); err != nil {
		t.Fatalf("decode create: %v", err)
	}

	router := routeWithID(handler.DeleteProduct, http.MethodDelete, "/api/v1/products/{id}")
	req := httptest.NewRequest(http.MethodDelete, "/api/v1/products/"+created.Product.ID, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if _, err := store.GetProduct(context.Background(), created.Product.ID); err == nil {
		t.Fatal("product row still present after delete")
	}
	attrs, err := store.ListAttributes(context.Background(), created.Product.ID)
	if err != nil {
		t.Fatalf("ListAttributes: %v", err)
	}
	if len(attrs) != 0 {
		t.Fatalf("attributes remain after delete: %+v", attrs)
	}
}
