package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	storagemem "github.com/shopforge/shopforge/pkg/storage/memory"
)

func TestHealthHandler_Health(t *testing.T) {
	handler := NewHealthHandler(storagemem.NewMemoryStore())

	rec := httptest.NewRecorder()
	handler.Health(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if body["status"] != "ok" {
		t.Fatalf("body = %v", body)
	}
}

func TestHealthHandler_Ready(t *testing.T) {
	handler := NewHealthHandler(storagemem.NewMemoryStore())

	rec := httptest.NewRecorder()
	handler.Ready(rec, httptest.NewRequest(http.MethodGet, "/ready", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]bool
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if !body["ready"] {
		t.Fatalf("body = %v", body)
	}
}

func TestHealthHandler_Status(t *testing.T) {
	handler := NewHealthHandler(storagemem.NewMemoryStore())

	rec := httptest.NewRecorder()
	handler.Status(rec, httptest.NewRequest(http.MethodGet, "/status", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if _, ok := body["version"]; !ok {
		t.Fatalf("missing version in %v", body)
	}
}
