package middleware

import (
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"
)

type recordedRequest struct {
	method, path, status string
}

type fakeRecorder struct {
	mu       sync.Mutex
	requests []recordedRequest
	active   int
}

func (f *fakeRecorder) RecordHTTPRequest(method, path, status string, _ time.Duration) {
	f.mu.Lock()
	f.requests = append(f.requests, recordedRequest{method, path, status})
	f.mu.Unlock()
}

func (f *fakeRecorder) IncActiveConnections() {
	f.mu.Lock()
	f.active++
	f.mu.Unlock()
}

func (f *fakeRecorder) DecActiveConnections() {
	f.mu.Lock()
	f.active--
	f.mu.Unlock()
}

func TestMetricsRecordsRequest(t *testing.T) {
	recorder := &fakeRecorder{}
	handler := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	req := httptest.NewRequest("POST", "/api/v1/products", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(recorder.requests) != 1 {
		t.Fatalf("expected 1 recorded request, got %d", len(recorder.requests))
	}
	got := recorder.requests[0]
	if got.method != "POST" || got.path != "/api/v1/products" || got.status != "201" {
		t.Fatalf("unexpected record: %+v", got)
	}
	if recorder.active != 0 {
		t.Fatalf("active connections not balanced: %d", recorder.active)
	}
}

func TestMetricsSkipsMetricsEndpoint(t *testing.T) {
	recorder := &fakeRecorder{}
	handler := Metrics(recorder)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/metrics", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if len(recorder.requests) != 0 {
		t.Fatalf("metrics endpoint must not be recorded, got %d", len(recorder.requests))
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"/api/v1/products", "/api/v1/products"},
		{"/api/v1/products/123", "/api/v1/products/:id"},
		{"/api/v1/products/550e8400-e29b-41d4-a716-446655440000", "/api/v1/products/:id"},
		{"/api/v1/runs/550e8400-e29b-41d4-a716-446655440000/steps", "/api/v1/runs/:id/steps"},
	}
	for _, tt := range tests {
		if got := normalizePath(tt.in); got != tt.want {
			t.Errorf("normalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
