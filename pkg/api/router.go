// Package api provides HTTP API server components.
package api

import (
	"github.com/go-chi/chi/v5"
	"github.com/shopforge/shopforge/config"
	"github.com/shopforge/shopforge/pkg/api/handlers"
	"github.com/shopforge/shopforge/pkg/api/middleware"
	"github.com/shopforge/shopforge/pkg/logger"
)

// Handlers holds all HTTP handlers.
type Handlers struct {
	// Product handles product catalog endpoints.
	Product *handlers.ProductHandler

	// Category handles category endpoints.
	Category *handlers.CategoryHandler

	// Run handles workflow run history endpoints.
	Run *handlers.RunHandler

	// Health handles health check endpoints.
	Health *handlers.HealthHandler

	// WebSocket streams run events to clients.
	WebSocket *handlers.WebSocketHandler

	// Metrics is the optional metrics recorder.
	Metrics middleware.MetricsRecorder
}

// NewRouter creates a new chi router with middleware and routes.
func NewRouter(cfg *config.Config, log logger.Logger, handlers *Handlers) chi.Router {
	r := chi.NewRouter()

	// Plain HTTP routes get the full middleware chain. The websocket route
	// stays outside it: the wrapping response writers do not support
	// hijacking, and a request timeout makes no sense for a long-lived
	// stream.
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequestID())
		r.Use(middleware.Logger(log))
		r.Use(middleware.Recovery(log))

		// Add metrics middleware if provided
		if handlers.Metrics != nil {
			r.Use(middleware.Metrics(handlers.Metrics))
		}

		if cfg.Tracing.Enabled {
			r.Use(middleware.Tracing(middleware.DefaultTracingOptions()))
		}
		r.Use(middleware.CORS(&cfg.Server.CORS))
		r.Use(middleware.RateLimit(&cfg.Server.RateLimit))
		r.Use(middleware.Timeout(cfg.Server.HTTP.ReadTimeout))

		// Register routes
		RegisterRoutes(r, handlers)
	})

	// Run event stream
	if handlers.WebSocket != nil {
		r.Get("/ws/events", handlers.WebSocket.ServeHTTP)
	}

	return r
}

// RegisterRoutes registers all API routes.
func RegisterRoutes(r chi.Router, handlers *Handlers) {
	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Product routes
		if handlers.Product != nil {
			r.Route("/products", func(r chi.Router) {
				r.Post("/", handlers.Product.CreateProduct)
				r.Get("/", handlers.Product.ListProducts)
				r.Get("/{id}", handlers.Product.GetProduct)
				r.Get("/{id}/images", handlers.Product.ListProductImages)
				r.Delete("/{id}", handlers.Product.DeleteProduct)
			})
		}

		// Category routes
		if handlers.Category != nil {
			r.Route("/categories", func(r chi.Router) {
				r.Post("/", handlers.Category.CreateCategory)
				r.Get("/", handlers.Category.ListCategories)
				r.Get("/{id}", handlers.Category.GetCategory)
			})
		}

		// Run history routes
		if handlers.Run != nil {
			r.Route("/runs", func(r chi.Router) {
				r.Get("/", handlers.Run.ListRuns)
				r.Get("/{id}", handlers.Run.GetRun)
			})
		}
	})

	// Health check routes (not versioned)
	if handlers.Health != nil {
		r.Get("/health", handlers.Health.Health)
		r.Get("/ready", handlers.Health.Ready)
		r.Get("/status", handlers.Health.Status)
	}
}
