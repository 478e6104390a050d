package api

import (
	"context"
	"testing"
	"time"

	"github.com/shopforge/shopforge/config"
	"github.com/shopforge/shopforge/pkg/api/handlers"
	"github.com/shopforge/shopforge/pkg/logger"
	storagemem "github.com/shopforge/shopforge/pkg/storage/memory"
)

func TestHTTPServer_StartShutdown(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.Port = 0

	log := logger.Global()
	server := NewHTTPServer(cfg, log, &Handlers{
		Health: handlers.NewHealthHandler(storagemem.NewMemoryStore()),
	})

	done := make(chan error, 1)
	go func() {
		done <- server.Start()
	}()

	time.Sleep(100 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Start returned error: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop after shutdown")
	}
}
