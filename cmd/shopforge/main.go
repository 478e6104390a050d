package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/redis/go-redis/v9"
	"github.com/shopforge/shopforge/config"
	"github.com/shopforge/shopforge/pkg/api"
	apievents "github.com/shopforge/shopforge/pkg/api/events"
	"github.com/shopforge/shopforge/pkg/api/handlers"
	"github.com/shopforge/shopforge/pkg/assets"
	"github.com/shopforge/shopforge/pkg/events"
	"github.com/shopforge/shopforge/pkg/logger"
	"github.com/shopforge/shopforge/pkg/metrics"
	"github.com/shopforge/shopforge/pkg/saga"
	"github.com/shopforge/shopforge/pkg/storage"
	"github.com/shopforge/shopforge/pkg/storage/memory"
	"github.com/shopforge/shopforge/pkg/storage/postgres"
	"github.com/shopforge/shopforge/pkg/telemetry/tracing"
	"github.com/shopforge/shopforge/pkg/version"
)

var (
	configPath  = flag.String("config", "", "Path to configuration file")
	versionFlag = flag.Bool("version", false, "Print version information")
	helpFlag    = flag.Bool("help", false, "Print help information")

	// CLI overrides
	appName    = flag.String("app-name", "", "Override app name")
	serverPort = flag.Int("port", 0, "Override server port")
	logLevel   = flag.String("log-level", "", "Override log level")
	debugMode  = flag.Bool("debug", false, "Enable debug mode")
)

func main() {
	flag.Parse()

	if *helpFlag {
		printHelp()
		os.Exit(0)
	}
	if *versionFlag {
		printVersion()
		os.Exit(0)
	}

	overrides := buildOverrides()

	cfg, err := config.Load(*configPath, overrides)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration:\n%s\n", err)
		os.Exit(1)
	}

	// Initialize logger with configuration
	logCfg := &logger.Config{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	}
	if cfg.App.Debug || *debugMode {
		logCfg.Level = logger.DebugLevel
	}
	log := logger.New(logCfg)
	logger.SetGlobal(log)

	log.Info("Starting ShopForge",
		"version", version.Version,
		"buildTime", version.BuildTime,
		"gitCommit", version.GitCommit,
		"app", cfg.App.Name,
		"environment", cfg.App.Environment,
	)
	log.Debug("Configuration loaded", "config", cfg.String())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	// Initialize tracing
	tracingShutdown, err := tracing.Init(ctx, cfg.Tracing, cfg.App.Name, version.Version)
	if err != nil {
		log.Error("Failed to initialize tracing", "error", err)
		os.Exit(1)
	}

	// Initialize record store backend
	var store storage.RecordStore
	switch cfg.Storage.Type {
	case "postgres":
		pg, err := postgres.Open(ctx, postgres.Config{
			DSN:             cfg.Storage.Postgres.DSN,
			MaxOpenConns:    cfg.Storage.Postgres.MaxOpenConns,
			MaxIdleConns:    cfg.Storage.Postgres.MaxIdleConns,
			ConnMaxLifetime: cfg.Storage.Postgres.ConnMaxLifetime,
		})
		if err != nil {
			log.Error("Failed to open postgres store", "error", err)
			os.Exit(1)
		}
		store = pg
		log.Info("Initialized postgres record store")
	default:
		store = memory.NewMemoryStore()
		log.Info("Initialized memory record store")
	}
	defer func() {
		if err := store.Close(); err != nil {
			log.Error("Error closing record store", "error", err)
		}
	}()

	// Initialize asset store backend
	var assetStore assets.Store
	switch cfg.Assets.Type {
	case "s3":
		s3, err := assets.NewS3Store(ctx, assets.S3Config{
			Endpoint:  cfg.Assets.S3.Endpoint,
			AccessKey: cfg.Assets.S3.AccessKey,
			SecretKey: cfg.Assets.S3.SecretKey,
			Bucket:    cfg.Assets.S3.Bucket,
			Region:    cfg.Assets.S3.Region,
			UseSSL:    cfg.Assets.S3.UseSSL,
			PublicURL: cfg.Assets.S3.PublicURL,
		})
		if err != nil {
			log.Error("Failed to create S3 asset store", "error", err)
			os.Exit(1)
		}
		assetStore = s3
		log.Info("Initialized S3 asset store", "bucket", cfg.Assets.S3.Bucket)
	default:
		assetStore = assets.NewMemoryStore()
		log.Info("Initialized memory asset store")
	}

	// Initialize domain event publisher
	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Type == "kafka" {
		kafka, err := events.NewKafkaPublisher(events.KafkaConfig{
			Brokers: cfg.Events.Kafka.Brokers,
			Topic:   cfg.Events.Kafka.Topic,
		}, log)
		if err != nil {
			log.Error("Failed to create Kafka publisher", "error", err)
			os.Exit(1)
		}
		publisher = kafka
		log.Info("Initialized Kafka publisher", "topic", cfg.Events.Kafka.Topic)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			log.Error("Error closing event publisher", "error", err)
		}
	}()

	// Initialize run journal backend
	var journal saga.Journal = saga.NopJournal{}
	var badgerDB *badger.DB
	switch cfg.Saga.Journal.Type {
	case "badger":
		opts := badger.DefaultOptions(cfg.Saga.Journal.Badger.Path).
			WithSyncWrites(cfg.Saga.Journal.Badger.SyncWrites).
			WithLogger(nil)
		badgerDB, err = badger.Open(opts)
		if err != nil {
			log.Error("Failed to open badger journal", "error", err)
			os.Exit(1)
		}
		journal, err = saga.NewBadgerJournal(badgerDB)
		if err != nil {
			log.Error("Failed to create badger journal", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized badger run journal", "path", cfg.Saga.Journal.Badger.Path)
	case "memory":
		journal = saga.NewMemoryJournal()
		log.Info("Initialized memory run journal")
	}
	if badgerDB != nil {
		defer func() {
			if err := badgerDB.Close(); err != nil {
				log.Error("Error closing badger journal", "error", err)
			}
		}()
	}

	// Initialize idempotency store
	var idempotency saga.IdempotencyStore
	if cfg.Saga.Idempotency.Type == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Saga.Idempotency.Redis.Address,
			Password: cfg.Saga.Idempotency.Redis.Password,
			DB:       cfg.Saga.Idempotency.Redis.DB,
		})
		idempotency, err = saga.NewRedisIdempotencyStore(client, cfg.Saga.Idempotency.TTL)
		if err != nil {
			log.Error("Failed to create redis idempotency store", "error", err)
			os.Exit(1)
		}
		log.Info("Initialized redis idempotency store", "addr", cfg.Saga.Idempotency.Redis.Address)
	} else {
		idempotency = saga.NewMemoryIdempotencyStore()
	}

	// Initialize metrics manager
	metricsCfg := metrics.DefaultConfig()
	metricsCfg.Enabled = cfg.Metrics.Enabled
	metricsCfg.Port = cfg.Metrics.Port
	metricsCfg.Path = cfg.Metrics.Path
	metricsManager := metrics.NewManager(metricsCfg)

	if metricsManager.Enabled() {
		go func() {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port, "path", cfg.Metrics.Path)
			if err := metricsManager.StartServer(ctx, cfg.Metrics.Port, cfg.Metrics.Path); err != nil {
				log.Error("Metrics server error", "error", err)
			}
		}()
	}

	// Wire run events into the websocket stream through the journal.
	broadcaster := apievents.NewBroadcaster()
	defer broadcaster.Close()

	orchestrator, err := saga.NewOrchestrator(store, assetStore,
		saga.WithJournal(apievents.NewNotifyingJournal(journal, broadcaster)),
		saga.WithMetrics(metricsManager),
		saga.WithLogger(log),
		saga.WithStepTimeout(cfg.Saga.StepTimeout),
	)
	if err != nil {
		log.Error("Failed to create orchestrator", "error", err)
		os.Exit(1)
	}

	// Initialize HTTP server with handlers
	apiHandlers := &api.Handlers{
		Product:  handlers.NewProductHandler(orchestrator, store, assetStore, idempotency, publisher, log),
		Category: handlers.NewCategoryHandler(store, log),
		Run:      handlers.NewRunHandler(journal, log),
		Health:   handlers.NewHealthHandler(store),
		Metrics:  metricsManager,
	}

	var wsHandler *handlers.WebSocketHandler
	if cfg.Server.WebSocket.Enabled {
		wsHandler = handlers.NewWebSocketHandler(log, handlers.WebSocketConfig{
			AllowedOrigins: cfg.Server.CORS.AllowedOrigins,
			MaxConnections: cfg.Server.WebSocket.MaxConnections,
			PingInterval:   cfg.Server.WebSocket.PingInterval,
			PongTimeout:    cfg.Server.WebSocket.PongTimeout,
		})
		apiHandlers.WebSocket = wsHandler
		go wsHandler.Pump(broadcaster.Subscribe(0))
		defer wsHandler.Close()
	}

	httpServer := api.NewHTTPServer(cfg, log, apiHandlers)

	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Starting HTTP server", "address", fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port))
		if err := httpServer.Start(); err != nil {
			serverErrChan <- err
		}
	}()

	// Watch the config file for hot-reloadable changes.
	if *configPath != "" {
		go watchConfig(ctx, *configPath, log)
	}

	log.Info("ShopForge is running",
		"http_port", cfg.Server.Port,
		"metrics_port", cfg.Metrics.Port,
	)
	log.Info("Press Ctrl+C to stop")

	select {
	case sig := <-sigChan:
		log.Info("Received shutdown signal", "signal", sig)
	case err := <-serverErrChan:
		log.Error("HTTP server error", "error", err)
	case <-ctx.Done():
		log.Info("Context cancelled")
	}

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	log.Info("Shutting down HTTP server")
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down HTTP server", "error", err)
	}

	if err := tracingShutdown(shutdownCtx); err != nil {
		log.Error("Error shutting down tracing", "error", err)
	}

	log.Info("ShopForge stopped gracefully")
}

// watchConfig hot-reloads the log level and format on config file changes.
func watchConfig(ctx context.Context, path string, log logger.Logger) {
	watcher, err := config.NewWatcher(path, config.NewLoader())
	if err != nil {
		log.Warn("Config watcher unavailable", "error", err)
		return
	}
	defer watcher.Stop()

	watcher.OnChange(func(cfg *config.Config) {
		log.Info("Configuration reloaded", "log_level", cfg.Log.Level)
		log.SetLevel(logger.ParseLevel(cfg.Log.Level))
	})

	if err := watcher.Watch(ctx); err != nil && ctx.Err() == nil {
		log.Warn("Config watcher stopped", "error", err)
	}
}

func buildOverrides() map[string]interface{} {
	overrides := make(map[string]interface{})

	if *appName != "" {
		overrides["app.name"] = *appName
	}
	if *serverPort != 0 {
		overrides["server.port"] = *serverPort
	}
	if *logLevel != "" {
		overrides["log.level"] = *logLevel
	}
	if *debugMode {
		overrides["app.debug"] = true
	}

	return overrides
}

func printVersion() {
	fmt.Printf("ShopForge - E-commerce Catalog Service\n")
	fmt.Printf("Version:    %s\n", version.Version)
	fmt.Printf("Build Time: %s\n", version.BuildTime)
	fmt.Printf("Git Commit: %s\n", version.GitCommit)
	fmt.Printf("Go Version: %s\n", version.GoVersion)
}

func printHelp() {
	fmt.Printf("ShopForge - E-commerce catalog service with transactional product creation\n\n")
	fmt.Printf("Usage: shopforge [options]\n\n")
	fmt.Printf("Options:\n")
	flag.PrintDefaults()
	fmt.Printf("\nExamples:\n")
	fmt.Printf("  shopforge                                 # Run with default config\n")
	fmt.Printf("  shopforge -config config.yaml             # Use specific config file\n")
	fmt.Printf("  shopforge -port 9090 -log-level debug     # Override specific options\n")
	fmt.Printf("  shopforge -version                        # Print version info\n")
}
