package config

import "time"

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:        "shopforge",
			Version:     "dev",
			Environment: "development",
			Debug:       false,
		},
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
			HTTP: HTTPConfig{
				ReadTimeout:     30 * time.Second,
				WriteTimeout:    30 * time.Second,
				IdleTimeout:     120 * time.Second,
				ShutdownTimeout: 15 * time.Second,
				MaxHeaderBytes:  1 << 20, // 1MB
			},
			CORS: CORSConfig{
				Enabled:        false,
				AllowedOrigins: []string{"*"},
				AllowedMethods: []string{"GET", "POST", "DELETE", "OPTIONS"},
				AllowedHeaders: []string{"Content-Type", "Idempotency-Key", "X-Request-ID"},
				MaxAge:         300,
			},
			RateLimit: RateLimitConfig{
				Enabled:           false,
				RequestsPerSecond: 50,
				Burst:             100,
			},
			WebSocket: WebSocketConfig{
				Enabled:        true,
				MaxConnections: 100,
				PingInterval:   30 * time.Second,
				PongTimeout:    10 * time.Second,
			},
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
		Storage: StorageConfig{
			Type: "memory",
			Postgres: PostgresConfig{
				DSN:             "",
				MaxOpenConns:    20,
				MaxIdleConns:    5,
				ConnMaxLifetime: 30 * time.Minute,
			},
		},
		Assets: AssetsConfig{
			Type: "memory",
			S3: S3Config{
				Endpoint: "localhost:9000",
				Bucket:   "product-images",
				Region:   "us-east-1",
				UseSSL:   false,
			},
		},
		Events: EventsConfig{
			Type: "none",
			Kafka: KafkaConfig{
				Brokers: []string{"localhost:9092"},
				Topic:   "shopforge.catalog",
			},
		},
		Saga: SagaConfig{
			StepTimeout: 30 * time.Second,
			Journal: JournalConfig{
				Type: "memory",
				Badger: BadgerConfig{
					Path:       "./data/runs",
					SyncWrites: true,
				},
			},
			Idempotency: IdempotencyConfig{
				Type: "memory",
				TTL:  24 * time.Hour,
				Redis: RedisConfig{
					Address:  "localhost:6379",
					Password: "",
					DB:       0,
				},
			},
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
			Port:    9091,
		},
		Tracing: TracingConfig{
			Enabled:    false,
			Exporter:   "otlpgrpc",
			Endpoint:   "localhost:4317",
			Timeout:    10 * time.Second,
			Sampler:    "parentbased_traceidratio",
			SampleRate: 0.1,
		},
	}
}
