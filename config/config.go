// Package config provides configuration management for ShopForge.
package config

import (
	"fmt"
	"time"
)

// Config is the global configuration for ShopForge.
type Config struct {
	// App is the application configuration.
	App AppConfig `mapstructure:"app" validate:"required"`

	// Server is the HTTP server configuration.
	Server ServerConfig `mapstructure:"server" validate:"required"`

	// Log is the logging configuration.
	Log LogConfig `mapstructure:"log" validate:"required"`

	// Storage is the record store configuration.
	Storage StorageConfig `mapstructure:"storage"`

	// Assets is the image asset store configuration.
	Assets AssetsConfig `mapstructure:"assets"`

	// Events is the domain event broker configuration.
	Events EventsConfig `mapstructure:"events"`

	// Saga is the product creation workflow configuration.
	Saga SagaConfig `mapstructure:"saga"`

	// Metrics is the observability configuration.
	Metrics MetricsConfig `mapstructure:"metrics"`

	// Tracing is the distributed tracing configuration.
	Tracing TracingConfig `mapstructure:"tracing"`
}

// AppConfig holds application metadata and settings.
type AppConfig struct {
	// Name is the application name.
	Name string `mapstructure:"name" validate:"required"`

	// Version is the application version.
	Version string `mapstructure:"version"`

	// Environment is the runtime environment (development, staging, production).
	Environment string `mapstructure:"environment" validate:"oneof=development staging production"`

	// Debug enables debug mode with verbose logging.
	Debug bool `mapstructure:"debug"`
}

// ServerConfig holds the HTTP server configuration.
type ServerConfig struct {
	// Host is the bind address.
	Host string `mapstructure:"host"`

	// Port is the HTTP API port.
	Port int `mapstructure:"port" validate:"required,min=1,max=65535"`

	// HTTP is the HTTP server configuration.
	HTTP HTTPConfig `mapstructure:"http"`

	// CORS is the CORS configuration.
	CORS CORSConfig `mapstructure:"cors"`

	// RateLimit is the per-client request rate limit configuration.
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`

	// WebSocket is the event stream configuration.
	WebSocket WebSocketConfig `mapstructure:"websocket"`
}

// HTTPConfig holds HTTP-specific settings.
type HTTPConfig struct {
	// ReadTimeout is the maximum duration for reading the entire request.
	ReadTimeout time.Duration `mapstructure:"read_timeout"`

	// WriteTimeout is the maximum duration before timing out writes.
	WriteTimeout time.Duration `mapstructure:"write_timeout"`

	// IdleTimeout is the maximum amount of time to wait for the next request.
	IdleTimeout time.Duration `mapstructure:"idle_timeout"`

	// ShutdownTimeout is the maximum duration to wait for graceful shutdown.
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`

	// MaxHeaderBytes limits the size of request headers.
	MaxHeaderBytes int `mapstructure:"max_header_bytes"`
}

// CORSConfig holds CORS settings.
type CORSConfig struct {
	// Enabled enables CORS support.
	Enabled bool `mapstructure:"enabled"`

	// AllowedOrigins is the list of allowed origins.
	AllowedOrigins []string `mapstructure:"allowed_origins"`

	// AllowedMethods is the list of allowed HTTP methods.
	AllowedMethods []string `mapstructure:"allowed_methods"`

	// AllowedHeaders is the list of allowed headers.
	AllowedHeaders []string `mapstructure:"allowed_headers"`

	// ExposedHeaders is the list of headers exposed to the client.
	ExposedHeaders []string `mapstructure:"exposed_headers"`

	// AllowCredentials indicates whether credentials are allowed.
	AllowCredentials bool `mapstructure:"allow_credentials"`

	// MaxAge is the maximum age of CORS preflight cache in seconds.
	MaxAge int `mapstructure:"max_age"`
}

// RateLimitConfig holds per-client rate limiting settings.
type RateLimitConfig struct {
	// Enabled enables request rate limiting.
	Enabled bool `mapstructure:"enabled"`

	// RequestsPerSecond is the sustained request budget per client.
	RequestsPerSecond float64 `mapstructure:"requests_per_second" validate:"min=0"`

	// Burst is the number of requests a client may burst above the rate.
	Burst int `mapstructure:"burst" validate:"min=0"`
}

// WebSocketConfig holds websocket event stream settings.
type WebSocketConfig struct {
	// Enabled enables the /ws/events endpoint.
	Enabled bool `mapstructure:"enabled"`

	// MaxConnections is the maximum number of concurrent clients.
	MaxConnections int `mapstructure:"max_connections" validate:"min=0"`

	// PingInterval is the server ping cadence.
	PingInterval time.Duration `mapstructure:"ping_interval"`

	// PongTimeout is how long to wait for a pong before dropping a client.
	PongTimeout time.Duration `mapstructure:"pong_timeout"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	// Level is the log level (debug, info, warn, error).
	Level string `mapstructure:"level" validate:"oneof=debug info warn error"`

	// Format is the output format (json, text).
	Format string `mapstructure:"format" validate:"oneof=json text"`

	// Output is the output destination (stdout, stderr, or file path).
	Output string `mapstructure:"output"`
}

// StorageConfig holds record store settings.
type StorageConfig struct {
	// Type is the storage backend (memory, postgres).
	Type string `mapstructure:"type" validate:"oneof=memory postgres"`

	// Postgres is the PostgreSQL configuration.
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig holds PostgreSQL-specific settings.
type PostgresConfig struct {
	// DSN is the connection string.
	DSN string `mapstructure:"dsn"`

	// MaxOpenConns is the connection pool upper bound.
	MaxOpenConns int `mapstructure:"max_open_conns" validate:"min=0"`

	// MaxIdleConns is the idle connection count.
	MaxIdleConns int `mapstructure:"max_idle_conns" validate:"min=0"`

	// ConnMaxLifetime is the maximum connection age.
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
}

// AssetsConfig holds image asset store settings.
type AssetsConfig struct {
	// Type is the asset backend (memory, s3).
	Type string `mapstructure:"type" validate:"oneof=memory s3"`

	// S3 is the object store configuration.
	S3 S3Config `mapstructure:"s3"`
}

// S3Config holds S3-compatible object store settings.
type S3Config struct {
	// Endpoint is the object store endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// AccessKey is the access key ID.
	AccessKey string `mapstructure:"access_key"`

	// SecretKey is the secret access key.
	SecretKey string `mapstructure:"secret_key"`

	// Bucket is the bucket name for product images.
	Bucket string `mapstructure:"bucket"`

	// Region is the bucket region.
	Region string `mapstructure:"region"`

	// UseSSL enables TLS for object store connections.
	UseSSL bool `mapstructure:"use_ssl"`

	// PublicURL is the base URL used to build public asset links.
	PublicURL string `mapstructure:"public_url"`
}

// EventsConfig holds domain event broker settings.
type EventsConfig struct {
	// Type is the broker backend (none, kafka).
	Type string `mapstructure:"type" validate:"oneof=none kafka"`

	// Kafka is the Kafka configuration.
	Kafka KafkaConfig `mapstructure:"kafka"`
}

// KafkaConfig holds Kafka-specific settings.
type KafkaConfig struct {
	// Brokers is the bootstrap broker list.
	Brokers []string `mapstructure:"brokers"`

	// Topic is the topic domain events are published to.
	Topic string `mapstructure:"topic"`
}

// SagaConfig holds product creation workflow settings.
type SagaConfig struct {
	// StepTimeout bounds each workflow step.
	StepTimeout time.Duration `mapstructure:"step_timeout"`

	// Journal is the run journal configuration.
	Journal JournalConfig `mapstructure:"journal"`

	// Idempotency is the creation idempotency store configuration.
	Idempotency IdempotencyConfig `mapstructure:"idempotency"`
}

// JournalConfig holds run journal settings.
type JournalConfig struct {
	// Type is the journal backend (none, memory, badger).
	Type string `mapstructure:"type" validate:"oneof=none memory badger"`

	// Badger is the BadgerDB configuration.
	Badger BadgerConfig `mapstructure:"badger"`
}

// BadgerConfig holds BadgerDB-specific settings.
type BadgerConfig struct {
	// Path is the database directory path.
	Path string `mapstructure:"path"`

	// SyncWrites enables synchronous writes for durability.
	SyncWrites bool `mapstructure:"sync_writes"`
}

// IdempotencyConfig holds idempotency store settings.
type IdempotencyConfig struct {
	// Type is the idempotency backend (memory, redis).
	Type string `mapstructure:"type" validate:"oneof=memory redis"`

	// TTL is how long idempotency keys are retained.
	TTL time.Duration `mapstructure:"ttl"`

	// Redis is the Redis configuration.
	Redis RedisConfig `mapstructure:"redis"`
}

// RedisConfig holds Redis-specific settings.
type RedisConfig struct {
	// Address is the Redis server address.
	Address string `mapstructure:"address"`

	// Password is the Redis password.
	Password string `mapstructure:"password"`

	// DB is the Redis database number.
	DB int `mapstructure:"db"`
}

// MetricsConfig holds observability settings.
type MetricsConfig struct {
	// Enabled enables metrics collection.
	Enabled bool `mapstructure:"enabled"`

	// Path is the metrics endpoint path.
	Path string `mapstructure:"path"`

	// Port is the metrics server port.
	Port int `mapstructure:"port" validate:"min=1,max=65535"`
}

// TracingConfig holds distributed tracing settings.
type TracingConfig struct {
	// Enabled enables distributed tracing.
	Enabled bool `mapstructure:"enabled"`

	// Exporter is the span exporter kind (otlpgrpc).
	Exporter string `mapstructure:"exporter"`

	// Endpoint is the OTLP collector endpoint.
	Endpoint string `mapstructure:"endpoint"`

	// Headers are extra headers sent to the collector.
	Headers map[string]string `mapstructure:"headers"`

	// Timeout is the export timeout.
	Timeout time.Duration `mapstructure:"timeout"`

	// Sampler selects the sampling strategy (always_on, always_off,
	// parentbased_traceidratio).
	Sampler string `mapstructure:"sampler"`

	// SampleRate is the fraction of traces to sample (0.0-1.0).
	SampleRate float64 `mapstructure:"sample_rate" validate:"min=0,max=1"`
}

// Validate performs validation on the configuration.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return nil
}

// String returns a string representation of the configuration (without sensitive data).
func (c *Config) String() string {
	return fmt.Sprintf("Config{App: %s, Server: :%d, Env: %s}",
		c.App.Name, c.Server.Port, c.App.Environment)
}
