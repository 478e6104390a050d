// Package postgres provides a Postgres-backed record store on pgx.
package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib" // register the pgx database/sql driver
)

// Config holds Postgres connection settings.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// Open opens a connection pool and verifies connectivity.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("postgres dsn is required")
	}

	db, err := sql.Open("pgx", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	return &Store{db: db}, nil
}

// DB is the narrow database surface the store depends on.
type DB interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// Store implements storage.RecordStore against Postgres.
type Store struct {
	db DB
}

// NewStore wraps an existing database handle. Used by tests.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

var migrations = []string{
	`CREATE TABLE IF NOT EXISTS products (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		sku TEXT NOT NULL DEFAULT '',
		price_minor BIGINT NOT NULL,
		currency TEXT NOT NULL,
		status TEXT NOT NULL,
		stock_quantity INTEGER NOT NULL DEFAULT 0,
		stock_tracked BOOLEAN NOT NULL DEFAULT FALSE,
		parent_id TEXT NOT NULL DEFAULT '',
		created_at TIMESTAMPTZ NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_images (
		product_id TEXT NOT NULL,
		url TEXT NOT NULL,
		external_id TEXT NOT NULL,
		display_order INTEGER NOT NULL DEFAULT 0,
		PRIMARY KEY (product_id, external_id)
	)`,
	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS product_categories (
		product_id TEXT NOT NULL,
		category_id TEXT NOT NULL,
		PRIMARY KEY (product_id, category_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_related (
		product_id TEXT NOT NULL,
		related_id TEXT NOT NULL,
		PRIMARY KEY (product_id, related_id)
	)`,
	`CREATE TABLE IF NOT EXISTS product_attributes (
		product_id TEXT NOT NULL,
		variant_type TEXT NOT NULL,
		value TEXT NOT NULL
	)`,
}

// Migrate applies schema bootstrap statements.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range migrations {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("apply migration: %w", err)
		}
	}
	return nil
}

// Close releases the underlying connection pool.
func (s *Store) Close() error {
	if closer, ok := s.db.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}
