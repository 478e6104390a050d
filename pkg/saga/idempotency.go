package saga

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// DefaultIdempotencyTTL is how long a recorded idempotency key remains valid.
const DefaultIdempotencyTTL = 24 * time.Hour

// IdempotencyStore maps client-supplied idempotency keys to the product ID
// created on the first attempt, so that retried creation requests return the
// already-created aggregate instead of running the pipeline again.
type IdempotencyStore interface {
	// Get returns the product ID recorded for key, or "" when unseen.
	Get(ctx context.Context, key string) (string, error)
	// Set records the product ID created for key.
	Set(ctx context.Context, key, productID string) error
}

// MemoryIdempotencyStore is a thread-safe in-memory idempotency store.
// Entries never expire; intended for single-process deployments and tests.
type MemoryIdempotencyStore struct {
	entries sync.Map
}

// NewMemoryIdempotencyStore creates an in-memory idempotency store.
func NewMemoryIdempotencyStore() *MemoryIdempotencyStore {
	return &MemoryIdempotencyStore{}
}

// Get returns the product ID recorded for key, or "" when unseen.
func (s *MemoryIdempotencyStore) Get(_ context.Context, key string) (string, error) {
	value, ok := s.entries.Load(key)
	if !ok {
		return "", nil
	}
	return value.(string), nil
}

// Set records the product ID created for key.
func (s *MemoryIdempotencyStore) Set(_ context.Context, key, productID string) error {
	s.entries.Store(key, productID)
	return nil
}

// RedisIdempotencyStore stores idempotency keys in Redis with a TTL, for
// deployments where creation requests may land on different instances.
type RedisIdempotencyStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisIdempotencyStore creates a Redis-backed idempotency store.
func NewRedisIdempotencyStore(client *redis.Client, ttl time.Duration) (*RedisIdempotencyStore, error) {
	if client == nil {
		return nil, fmt.Errorf("redis client cannot be nil")
	}
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &RedisIdempotencyStore{client: client, ttl: ttl}, nil
}

// Get returns the product ID recorded for key, or "" when unseen.
func (s *RedisIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	value, err := s.client.Get(ctx, idempotencyKey(key)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", nil
		}
		return "", fmt.Errorf("idempotency lookup: %w", err)
	}
	return value, nil
}

// Set records the product ID created for key.
func (s *RedisIdempotencyStore) Set(ctx context.Context, key, productID string) error {
	if err := s.client.Set(ctx, idempotencyKey(key), productID, s.ttl).Err(); err != nil {
		return fmt.Errorf("idempotency store: %w", err)
	}
	return nil
}

func idempotencyKey(key string) string {
	return "idempotency:" + key
}

var (
	_ IdempotencyStore = (*MemoryIdempotencyStore)(nil)
	_ IdempotencyStore = (*RedisIdempotencyStore)(nil)
)
