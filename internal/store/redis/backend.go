package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gosuda/torneo/internal/store"
)

// Client is the subset of *redis.Client used by Backend.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Close() error
}

// Backend stores each snapshot document as one Redis string key.
type Backend struct {
	client Client
	prefix string
}

// Compile-time interface check.
var _ store.Backend = (*Backend)(nil) //nolint:gochecknoglobals // compile-time check

// New connects to Redis and verifies the connection.
func New(ctx context.Context, addr, password string, db int, prefix string) (*Backend, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis.New: ping: %w", err)
	}

	return NewWithClient(client, prefix), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client Client, prefix string) *Backend {
	return &Backend{client: client, prefix: prefix}
}

// Close releases the underlying client.
func (b *Backend) Close() error {
	if err := b.client.Close(); err != nil {
		return fmt.Errorf("redis.Backend.Close: %w", err)
	}
	return nil
}

// Load reads the document under key.
func (b *Backend) Load(ctx context.Context, key string) ([]byte, error) {
	data, err := b.client.Get(ctx, Key(b.prefix, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis.Backend.Load: %w", err)
	}
	return data, nil
}

// Save overwrites the document under key with no expiry.
func (b *Backend) Save(ctx context.Context, key string, data []byte) error {
	if err := b.client.Set(ctx, Key(b.prefix, key), data, 0).Err(); err != nil {
		return fmt.Errorf("redis.Backend.Save: %w", err)
	}
	return nil
}

// Key returns the Redis key for a snapshot document.
func Key(prefix, key string) string {
	return prefix + key
}
