package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Store keeps checkout drafts in Redis string keys.
type Store struct {
	client *redis.Client
	logger *slog.Logger
}

var _ repository.KeyValueStore = (*Store)(nil)

// New connects to the Redis server addressed by uri.
func New(ctx context.Context, uri string, logger *slog.Logger) (*Store, error) {
	opts, err := redis.ParseURL(uri)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	store := NewWithClient(redis.NewClient(opts), logger)
	if err := store.Ping(ctx); err != nil {
		_ = store.client.Close()
		return nil, fmt.Errorf("connect redis: %w", err)
	}
	return store, nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client *redis.Client, logger *slog.Logger) *Store {
	return &Store{client: client, logger: logger}
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get failed: %w", err)
	}
	return data, nil
}

// Set replaces the whole value with a single SET.
func (s *Store) Set(ctx context.Context, key string, value []byte) error {
	if err := s.client.Set(ctx, key, value, 0).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (s *Store) Remove(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

// Ping verifies server connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close releases the client connection pool.
func (s *Store) Close() {
	if err := s.client.Close(); err != nil {
		s.logger.Warn("failed to close redis client", slog.Any("error", err))
	}
}
