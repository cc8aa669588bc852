package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/polkiloo/storefront/internal/domain/repository"
)

type pgxPool interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Ping(ctx context.Context) error
	Close()
}

var newPgxPool = func(ctx context.Context, cfg *pgxpool.Config) (pgxPool, error) {
	return pgxpool.NewWithConfig(ctx, cfg)
}

// Storage keeps checkout drafts in a PostgreSQL key/value table.
type Storage struct {
	pool   pgxPool
	logger *slog.Logger
}

var _ repository.KeyValueStore = (*Storage)(nil)

// New creates storage with schema initialization.
func New(ctx context.Context, dsn string, logger *slog.Logger) (*Storage, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}

	pool, err := newPgxPool(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}

	storage := &Storage{pool: pool, logger: logger}
	if err := storage.initSchema(ctx); err != nil {
		pool.Close()
		return nil, err
	}

	return storage, nil
}

// Close releases database resources.
func (s *Storage) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func (s *Storage) initSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS checkout_drafts (
            key TEXT PRIMARY KEY,
            value BYTEA NOT NULL,
            updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`,
		`CREATE INDEX IF NOT EXISTS idx_checkout_drafts_updated ON checkout_drafts(updated_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}

	return nil
}

// Get returns the stored value or repository.ErrNotFound.
func (s *Storage) Get(ctx context.Context, key string) ([]byte, error) {
	const query = `SELECT value FROM checkout_drafts WHERE key=$1`
	var value []byte
	if err := s.pool.QueryRow(ctx, query, key).Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("select draft: %w", err)
	}
	return value, nil
}

// Set upserts the value in a single statement so readers never see a torn row.
func (s *Storage) Set(ctx context.Context, key string, value []byte) error {
	const query = `INSERT INTO checkout_drafts (key, value, updated_at) VALUES ($1, $2, NOW())
                   ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = NOW()`
	if _, err := s.pool.Exec(ctx, query, key, value); err != nil {
		return fmt.Errorf("upsert draft: %w", err)
	}
	return nil
}

// Remove deletes the value. Removing a missing key is not an error.
func (s *Storage) Remove(ctx context.Context, key string) error {
	const query = `DELETE FROM checkout_drafts WHERE key=$1`
	if _, err := s.pool.Exec(ctx, query, key); err != nil {
		return fmt.Errorf("delete draft: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *Storage) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.pool.Ping(ctx)
}
