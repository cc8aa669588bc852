package storage

import (
	"context"
	"fmt"
	"log/slog"
	"net/url"

	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/storage/file"
	"github.com/polkiloo/storefront/internal/storage/postgres"
	"github.com/polkiloo/storefront/internal/storage/redis"
)

// Backend is a draft-slot key/value store with a connectivity check.
type Backend interface {
	repository.KeyValueStore
	Ping(ctx context.Context) error
	Close()
}

// Open selects a backend by the URI scheme.
func Open(ctx context.Context, uri string, logger *slog.Logger) (Backend, error) {
	u, err := url.Parse(uri)
	if err != nil {
		return nil, fmt.Errorf("parse storage uri: %w", err)
	}

	switch u.Scheme {
	case "file":
		return file.New(file.DirFromURL(u), logger)
	case "redis", "rediss":
		return redis.New(ctx, uri, logger)
	case "postgres", "postgresql":
		return postgres.New(ctx, uri, logger)
	default:
		return nil, fmt.Errorf("unsupported storage scheme %q", u.Scheme)
	}
}

func schemeOf(uri string) string {
	u, err := url.Parse(uri)
	if err != nil {
		return ""
	}
	return u.Scheme
}
