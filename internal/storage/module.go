package storage

import (
	"context"
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
)

// Module wires the configured draft storage backend.
var Module = fx.Options(
	fx.Provide(newBackend),
	fx.Provide(func(b Backend) repository.KeyValueStore { return b }),
	fx.Invoke(registerLifecycle),
)

type storageParams struct {
	fx.In

	Ctx    context.Context
	Config *config.Config
	Logger *slog.Logger
}

func newBackend(p storageParams) (Backend, error) {
	backend, err := Open(p.Ctx, p.Config.DraftStorageURI, p.Logger)
	if err != nil {
		return nil, err
	}
	p.Logger.Info("draft storage ready", slog.String("uri_scheme", schemeOf(p.Config.DraftStorageURI)))
	return backend, nil
}

func registerLifecycle(lc fx.Lifecycle, backend Backend) {
	lc.Append(fx.Hook{
		OnStop: func(ctx context.Context) error {
			backend.Close()
			return nil
		},
	})
}
