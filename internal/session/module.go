package session

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/config"
	"github.com/polkiloo/storefront/internal/domain/repository"
	"github.com/polkiloo/storefront/internal/pkg/auth"
)

// Module provides the draft slot for the configured namespace, owned by the
// identity the process starts with.
var Module = fx.Provide(func(kv repository.KeyValueStore, cfg *config.Config, identity *auth.Identity, logger *slog.Logger) *Store {
	store := NewStore(kv, cfg.SessionNamespace, logger)
	store.SetOwner(identity.Claims().Subject)
	return store
})
