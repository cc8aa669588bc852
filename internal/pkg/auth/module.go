package auth

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	"github.com/polkiloo/storefront/internal/config"
)

// Module provides the shared identity and exposes it as the store api token source.
var Module = fx.Options(
	fx.Provide(newIdentity),
	fx.Provide(func(i *Identity) storeapi.TokenSource { return i }),
)

type identityParams struct {
	fx.In

	Config *config.Config
	Logger *slog.Logger
}

func newIdentity(p identityParams) *Identity {
	identity := NewIdentity()
	if p.Config.AuthToken != "" {
		if err := identity.SetToken(p.Config.AuthToken); err != nil {
			p.Logger.Warn("ignoring configured auth token", slog.Any("error", err))
		}
	}
	return identity
}
