package payment

import (
	"log/slog"

	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
)

// Module provides the redirect payment hand-off.
var Module = fx.Provide(func(client storeapi.Client, logger *slog.Logger) Handoff {
	return NewRedirectHandoff(client, logger)
})
