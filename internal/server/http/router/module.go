package router

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/app"
	"github.com/polkiloo/storefront/internal/server/http/handlers"
	"github.com/polkiloo/storefront/internal/storage"
)

// Module registers HTTP router construction for fx runtime.
var Module = fx.Provide(
	func(f *app.StorefrontFacade) handlers.StorefrontFacade { return f },
	func(b storage.Backend) handlers.Pinger { return b },
	Setup,
)
