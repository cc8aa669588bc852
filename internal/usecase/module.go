package usecase

import (
	"go.uber.org/fx"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	"github.com/polkiloo/storefront/internal/session"
)

// Module wires use cases for dependency injection.
var Module = fx.Provide(
	func(c storeapi.Client) CheckoutAPI { return c },
	func(c storeapi.Client) OrderAPI { return c },
	func(c storeapi.Client) CartAPI { return c },
	func(s *session.Store) DraftStore { return s },
	NewCheckoutUseCase,
	NewOrderUseCase,
	NewCartUseCase,
)
