package handlers

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/state"
)

// IdentityFacade describes the caller identity operations.
type IdentityFacade interface {
	SetToken(ctx context.Context, token string) error
	ClearIdentity(ctx context.Context) error
	IsAuthenticated() bool
	Claims() auth.Claims
}

// CheckoutFacade encapsulates the checkout session exposed via HTTP.
type CheckoutFacade interface {
	EnterCheckout(ctx context.Context) (*model.CheckoutSession, error)
	CheckoutState() state.Session
	SubscribeCheckout() (<-chan state.Session, func())
	UpdateDraft(ctx context.Context, patch model.DraftPatch) (*model.CheckoutSession, error)
	RefreshCheckout(ctx context.Context) (*model.CheckoutSession, error)
	Commit(ctx context.Context) (model.CommitResult, error)
	CancelCheckout(ctx context.Context) error
	LeaveCheckout()
}

// CartFacade provides cart operations.
type CartFacade interface {
	Cart(ctx context.Context) (state.Cart, error)
	AddUnit(ctx context.Context, productID string) (state.Cart, error)
	RemoveUnit(ctx context.Context, productID string) (state.Cart, error)
	RemoveLine(ctx context.Context, productID string) (state.Cart, error)
	ValidateCart(ctx context.Context) error
	CartTotal() decimal.Decimal
}

// OrderFacade provides order history and repayment.
type OrderFacade interface {
	Orders(ctx context.Context) ([]model.OrderBaseInfo, error)
	LoadOrder(ctx context.Context, orderID string) (state.Order, error)
	Repay(ctx context.Context, orderID string) (string, error)
}

// StorefrontFacade aggregates the full set of operations used across handlers.
type StorefrontFacade interface {
	IdentityFacade
	CheckoutFacade
	CartFacade
	OrderFacade
}

// Pinger reports whether the draft storage is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}
