package app

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/state"
	"github.com/polkiloo/storefront/internal/usecase"
)

// StorefrontFacade is the single entry point of the view bridge and the
// background watcher.
type StorefrontFacade struct {
	identity *auth.Identity
	checkout *usecase.CheckoutUseCase
	orders   *usecase.OrderUseCase
	cart     *usecase.CartUseCase

	// switchMu serializes identity changes; owner is the customer the
	// checkout, cart and order state currently belong to.
	switchMu sync.Mutex
	owner    string
}

func NewStorefrontFacade(identity *auth.Identity, checkout *usecase.CheckoutUseCase, orders *usecase.OrderUseCase, cart *usecase.CartUseCase) *StorefrontFacade {
	return &StorefrontFacade{
		identity: identity,
		checkout: checkout,
		orders:   orders,
		cart:     cart,
		owner:    identity.Claims().Subject,
	}
}

// SetToken adopts token. A token for another customer first ends the
// previous customer's checkout, using the previous token.
func (f *StorefrontFacade) SetToken(ctx context.Context, token string) error {
	claims, err := f.identity.Inspect(token)
	if err != nil {
		return err
	}

	f.switchMu.Lock()
	defer f.switchMu.Unlock()
	if claims.Subject != f.owner {
		if err := f.switchCustomerLocked(ctx, claims.Subject); err != nil {
			return err
		}
	}
	return f.identity.SetToken(token)
}

// ClearIdentity ends the customer's checkout and forgets the token.
func (f *StorefrontFacade) ClearIdentity(ctx context.Context) error {
	f.switchMu.Lock()
	defer f.switchMu.Unlock()
	if err := f.switchCustomerLocked(ctx, ""); err != nil {
		return err
	}
	f.identity.Clear()
	return nil
}

func (f *StorefrontFacade) switchCustomerLocked(ctx context.Context, owner string) error {
	// a failed backend cancel still ends the session locally
	if err := f.checkout.Rebind(ctx, owner); err != nil && !errors.Is(err, domainErrors.ErrCancelFailed) {
		return err
	}
	// state gathered while anonymous carries over to the customer who logs in
	if f.owner != "" {
		f.cart.Reset()
		f.orders.Reset()
	}
	f.owner = owner
	return nil
}

func (f *StorefrontFacade) IsAuthenticated() bool {
	return f.identity.IsAuthenticated()
}

func (f *StorefrontFacade) Claims() auth.Claims {
	return f.identity.Claims()
}

func (f *StorefrontFacade) EnterCheckout(ctx context.Context) (*model.CheckoutSession, error) {
	return f.checkout.EnterCheckout(ctx)
}

func (f *StorefrontFacade) CheckoutState() state.Session {
	return f.checkout.State()
}

func (f *StorefrontFacade) SubscribeCheckout() (<-chan state.Session, func()) {
	return f.checkout.Subscribe()
}

func (f *StorefrontFacade) UpdateDraft(ctx context.Context, patch model.DraftPatch) (*model.CheckoutSession, error) {
	return f.checkout.UpdateDraft(ctx, patch)
}

func (f *StorefrontFacade) RefreshCheckout(ctx context.Context) (*model.CheckoutSession, error) {
	return f.checkout.Refresh(ctx)
}

func (f *StorefrontFacade) Commit(ctx context.Context) (model.CommitResult, error) {
	return f.checkout.Commit(ctx)
}

func (f *StorefrontFacade) CancelCheckout(ctx context.Context) error {
	return f.checkout.Cancel(ctx)
}

func (f *StorefrontFacade) LeaveCheckout() {
	f.checkout.Dispose()
}

// FlushCheckout runs a pending teardown cancel; used on shutdown.
func (f *StorefrontFacade) FlushCheckout(ctx context.Context) error {
	return f.checkout.Flush(ctx)
}

func (f *StorefrontFacade) Cart(ctx context.Context) (state.Cart, error) {
	return f.cart.Load(ctx)
}

func (f *StorefrontFacade) AddUnit(ctx context.Context, productID string) (state.Cart, error) {
	return f.cart.AddUnit(ctx, productID)
}

func (f *StorefrontFacade) RemoveUnit(ctx context.Context, productID string) (state.Cart, error) {
	return f.cart.RemoveUnit(ctx, productID)
}

func (f *StorefrontFacade) RemoveLine(ctx context.Context, productID string) (state.Cart, error) {
	return f.cart.RemoveLine(ctx, productID)
}

func (f *StorefrontFacade) ValidateCart(ctx context.Context) error {
	return f.cart.Validate(ctx)
}

func (f *StorefrontFacade) CartTotal() decimal.Decimal {
	return f.cart.Total()
}

func (f *StorefrontFacade) Orders(ctx context.Context) ([]model.OrderBaseInfo, error) {
	return f.orders.List(ctx)
}

func (f *StorefrontFacade) LoadOrder(ctx context.Context, orderID string) (state.Order, error) {
	return f.orders.Load(ctx, orderID)
}

func (f *StorefrontFacade) Repay(ctx context.Context, orderID string) (string, error) {
	return f.orders.Repay(ctx, orderID)
}

func (f *StorefrontFacade) WatchedOrders() []string {
	// anonymous callers cannot reach the backend; nothing to refresh
	if !f.identity.IsAuthenticated() {
		return nil
	}
	return f.orders.WatchedOrders()
}

func (f *StorefrontFacade) RefreshCountdown(now time.Time) {
	f.orders.RefreshCountdown(now)
}

func (f *StorefrontFacade) ForgetOrder(orderID string) {
	f.orders.Forget(orderID)
}
