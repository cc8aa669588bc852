package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/state"
)

// CartAPI is the slice of the store backend used for the cart.
type CartAPI interface {
	FetchCart(ctx context.Context) ([]model.CartItem, error)
	AddToCart(ctx context.Context, productID string) error
	RemoveFromCart(ctx context.Context, productID string) error
	DeleteFromCart(ctx context.Context, productID string) error
	ValidateCart(ctx context.Context) error
}

// CartUseCase reconciles the displayed cart with the backend. Adjustments are
// applied optimistically and rolled back when the backend refuses them.
type CartUseCase struct {
	api    CartAPI
	logger *slog.Logger

	// opMu serializes adjustments so a rollback restores the state the
	// failed adjustment started from.
	opMu sync.Mutex
	view *state.Value[state.Cart]
}

// NewCartUseCase constructs CartUseCase.
func NewCartUseCase(api CartAPI, logger *slog.Logger) *CartUseCase {
	return &CartUseCase{
		api:    api,
		logger: logger,
		view:   state.NewValue(state.Cart{}),
	}
}

// State returns the observed cart.
func (u *CartUseCase) State() state.Cart {
	return u.view.Get()
}

// Subscribe streams observed cart state until the returned func is called.
func (u *CartUseCase) Subscribe() (<-chan state.Cart, func()) {
	return u.view.Subscribe()
}

// Total sums the displayed lines.
func (u *CartUseCase) Total() decimal.Decimal {
	return model.CartTotal(u.view.Get().Lines)
}

// Reset empties the displayed cart; used when the customer changes.
func (u *CartUseCase) Reset() {
	u.opMu.Lock()
	defer u.opMu.Unlock()
	u.view.Set(state.Cart{})
}

// Load replaces the displayed cart with the backend one.
func (u *CartUseCase) Load(ctx context.Context) (state.Cart, error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()

	u.view.Update(func(c state.Cart) state.Cart {
		c.IsLoading = true
		return c
	})

	raw, err := u.api.FetchCart(ctx)
	if err != nil {
		c := u.view.Update(func(c state.Cart) state.Cart {
			c.IsLoading = false
			c.ErrorMessage = "Cart could not be loaded."
			return c
		})
		u.logger.Warn("load cart failed", slog.Any("error", err))
		return c, fmt.Errorf("load cart: %w", err)
	}

	lines, clamped := model.ToDisplayLines(raw)
	for _, id := range clamped {
		u.logger.Warn("cart quantity above stock, clamped", slog.String("product_id", id))
	}
	return u.view.Update(func(c state.Cart) state.Cart {
		c = c.WithLines(lines)
		c.IsLoading = false
		c.ErrorMessage = ""
		return c
	}), nil
}

// AddUnit adds one unit of a product already in the cart. At the stock
// ceiling it fails with ErrStockExceeded without calling the backend.
func (u *CartUseCase) AddUnit(ctx context.Context, productID string) (state.Cart, error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()

	before := u.view.Get()
	idx := lineIndex(before.Lines, productID)
	if idx < 0 {
		return before, fmt.Errorf("%w: product %s not in cart", domainErrors.ErrNotFound, productID)
	}
	if before.Lines[idx].Quantity >= before.Lines[idx].TotalQuantity {
		return before, fmt.Errorf("%w: product %s", domainErrors.ErrStockExceeded, productID)
	}

	next := slices.Clone(before.Lines)
	next[idx].Quantity++
	u.view.Set(before.WithLines(next))

	if err := u.api.AddToCart(ctx, productID); err != nil {
		u.rollback(before, "Could not add the product.")
		if storeapi.IsClientError(err) {
			return u.view.Get(), fmt.Errorf("%w: %s", domainErrors.ErrStockExceeded, storeapi.Message(err))
		}
		return u.view.Get(), fmt.Errorf("add to cart: %w", err)
	}
	return u.settled(), nil
}

// RemoveUnit removes one unit; the last unit removes the line.
func (u *CartUseCase) RemoveUnit(ctx context.Context, productID string) (state.Cart, error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()

	before := u.view.Get()
	idx := lineIndex(before.Lines, productID)
	if idx < 0 {
		return before, fmt.Errorf("%w: product %s not in cart", domainErrors.ErrNotFound, productID)
	}

	next := slices.Clone(before.Lines)
	if next[idx].Quantity <= 1 {
		next = slices.Delete(next, idx, idx+1)
	} else {
		next[idx].Quantity--
	}
	u.view.Set(before.WithLines(next))

	if err := u.api.RemoveFromCart(ctx, productID); err != nil {
		u.rollback(before, "Could not remove the product.")
		return u.view.Get(), fmt.Errorf("remove from cart: %w", err)
	}
	return u.settled(), nil
}

// RemoveLine deletes every unit of a product.
func (u *CartUseCase) RemoveLine(ctx context.Context, productID string) (state.Cart, error) {
	u.opMu.Lock()
	defer u.opMu.Unlock()

	before := u.view.Get()
	idx := lineIndex(before.Lines, productID)
	if idx < 0 {
		return before, fmt.Errorf("%w: product %s not in cart", domainErrors.ErrNotFound, productID)
	}

	next := slices.Delete(slices.Clone(before.Lines), idx, idx+1)
	u.view.Set(before.WithLines(next))

	if err := u.api.DeleteFromCart(ctx, productID); err != nil {
		u.rollback(before, "Could not remove the product.")
		return u.view.Get(), fmt.Errorf("delete from cart: %w", err)
	}
	return u.settled(), nil
}

// Validate asks the backend whether the cart can still be ordered.
func (u *CartUseCase) Validate(ctx context.Context) error {
	err := u.api.ValidateCart(ctx)
	if err == nil {
		return nil
	}
	if storeapi.IsClientError(err) {
		msg := storeapi.Message(err)
		u.view.Update(func(c state.Cart) state.Cart {
			c.ErrorMessage = msg
			return c
		})
		return fmt.Errorf("%w: %s", domainErrors.ErrStockExceeded, msg)
	}
	return fmt.Errorf("validate cart: %w", err)
}

func (u *CartUseCase) rollback(before state.Cart, msg string) {
	restored := before
	restored.ErrorMessage = msg
	u.view.Set(restored)
}

func (u *CartUseCase) settled() state.Cart {
	return u.view.Update(func(c state.Cart) state.Cart {
		c.ErrorMessage = ""
		return c
	})
}

func lineIndex(lines []model.CartLine, productID string) int {
	return slices.IndexFunc(lines, func(l model.CartLine) bool { return l.ProductID == productID })
}
