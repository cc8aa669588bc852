package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/state"
)

// OrderAPI is the slice of the store backend used for orders.
type OrderAPI interface {
	ListOrders(ctx context.Context) ([]model.OrderBaseInfo, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	RepayOrder(ctx context.Context, orderID string) (string, error)
}

// OrderUseCase keeps observed state for every order the user has opened.
type OrderUseCase struct {
	api    OrderAPI
	logger *slog.Logger
	now    func() time.Time

	mu    sync.Mutex
	views map[string]*state.Value[state.Order]
}

// NewOrderUseCase constructs OrderUseCase.
func NewOrderUseCase(api OrderAPI, logger *slog.Logger) *OrderUseCase {
	return &OrderUseCase{
		api:    api,
		logger: logger,
		now:    time.Now,
		views:  make(map[string]*state.Value[state.Order]),
	}
}

// List returns the order history of the current user.
func (u *OrderUseCase) List(ctx context.Context) ([]model.OrderBaseInfo, error) {
	orders, err := u.api.ListOrders(ctx)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	for _, o := range orders {
		if !o.Status.Known() {
			u.logger.Debug("order with unknown status", slog.String("order_id", o.ID), slog.String("status", string(o.Status)))
		}
	}
	return orders, nil
}

// Load fetches one order with its products and publishes it to observers.
func (u *OrderUseCase) Load(ctx context.Context, orderID string) (state.Order, error) {
	view := u.view(orderID)
	view.Update(func(s state.Order) state.Order {
		s.IsLoading = true
		return s
	})

	order, err := u.api.GetOrder(ctx, orderID)
	if err != nil {
		st := view.Update(func(s state.Order) state.Order {
			s.IsLoading = false
			s.ErrorMessage = "Order could not be loaded."
			return s
		})
		u.logger.Warn("load order failed", slog.String("order_id", orderID), slog.Any("error", err))
		return st, fmt.Errorf("load order %s: %w", orderID, err)
	}

	now := u.now()
	return view.Update(func(s state.Order) state.Order {
		s.Order = order
		s.IsLoading = false
		s.ErrorMessage = ""
		s.Stale = false
		s.TimeToDelete = model.TimeRemainingForDeletion(order.OrderBaseInfo, now)
		s.Expired = model.DeletionExpired(order.OrderBaseInfo, now)
		return s
	}), nil
}

// State returns the observed state of orderID, if it was ever opened.
func (u *OrderUseCase) State(orderID string) (state.Order, bool) {
	u.mu.Lock()
	view, ok := u.views[orderID]
	u.mu.Unlock()
	if !ok {
		return state.Order{}, false
	}
	return view.Get(), true
}

// Observe subscribes to the state of orderID.
func (u *OrderUseCase) Observe(orderID string) (<-chan state.Order, func()) {
	return u.view(orderID).Subscribe()
}

// Forget stops tracking orderID.
func (u *OrderUseCase) Forget(orderID string) {
	u.mu.Lock()
	delete(u.views, orderID)
	u.mu.Unlock()
}

// Reset drops every tracked order; used when the customer changes.
func (u *OrderUseCase) Reset() {
	u.mu.Lock()
	for _, v := range u.views {
		v.Set(state.Order{})
	}
	u.views = make(map[string]*state.Value[state.Order])
	u.mu.Unlock()
}

// Repay asks the backend for a new payment of a CREATED order and returns the
// processor redirect. A client-side rejection discards the local countdown and
// marks the order for re-fetch; other failures are retryable.
func (u *OrderUseCase) Repay(ctx context.Context, orderID string) (string, error) {
	current, ok := u.State(orderID)
	if !ok || current.Order == nil {
		var err error
		if current, err = u.Load(ctx, orderID); err != nil {
			return "", err
		}
	}
	if !model.CanRepay(current.Order.OrderBaseInfo) {
		return "", fmt.Errorf("%w: status %s", domainErrors.ErrNotRepayable, current.Order.Status)
	}

	view := u.view(orderID)
	url, err := u.api.RepayOrder(ctx, orderID)
	if err == nil {
		view.Update(func(s state.Order) state.Order {
			s.ErrorMessage = ""
			return s
		})
		u.logger.Info("order repayment started", slog.String("order_id", orderID))
		return url, nil
	}

	if storeapi.IsClientError(err) {
		msg := storeapi.Message(err)
		if msg == "" {
			msg = "Payment for this order can no longer be retried."
		}
		view.Update(func(s state.Order) state.Order {
			s.ErrorMessage = msg
			s.TimeToDelete = 0
			s.Stale = true
			return s
		})
		u.logger.Warn("repay rejected", slog.String("order_id", orderID), slog.String("reason", msg))
		return "", fmt.Errorf("%w: %s", domainErrors.ErrRepayRejected, msg)
	}

	view.Update(func(s state.Order) state.Order {
		s.ErrorMessage = "Payment could not be started. Please try again."
		return s
	})
	u.logger.Warn("repay failed", slog.String("order_id", orderID), slog.Any("error", err))
	return "", fmt.Errorf("repay order %s: %w", orderID, err)
}

// RefreshCountdown recomputes the deletion countdown of every loaded order.
func (u *OrderUseCase) RefreshCountdown(now time.Time) {
	for _, view := range u.snapshot() {
		view.Update(func(s state.Order) state.Order {
			if s.Order == nil || s.Stale {
				return s
			}
			s.TimeToDelete = model.TimeRemainingForDeletion(s.Order.OrderBaseInfo, now)
			s.Expired = model.DeletionExpired(s.Order.OrderBaseInfo, now)
			return s
		})
	}
}

// WatchedOrders lists orders whose server state may still change: non-terminal
// or marked stale. The result is sorted.
func (u *OrderUseCase) WatchedOrders() []string {
	views := u.snapshot()
	ids := make([]string, 0, len(views))
	for id, view := range views {
		s := view.Get()
		if s.Stale || s.Order == nil || !s.Order.Status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func (u *OrderUseCase) view(orderID string) *state.Value[state.Order] {
	u.mu.Lock()
	defer u.mu.Unlock()
	view, ok := u.views[orderID]
	if !ok {
		view = state.NewValue(state.Order{})
		u.views[orderID] = view
	}
	return view
}

func (u *OrderUseCase) snapshot() map[string]*state.Value[state.Order] {
	u.mu.Lock()
	defer u.mu.Unlock()
	out := make(map[string]*state.Value[state.Order], len(u.views))
	for id, view := range u.views {
		out[id] = view
	}
	return out
}
