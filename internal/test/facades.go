package test

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/pkg/auth"
	"github.com/polkiloo/storefront/internal/state"
)

// OrderTrackerStub mimics the order operations used by the repayment watcher.
type OrderTrackerStub struct {
	sync.Mutex

	Watched    []string
	LoadFn     func(context.Context, string) (state.Order, error)
	Loaded     []string
	Forgotten  []string
	Countdowns int
}

// WatchedOrders returns the configured ids.
func (s *OrderTrackerStub) WatchedOrders() []string {
	s.Lock()
	defer s.Unlock()
	return append([]string(nil), s.Watched...)
}

// LoadOrder records the id and delegates to LoadFn.
func (s *OrderTrackerStub) LoadOrder(ctx context.Context, orderID string) (state.Order, error) {
	s.Lock()
	s.Loaded = append(s.Loaded, orderID)
	fn := s.LoadFn
	s.Unlock()
	if fn != nil {
		return fn(ctx, orderID)
	}
	return state.Order{}, nil
}

// RefreshCountdown counts invocations.
func (s *OrderTrackerStub) RefreshCountdown(time.Time) {
	s.Lock()
	s.Countdowns++
	s.Unlock()
}

// ForgetOrder records the id and stops watching it.
func (s *OrderTrackerStub) ForgetOrder(orderID string) {
	s.Lock()
	defer s.Unlock()
	s.Forgotten = append(s.Forgotten, orderID)
	kept := s.Watched[:0]
	for _, id := range s.Watched {
		if id != orderID {
			kept = append(kept, id)
		}
	}
	s.Watched = kept
}

// FlusherStub records checkout flushes.
type FlusherStub struct {
	Err   error
	Calls atomic.Int32
}

// FlushCheckout returns Err.
func (s *FlusherStub) FlushCheckout(context.Context) error {
	s.Calls.Add(1)
	return s.Err
}

// StorefrontFacadeStub provides controllable behaviour for every endpoint.
// Unset functions succeed with minimal data.
type StorefrontFacadeStub struct {
	mu            sync.Mutex
	authenticated bool
	token         string

	SetTokenFn func(context.Context, string) error
	ClearFn    func(context.Context) error
	ClaimsFn   func() auth.Claims

	EnterFn    func(context.Context) (*model.CheckoutSession, error)
	StateFn    func() state.Session
	Updates    chan state.Session
	UpdateFn   func(context.Context, model.DraftPatch) (*model.CheckoutSession, error)
	RefreshFn  func(context.Context) (*model.CheckoutSession, error)
	CommitFn   func(context.Context) (model.CommitResult, error)
	CancelFn   func(context.Context) error
	LeaveCalls atomic.Int32

	CartFn     func(context.Context) (state.Cart, error)
	AddFn      func(context.Context, string) (state.Cart, error)
	RemoveFn   func(context.Context, string) (state.Cart, error)
	DeleteFn   func(context.Context, string) (state.Cart, error)
	ValidateFn func(context.Context) error
	Total      decimal.Decimal

	OrdersFn func(context.Context) ([]model.OrderBaseInfo, error)
	OrderFn  func(context.Context, string) (state.Order, error)
	RepayFn  func(context.Context, string) (string, error)
}

// NewAuthenticatedFacadeStub returns a stub whose identity is already established.
func NewAuthenticatedFacadeStub() *StorefrontFacadeStub {
	return &StorefrontFacadeStub{authenticated: true, token: "token"}
}

func (s *StorefrontFacadeStub) SetToken(ctx context.Context, token string) error {
	if s.SetTokenFn != nil {
		if err := s.SetTokenFn(ctx, token); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.authenticated, s.token = true, token
	s.mu.Unlock()
	return nil
}

func (s *StorefrontFacadeStub) ClearIdentity(ctx context.Context) error {
	if s.ClearFn != nil {
		if err := s.ClearFn(ctx); err != nil {
			return err
		}
	}
	s.mu.Lock()
	s.authenticated, s.token = false, ""
	s.mu.Unlock()
	return nil
}

func (s *StorefrontFacadeStub) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.authenticated
}

func (s *StorefrontFacadeStub) Claims() auth.Claims {
	if s.ClaimsFn != nil {
		return s.ClaimsFn()
	}
	return auth.Claims{Subject: "customer@example.com", Role: model.RoleCustomer}
}

func (s *StorefrontFacadeStub) EnterCheckout(ctx context.Context) (*model.CheckoutSession, error) {
	if s.EnterFn != nil {
		return s.EnterFn(ctx)
	}
	return &model.CheckoutSession{ID: "session", DeliveryType: model.DeliveryNormal, PaymentMethod: model.PaymentCard}, nil
}

func (s *StorefrontFacadeStub) CheckoutState() state.Session {
	if s.StateFn != nil {
		return s.StateFn()
	}
	return state.Session{Phase: "ABSENT"}
}

// SubscribeCheckout streams Updates when set; otherwise a closed channel.
func (s *StorefrontFacadeStub) SubscribeCheckout() (<-chan state.Session, func()) {
	if s.Updates != nil {
		return s.Updates, func() {}
	}
	ch := make(chan state.Session)
	close(ch)
	return ch, func() {}
}

func (s *StorefrontFacadeStub) UpdateDraft(ctx context.Context, patch model.DraftPatch) (*model.CheckoutSession, error) {
	if s.UpdateFn != nil {
		return s.UpdateFn(ctx, patch)
	}
	session, _ := s.EnterCheckout(ctx)
	patch.Apply(session)
	return session, nil
}

func (s *StorefrontFacadeStub) RefreshCheckout(ctx context.Context) (*model.CheckoutSession, error) {
	if s.RefreshFn != nil {
		return s.RefreshFn(ctx)
	}
	return s.EnterCheckout(ctx)
}

func (s *StorefrontFacadeStub) Commit(ctx context.Context) (model.CommitResult, error) {
	if s.CommitFn != nil {
		return s.CommitFn(ctx)
	}
	return model.CommitResult{SessionID: "session", Reference: "https://pay.example/session"}, nil
}

func (s *StorefrontFacadeStub) CancelCheckout(ctx context.Context) error {
	if s.CancelFn != nil {
		return s.CancelFn(ctx)
	}
	return nil
}

func (s *StorefrontFacadeStub) LeaveCheckout() {
	s.LeaveCalls.Add(1)
}

func (s *StorefrontFacadeStub) Cart(ctx context.Context) (state.Cart, error) {
	if s.CartFn != nil {
		return s.CartFn(ctx)
	}
	return state.Cart{}, nil
}

func (s *StorefrontFacadeStub) AddUnit(ctx context.Context, productID string) (state.Cart, error) {
	if s.AddFn != nil {
		return s.AddFn(ctx, productID)
	}
	return state.Cart{}, nil
}

func (s *StorefrontFacadeStub) RemoveUnit(ctx context.Context, productID string) (state.Cart, error) {
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, productID)
	}
	return state.Cart{}, nil
}

func (s *StorefrontFacadeStub) RemoveLine(ctx context.Context, productID string) (state.Cart, error) {
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, productID)
	}
	return state.Cart{}, nil
}

func (s *StorefrontFacadeStub) ValidateCart(ctx context.Context) error {
	if s.ValidateFn != nil {
		return s.ValidateFn(ctx)
	}
	return nil
}

func (s *StorefrontFacadeStub) CartTotal() decimal.Decimal {
	return s.Total
}

func (s *StorefrontFacadeStub) Orders(ctx context.Context) ([]model.OrderBaseInfo, error) {
	if s.OrdersFn != nil {
		return s.OrdersFn(ctx)
	}
	return nil, nil
}

func (s *StorefrontFacadeStub) LoadOrder(ctx context.Context, orderID string) (state.Order, error) {
	if s.OrderFn != nil {
		return s.OrderFn(ctx, orderID)
	}
	return state.Order{Order: &model.Order{OrderBaseInfo: model.OrderBaseInfo{ID: orderID, Status: model.OrderStatusCreated}}}, nil
}

func (s *StorefrontFacadeStub) Repay(ctx context.Context, orderID string) (string, error) {
	if s.RepayFn != nil {
		return s.RepayFn(ctx, orderID)
	}
	return "https://pay.example/repay/" + orderID, nil
}

// PingerStub reports Err on every ping.
type PingerStub struct {
	Err error
}

func (p PingerStub) Ping(context.Context) error {
	return p.Err
}
