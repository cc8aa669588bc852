package test

import (
	"context"
	"sync/atomic"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// StoreAPIStub is a storeapi.Client whose calls are delegated to the Fn
// fields. Unset functions succeed with zero values. Every call is counted.
type StoreAPIStub struct {
	SummaryFn  func(context.Context) (*model.OrderSummary, error)
	CreateFn   func(context.Context, model.PaymentContext) (string, error)
	CancelFn   func(context.Context) error
	RepayFn    func(context.Context, string) (string, error)
	ListFn     func(context.Context) ([]model.OrderBaseInfo, error)
	GetOrderFn func(context.Context, string) (*model.Order, error)
	CartFn     func(context.Context) ([]model.CartItem, error)
	AddFn      func(context.Context, string) error
	RemoveFn   func(context.Context, string) error
	DeleteFn   func(context.Context, string) error
	ValidateFn func(context.Context) error

	SummaryCalls  atomic.Int32
	CreateCalls   atomic.Int32
	CancelCalls   atomic.Int32
	RepayCalls    atomic.Int32
	ListCalls     atomic.Int32
	GetOrderCalls atomic.Int32
	CartCalls     atomic.Int32
	AddCalls      atomic.Int32
	RemoveCalls   atomic.Int32
	DeleteCalls   atomic.Int32
	ValidateCalls atomic.Int32
}

var _ storeapi.Client = (*StoreAPIStub)(nil)

func (s *StoreAPIStub) FetchOrderSummary(ctx context.Context) (*model.OrderSummary, error) {
	s.SummaryCalls.Add(1)
	if s.SummaryFn != nil {
		return s.SummaryFn(ctx)
	}
	return &model.OrderSummary{}, nil
}

func (s *StoreAPIStub) CreatePayment(ctx context.Context, pc model.PaymentContext) (string, error) {
	s.CreateCalls.Add(1)
	if s.CreateFn != nil {
		return s.CreateFn(ctx, pc)
	}
	return "https://pay.example/" + pc.SessionID, nil
}

func (s *StoreAPIStub) CancelPendingPayment(ctx context.Context) error {
	s.CancelCalls.Add(1)
	if s.CancelFn != nil {
		return s.CancelFn(ctx)
	}
	return nil
}

func (s *StoreAPIStub) RepayOrder(ctx context.Context, orderID string) (string, error) {
	s.RepayCalls.Add(1)
	if s.RepayFn != nil {
		return s.RepayFn(ctx, orderID)
	}
	return "https://pay.example/repay/" + orderID, nil
}

func (s *StoreAPIStub) ListOrders(ctx context.Context) ([]model.OrderBaseInfo, error) {
	s.ListCalls.Add(1)
	if s.ListFn != nil {
		return s.ListFn(ctx)
	}
	return nil, nil
}

func (s *StoreAPIStub) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	s.GetOrderCalls.Add(1)
	if s.GetOrderFn != nil {
		return s.GetOrderFn(ctx, orderID)
	}
	return &model.Order{OrderBaseInfo: model.OrderBaseInfo{ID: orderID, Status: model.OrderStatusCreated}}, nil
}

func (s *StoreAPIStub) FetchCart(ctx context.Context) ([]model.CartItem, error) {
	s.CartCalls.Add(1)
	if s.CartFn != nil {
		return s.CartFn(ctx)
	}
	return nil, nil
}

func (s *StoreAPIStub) AddToCart(ctx context.Context, productID string) error {
	s.AddCalls.Add(1)
	if s.AddFn != nil {
		return s.AddFn(ctx, productID)
	}
	return nil
}

func (s *StoreAPIStub) RemoveFromCart(ctx context.Context, productID string) error {
	s.RemoveCalls.Add(1)
	if s.RemoveFn != nil {
		return s.RemoveFn(ctx, productID)
	}
	return nil
}

func (s *StoreAPIStub) DeleteFromCart(ctx context.Context, productID string) error {
	s.DeleteCalls.Add(1)
	if s.DeleteFn != nil {
		return s.DeleteFn(ctx, productID)
	}
	return nil
}

func (s *StoreAPIStub) ValidateCart(ctx context.Context) error {
	s.ValidateCalls.Add(1)
	if s.ValidateFn != nil {
		return s.ValidateFn(ctx)
	}
	return nil
}
