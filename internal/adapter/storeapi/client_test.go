package storeapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

type staticToken string

func (s staticToken) Token() string { return string(s) }

func newTestClient(t *testing.T, handler http.HandlerFunc) *HTTPClient {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewHTTPClient(srv.URL, time.Second, staticToken("tkn"), testLogger())
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	return client
}

func TestNewHTTPClientValidatesURL(t *testing.T) {
	if _, err := NewHTTPClient("://bad-url", 0, nil, testLogger()); err == nil {
		t.Fatal("expected error for invalid url")
	}
	if _, err := NewHTTPClient("/relative", 0, nil, testLogger()); err == nil {
		t.Fatal("expected error for relative url")
	}
	client, err := NewHTTPClient("http://store.local", 0, nil, testLogger())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if client.httpClient.Timeout != 10*time.Second {
		t.Fatalf("expected default timeout, got %v", client.httpClient.Timeout)
	}
}

func TestFetchOrderSummary(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/api/payment/summary" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tkn" {
			t.Errorf("unexpected auth header %q", got)
		}
		_, _ = io.WriteString(w, `{"order":{"firstName":"Ann","lastName":"Lee","shippingAddress":{"address":"Main 1","city":"Krakow","country":"PL","zipCode":"30-001"},"totalPrice":100,"deliveryTime":"STANDARD"}}`)
	})

	summary, err := client.FetchOrderSummary(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if summary.Customer.FirstName != "Ann" || summary.Customer.ShippingAddress.City != "Krakow" {
		t.Fatalf("unexpected customer %+v", summary.Customer)
	}
	if summary.DeliveryType != model.DeliveryNormal {
		t.Fatalf("expected STANDARD to map to NORMAL, got %s", summary.DeliveryType)
	}
	if summary.PaymentMethod != model.PaymentCard {
		t.Fatalf("expected default payment method CARD, got %s", summary.PaymentMethod)
	}
	if !summary.TotalPrice.Equal(decimal.NewFromInt(100)) || summary.ShippingPrice.Valid {
		t.Fatalf("unexpected prices %s %+v", summary.TotalPrice, summary.ShippingPrice)
	}
}

func TestCreatePayment(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/payment/create" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Idempotency-Key") != "key-1" {
			t.Errorf("missing idempotency key")
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode body: %v", err)
		}
		if body["deliveryTime"] != "EXPRESS" || body["paymentMethod"] != "BLIK" {
			t.Errorf("unexpected body %v", body)
		}
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"url":"https://pay.example/cs_1"}`)
	})

	url, err := client.CreatePayment(context.Background(), model.PaymentContext{
		IdempotencyKey: "key-1",
		Customer:       model.Customer{FirstName: "Ann"},
		DeliveryType:   model.DeliveryExpress,
		PaymentMethod:  model.PaymentBlik,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if url != "https://pay.example/cs_1" {
		t.Fatalf("unexpected url %q", url)
	}
}

func TestRepayAndCartSendRawIDs(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]string{}
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		mu.Lock()
		seen[r.Method+" "+r.URL.Path] = string(body)
		mu.Unlock()
		if r.URL.Path == "/api/payment/repay" {
			_, _ = io.WriteString(w, `{"url":"https://pay.example/again"}`)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	})
	ctx := context.Background()

	url, err := client.RepayOrder(ctx, "ord-1")
	if err != nil || url != "https://pay.example/again" {
		t.Fatalf("unexpected repay result %q %v", url, err)
	}
	if err := client.AddToCart(ctx, "p1"); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := client.RemoveFromCart(ctx, "p2"); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := client.DeleteFromCart(ctx, "p3"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := client.CancelPendingPayment(ctx); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	if err := client.ValidateCart(ctx); err != nil {
		t.Fatalf("validate: %v", err)
	}

	want := map[string]string{
		"POST /api/payment/repay":     "ord-1",
		"POST /api/store/cart/add":    "p1",
		"POST /api/store/cart/remove": "p2",
		"DELETE /api/store/cart/p3":   "",
		"DELETE /api/payment/cancel":  "",
		"GET /api/store/cart/valid":   "",
	}
	for key, body := range want {
		got, ok := seen[key]
		if !ok {
			t.Fatalf("missing request %s", key)
		}
		if got != body {
			t.Fatalf("%s: expected body %q, got %q", key, body, got)
		}
	}
}

func TestOrdersAndCart(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/orders":
			_, _ = io.WriteString(w, `{"orders":[{"id":"o1","orderDate":"2024-05-10T12:00:00.000+00:00","totalPrice":42.5,"status":"CREATED"},{"id":"o2","orderDate":"2024-05-09T12:00:00Z","totalPrice":10,"status":"LOST"}]}`)
		case "/api/orders/o1":
			_, _ = io.WriteString(w, `{"order":{"id":"o1","orderDate":"2024-05-10T12:00:00Z","totalPrice":42.5,"status":"PROCESSING","deliveryTime":"EXPRESS","paymentMethod":"P24","productsDto":[{"productId":"p1","quantity":2,"price":21.25,"name":"Ball","rated":true}]}}`)
		case "/api/store/cart":
			_, _ = io.WriteString(w, `{"products":[{"id":"p1","name":"Ball","price":"21.25","quantity":2,"totalQuantity":3}]}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})
	ctx := context.Background()

	orders, err := client.ListOrders(ctx)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(orders) != 2 || orders[0].Status != model.OrderStatusCreated {
		t.Fatalf("unexpected orders %+v", orders)
	}
	if orders[1].Status.Known() {
		t.Fatalf("expected unknown status to be preserved raw")
	}

	order, err := client.GetOrder(ctx, "o1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if order.DeliveryType != model.DeliveryExpress || order.PaymentMethod != model.PaymentP24 {
		t.Fatalf("unexpected order enums %+v", order)
	}
	if len(order.Products) != 1 || order.Products[0].Quantity != 2 || !order.Products[0].Rated {
		t.Fatalf("unexpected products %+v", order.Products)
	}

	items, err := client.FetchCart(ctx)
	if err != nil {
		t.Fatalf("cart: %v", err)
	}
	if len(items) != 1 || items[0].TotalQuantity != 3 {
		t.Fatalf("unexpected cart %+v", items)
	}

	if _, err := client.GetOrder(ctx, "missing"); !errors.Is(err, domainErrors.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestErrorStatuses(t *testing.T) {
	tests := []struct {
		name       string
		statusCode int
		body       string
		wantMsg    string
		wantIs     error
		client     bool
	}{
		{name: "json message", statusCode: http.StatusBadRequest, body: `{"message":"Order expired."}`, wantMsg: "Order expired.", client: true},
		{name: "plain text", statusCode: http.StatusBadRequest, body: "Not enough products in stock.", wantMsg: "Not enough products in stock.", client: true},
		{name: "unauthorized", statusCode: http.StatusUnauthorized, wantIs: domainErrors.ErrUnauthenticated, client: true},
		{name: "server error", statusCode: http.StatusBadGateway, body: "upstream", wantMsg: "upstream"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.statusCode)
				_, _ = io.WriteString(w, tt.body)
			})

			_, err := client.RepayOrder(context.Background(), "o1")
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				t.Fatalf("expected APIError, got %v", err)
			}
			if apiErr.Status != tt.statusCode {
				t.Fatalf("expected status %d, got %d", tt.statusCode, apiErr.Status)
			}
			if tt.wantMsg != "" && Message(err) != tt.wantMsg {
				t.Fatalf("expected message %q, got %q", tt.wantMsg, Message(err))
			}
			if tt.wantIs != nil && !errors.Is(err, tt.wantIs) {
				t.Fatalf("expected %v, got %v", tt.wantIs, err)
			}
			if IsClientError(err) != tt.client {
				t.Fatalf("IsClientError = %v", IsClientError(err))
			}
			if !strings.Contains(err.Error(), "store api") {
				t.Fatalf("unexpected error text %q", err.Error())
			}
		})
	}
}

func TestCircuitBreakerOpensOnServerErrors(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusInternalServerError)
	})

	for i := 0; i < 5; i++ {
		_ = client.CancelPendingPayment(context.Background())
	}
	err := client.CancelPendingPayment(context.Background())
	if err == nil || !strings.Contains(err.Error(), "circuit breaker is open") {
		t.Fatalf("expected open breaker, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 5 {
		t.Fatalf("expected 5 upstream calls, got %d", calls)
	}
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	var calls int32
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	for i := 0; i < 8; i++ {
		if err := client.AddToCart(context.Background(), "p1"); !IsClientError(err) {
			t.Fatalf("expected client error, got %v", err)
		}
	}
	if atomic.LoadInt32(&calls) != 8 {
		t.Fatalf("expected every call to reach upstream, got %d", calls)
	}
}

func TestConcurrentReadsAreShared(t *testing.T) {
	var calls int32
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		<-release
		_, _ = io.WriteString(w, `{"products":[]}`)
	})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := client.FetchCart(context.Background()); err != nil {
				t.Errorf("fetch: %v", err)
			}
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := atomic.LoadInt32(&calls); got != 1 {
		t.Fatalf("expected one shared request, got %d", got)
	}
}

func TestSharedReadOutlivesFirstCaller(t *testing.T) {
	var calls int32
	arrived := make(chan struct{}, 1)
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		arrived <- struct{}{}
		<-release
		_, _ = io.WriteString(w, `{"products":[{"id":"ball","quantity":1,"totalQuantity":2}]}`)
	})

	firstCtx, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := client.FetchCart(firstCtx)
		firstErr <- err
	}()
	<-arrived

	type result struct {
		items []model.CartItem
		err   error
	}
	second := make(chan result, 1)
	go func() {
		items, err := client.FetchCart(context.Background())
		second <- result{items, err}
	}()
	time.Sleep(50 * time.Millisecond)

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("expected first caller to observe its own cancellation, got %v", err)
	}

	close(release)
	got := <-second
	if got.err != nil {
		t.Fatalf("second caller must not inherit the cancellation: %v", got.err)
	}
	if len(got.items) != 1 || got.items[0].ID != "ball" {
		t.Fatalf("unexpected cart %+v", got.items)
	}
	if n := atomic.LoadInt32(&calls); n != 1 {
		t.Fatalf("expected one shared request, got %d", n)
	}
}
