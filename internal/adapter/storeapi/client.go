package storeapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/singleflight"

	"github.com/polkiloo/storefront/internal/domain/model"
)

const maxErrorBody = 4 << 10

// TokenSource yields the bearer token of the current caller.
type TokenSource interface {
	Token() string
}

// Client exposes the store backend operations used by the checkout core.
type Client interface {
	FetchOrderSummary(ctx context.Context) (*model.OrderSummary, error)
	CreatePayment(ctx context.Context, pc model.PaymentContext) (string, error)
	CancelPendingPayment(ctx context.Context) error
	RepayOrder(ctx context.Context, orderID string) (string, error)
	ListOrders(ctx context.Context) ([]model.OrderBaseInfo, error)
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	FetchCart(ctx context.Context) ([]model.CartItem, error)
	AddToCart(ctx context.Context, productID string) error
	RemoveFromCart(ctx context.Context, productID string) error
	DeleteFromCart(ctx context.Context, productID string) error
	ValidateCart(ctx context.Context) error
}

// HTTPClient implements Client via the store REST API.
type HTTPClient struct {
	baseURL    *url.URL
	httpClient *http.Client
	tokens     TokenSource
	breaker    *gobreaker.CircuitBreaker[[]byte]
	reads      singleflight.Group
	logger     *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient creates the client with an instrumented transport and a circuit breaker.
func NewHTTPClient(baseURL string, timeout time.Duration, tokens TokenSource, logger *slog.Logger) (*HTTPClient, error) {
	parsed, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("parse store api url: %w", err)
	}
	if !parsed.IsAbs() {
		return nil, fmt.Errorf("store api url must be absolute")
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &HTTPClient{
		baseURL: parsed,
		tokens:  tokens,
		logger:  logger,
		httpClient: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "store-api",
		MaxRequests: 1,
		Timeout:     15 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		IsSuccessful: func(err error) bool {
			return err == nil || IsClientError(err) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed",
				slog.String("name", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
		},
	})
	return c, nil
}

func (c *HTTPClient) FetchOrderSummary(ctx context.Context) (*model.OrderSummary, error) {
	var resp summaryResponse
	if err := c.doJSON(ctx, http.MethodGet, "/api/payment/summary", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Order.toModel(), nil
}

// CreatePayment opens the processor checkout and returns its redirect URL.
func (c *HTTPClient) CreatePayment(ctx context.Context, pc model.PaymentContext) (string, error) {
	body, err := json.Marshal(newCreatePaymentRequest(pc))
	if err != nil {
		return "", fmt.Errorf("encode payment request: %w", err)
	}

	var resp urlResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/payment/create", &payload{data: body, contentType: "application/json", idempotencyKey: pc.IdempotencyKey}, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) CancelPendingPayment(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodDelete, "/api/payment/cancel", nil, nil)
}

// RepayOrder returns the redirect URL for paying a CREATED order again.
func (c *HTTPClient) RepayOrder(ctx context.Context, orderID string) (string, error) {
	var resp urlResponse
	if err := c.doJSON(ctx, http.MethodPost, "/api/payment/repay", textPayload(orderID), &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

func (c *HTTPClient) ListOrders(ctx context.Context) ([]model.OrderBaseInfo, error) {
	var resp ordersResponse
	if err := c.sharedGet(ctx, "/api/orders", &resp); err != nil {
		return nil, err
	}
	orders := make([]model.OrderBaseInfo, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		orders = append(orders, o.toModel())
	}
	return orders, nil
}

func (c *HTTPClient) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	var resp orderResponse
	if err := c.sharedGet(ctx, path.Join("/api/orders", orderID), &resp); err != nil {
		return nil, err
	}
	return resp.Order.toModel(), nil
}

func (c *HTTPClient) FetchCart(ctx context.Context) ([]model.CartItem, error) {
	var resp cartResponse
	if err := c.sharedGet(ctx, "/api/store/cart", &resp); err != nil {
		return nil, err
	}
	return resp.Products, nil
}

func (c *HTTPClient) AddToCart(ctx context.Context, productID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/store/cart/add", textPayload(productID), nil)
}

func (c *HTTPClient) RemoveFromCart(ctx context.Context, productID string) error {
	return c.doJSON(ctx, http.MethodPost, "/api/store/cart/remove", textPayload(productID), nil)
}

func (c *HTTPClient) DeleteFromCart(ctx context.Context, productID string) error {
	return c.doJSON(ctx, http.MethodDelete, path.Join("/api/store/cart", productID), nil, nil)
}

func (c *HTTPClient) ValidateCart(ctx context.Context) error {
	return c.doJSON(ctx, http.MethodGet, "/api/store/cart/valid", nil, nil)
}

type payload struct {
	data           []byte
	contentType    string
	idempotencyKey string
}

func textPayload(s string) *payload {
	return &payload{data: []byte(s), contentType: "text/plain"}
}

// sharedGet collapses concurrent identical reads into one request. The request
// is detached from any single caller; each caller stops waiting on its own ctx.
func (c *HTTPClient) sharedGet(ctx context.Context, p string, out any) error {
	results := c.reads.DoChan(p, func() (any, error) {
		return c.execute(context.WithoutCancel(ctx), http.MethodGet, p, nil)
	})
	select {
	case <-ctx.Done():
		return ctx.Err()
	case res := <-results:
		if res.Err != nil {
			return res.Err
		}
		return decodeBody(res.Val.([]byte), out)
	}
}

func (c *HTTPClient) doJSON(ctx context.Context, method, p string, body *payload, out any) error {
	raw, err := c.execute(ctx, method, p, body)
	if err != nil {
		return err
	}
	return decodeBody(raw, out)
}

func decodeBody(raw []byte, out any) error {
	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode store api response: %w", err)
	}
	return nil
}

func (c *HTTPClient) execute(ctx context.Context, method, p string, body *payload) ([]byte, error) {
	raw, err := c.breaker.Execute(func() ([]byte, error) {
		return c.roundTrip(ctx, method, p, body)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, fmt.Errorf("%s %s: %w", method, p, err)
	}
	return raw, err
}

func (c *HTTPClient) roundTrip(ctx context.Context, method, p string, body *payload) ([]byte, error) {
	endpoint := *c.baseURL
	endpoint.Path = path.Join(endpoint.Path, p)

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body.data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint.String(), reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", body.contentType)
		if body.idempotencyKey != "" {
			req.Header.Set("Idempotency-Key", body.idempotencyKey)
		}
	}
	if c.tokens != nil {
		if token := c.tokens.Token(); token != "" {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", method, p, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if resp.StatusCode == http.StatusNoContent {
			return nil, nil
		}
		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, fmt.Errorf("read store api response: %w", err)
		}
		return data, nil
	default:
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		apiErr := &APIError{Status: resp.StatusCode, Message: errorMessage(data)}
		level := slog.LevelWarn
		if resp.StatusCode >= 500 {
			level = slog.LevelError
		}
		c.logger.Log(ctx, level, "store api request failed",
			slog.String("method", method),
			slog.String("path", p),
			slog.Int("status", resp.StatusCode),
			slog.String("message", apiErr.Message))
		return nil, apiErr
	}
}

// errorMessage reads {"message": "..."} and falls back to the raw text.
func errorMessage(body []byte) string {
	var parsed errorResponse
	if err := json.Unmarshal(body, &parsed); err == nil && parsed.Message != "" {
		return parsed.Message
	}
	return strings.TrimSpace(string(body))
}
