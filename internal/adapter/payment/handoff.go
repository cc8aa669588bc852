package payment

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	"github.com/polkiloo/storefront/internal/domain/model"
)

// Handoff exchanges a committed session for a processor confirmation.
type Handoff interface {
	Initialize(ctx context.Context, session *model.CheckoutSession) (model.PaymentContext, error)
	Submit(ctx context.Context, pc model.PaymentContext) model.PaymentResult
	Forget(sessionID string)
}

// PaymentCreator opens a hosted processor checkout.
type PaymentCreator interface {
	CreatePayment(ctx context.Context, pc model.PaymentContext) (string, error)
}

// RedirectHandoff uses the backend hosted checkout; the reference is the
// processor URL the caller must be sent to.
type RedirectHandoff struct {
	creator  PaymentCreator
	logger   *slog.Logger
	mu       sync.Mutex
	contexts map[string]model.PaymentContext
}

var _ Handoff = (*RedirectHandoff)(nil)

func NewRedirectHandoff(creator PaymentCreator, logger *slog.Logger) *RedirectHandoff {
	return &RedirectHandoff{creator: creator, logger: logger, contexts: make(map[string]model.PaymentContext)}
}

// Initialize returns the context of the session, creating it once. Later calls
// keep the idempotency key and refresh the payer details from the session.
func (h *RedirectHandoff) Initialize(ctx context.Context, session *model.CheckoutSession) (model.PaymentContext, error) {
	if session == nil || session.ID == "" {
		return model.PaymentContext{}, errors.New("initialize payment: session without id")
	}
	if err := ctx.Err(); err != nil {
		return model.PaymentContext{}, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	pc, ok := h.contexts[session.ID]
	if !ok {
		pc = model.PaymentContext{SessionID: session.ID, IdempotencyKey: uuid.NewString()}
		h.logger.Debug("payment context initialized", slog.String("session_id", session.ID))
	}
	pc.Customer = session.Customer
	pc.DeliveryType = session.DeliveryType
	pc.PaymentMethod = session.PaymentMethod
	pc.Amount = session.PriceWithDelivery()
	h.contexts[session.ID] = pc
	return pc, nil
}

// Submit never inspects processor specific errors beyond success or failure.
func (h *RedirectHandoff) Submit(ctx context.Context, pc model.PaymentContext) model.PaymentResult {
	url, err := h.creator.CreatePayment(ctx, pc)
	if err != nil {
		reason := storeapi.Message(err)
		if reason == "" {
			reason = err.Error()
		}
		h.logger.Warn("payment submission failed",
			slog.String("session_id", pc.SessionID),
			slog.String("reason", reason))
		return model.PaymentResult{Success: false, Reason: reason}
	}
	if url == "" {
		return model.PaymentResult{Success: false, Reason: "processor returned no redirect"}
	}
	return model.PaymentResult{Success: true, Reference: url}
}

// Forget drops the cached context once the session is over.
func (h *RedirectHandoff) Forget(sessionID string) {
	h.mu.Lock()
	delete(h.contexts, sessionID)
	h.mu.Unlock()
}
