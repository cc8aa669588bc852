package dto

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// DraftResponse is the checkout session with its derived total.
type DraftResponse struct {
	Session           *model.CheckoutSession `json:"session"`
	PriceWithDelivery decimal.Decimal        `json:"priceWithDelivery"`
}

// NewDraftResponse derives the total from s.
func NewDraftResponse(s *model.CheckoutSession) DraftResponse {
	return DraftResponse{Session: s, PriceWithDelivery: s.PriceWithDelivery()}
}

// CommitResponse tells the view where to send the customer.
type CommitResponse struct {
	SessionID   string `json:"sessionId"`
	RedirectURL string `json:"redirectUrl"`
}
