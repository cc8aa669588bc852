package model

import "github.com/shopspring/decimal"

// PaymentContext is the processor-side handle prepared for a committed session.
type PaymentContext struct {
	SessionID      string          `json:"sessionId"`
	IdempotencyKey string          `json:"idempotencyKey"`
	Customer       Customer        `json:"customer"`
	DeliveryType   DeliveryType    `json:"deliveryType"`
	PaymentMethod  PaymentMethod   `json:"paymentMethod"`
	Amount         decimal.Decimal `json:"amount"`
}

// PaymentResult is the processor-agnostic outcome of a submission.
type PaymentResult struct {
	Success   bool   `json:"success"`
	Reference string `json:"reference,omitempty"`
	Reason    string `json:"reason,omitempty"`
}

// CommitResult is what a successful checkout hand-off returns to the caller.
type CommitResult struct {
	SessionID string `json:"sessionId"`
	Reference string `json:"reference"`
}
