package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// OrderListItem is one row of the order history.
type OrderListItem struct {
	ID           string          `json:"id"`
	OrderDate    time.Time       `json:"orderDate"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       string          `json:"status"`
	StatusClass  string          `json:"statusClass"`
	CanRepay     bool            `json:"canRepay"`
}

// OrderResponse is a single order with its repayment countdown.
type OrderResponse struct {
	Order             *model.Order `json:"order"`
	StatusClass       string       `json:"statusClass"`
	CanRepay          bool         `json:"canRepay"`
	TimeToDeleteHours int          `json:"timeToDeleteHours"`
	Expired           bool         `json:"expired"`
	Stale             bool         `json:"stale"`
	ErrorMessage      string       `json:"errorMessage,omitempty"`
}

// RepayResponse tells the view where to send the customer.
type RepayResponse struct {
	RedirectURL string `json:"redirectUrl"`
}
