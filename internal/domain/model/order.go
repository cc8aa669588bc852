package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// OrderStatus describes the server-side order lifecycle.
type OrderStatus string

const (
	OrderStatusCreated    OrderStatus = "CREATED"
	OrderStatusProcessing OrderStatus = "PROCESSING"
	OrderStatusShipping   OrderStatus = "SHIPPING"
	OrderStatusDelivered  OrderStatus = "DELIVERED"
	OrderStatusAnnulled   OrderStatus = "ANNULLED"
	OrderStatusRefunded   OrderStatus = "REFUNDED"
)

// OrderStatuses lists every known status in workflow order.
var OrderStatuses = []OrderStatus{
	OrderStatusCreated,
	OrderStatusProcessing,
	OrderStatusShipping,
	OrderStatusDelivered,
	OrderStatusAnnulled,
	OrderStatusRefunded,
}

// Known reports whether s is one of the six workflow statuses.
func (s OrderStatus) Known() bool {
	for _, known := range OrderStatuses {
		if s == known {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further status change is expected.
func (s OrderStatus) IsTerminal() bool {
	switch s {
	case OrderStatusDelivered, OrderStatusAnnulled, OrderStatusRefunded:
		return true
	default:
		return false
	}
}

// OrderBaseInfo is the list view of an order.
type OrderBaseInfo struct {
	ID           string          `json:"id"`
	OrderDate    time.Time       `json:"orderDate"`
	DeliveryDate *time.Time      `json:"deliveryDate,omitempty"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       OrderStatus     `json:"status"`
}

// OrderProduct is a purchased line of an order.
type OrderProduct struct {
	ProductID string          `json:"productId"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Price     decimal.Decimal `json:"price"`
	Quantity  int             `json:"quantity"`
	Rated     bool            `json:"rated"`
}

// Order is the detailed view of an order.
type Order struct {
	OrderBaseInfo
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Email           string           `json:"email"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	DeliveryType    DeliveryType     `json:"deliveryType,omitempty"`
	PaymentMethod   PaymentMethod    `json:"paymentMethod,omitempty"`
	Products        []OrderProduct   `json:"products"`
}
