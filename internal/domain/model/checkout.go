package model

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// DeliveryType selects shipping speed.
type DeliveryType string

const (
	DeliveryNormal  DeliveryType = "NORMAL"
	DeliveryExpress DeliveryType = "EXPRESS"
)

// Valid reports whether d is a supported delivery type.
func (d DeliveryType) Valid() bool {
	return d == DeliveryNormal || d == DeliveryExpress
}

// PaymentMethod selects the processor payment method.
type PaymentMethod string

const (
	PaymentCard PaymentMethod = "CARD"
	PaymentBlik PaymentMethod = "BLIK"
	PaymentP24  PaymentMethod = "P24"
)

// Valid reports whether p is a supported payment method.
func (p PaymentMethod) Valid() bool {
	switch p {
	case PaymentCard, PaymentBlik, PaymentP24:
		return true
	default:
		return false
	}
}

// ShippingAddress is the postal destination of an order.
type ShippingAddress struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	ZipCode string `json:"zipCode"`
}

// Customer identifies the buyer. ShippingAddress stays nil until first entered.
type Customer struct {
	FirstName       string           `json:"firstName"`
	LastName        string           `json:"lastName"`
	Email           string           `json:"email"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
}

// CheckoutSession is the client-held draft of an order between summary and payment.
type CheckoutSession struct {
	ID            string          `json:"id"`
	Customer      Customer        `json:"customer"`
	DeliveryType  DeliveryType    `json:"deliveryType"`
	PaymentMethod PaymentMethod   `json:"paymentMethod"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	Committed     bool            `json:"committed"`
	UpdatedAt     time.Time       `json:"updatedAt"`
}

// PriceWithDelivery is always derived from the current prices.
func (s *CheckoutSession) PriceWithDelivery() decimal.Decimal {
	return s.TotalPrice.Add(s.ShippingPrice)
}

// Validate checks that a session decoded from storage or the wire is complete.
func (s *CheckoutSession) Validate() error {
	var errs []error
	if s.ID == "" {
		errs = append(errs, errors.New("missing id"))
	}
	if !s.DeliveryType.Valid() {
		errs = append(errs, fmt.Errorf("unknown delivery type %q", s.DeliveryType))
	}
	if !s.PaymentMethod.Valid() {
		errs = append(errs, fmt.Errorf("unknown payment method %q", s.PaymentMethod))
	}
	if s.TotalPrice.IsNegative() {
		errs = append(errs, errors.New("negative total price"))
	}
	if s.ShippingPrice.IsNegative() {
		errs = append(errs, errors.New("negative shipping price"))
	}
	return errors.Join(errs...)
}

// Clone returns a deep copy safe to hand to observers.
func (s *CheckoutSession) Clone() *CheckoutSession {
	if s == nil {
		return nil
	}
	cp := *s
	if s.Customer.ShippingAddress != nil {
		addr := *s.Customer.ShippingAddress
		cp.Customer.ShippingAddress = &addr
	}
	return &cp
}

// DraftPatch is a partial edit of the draft. Nil fields are left untouched.
type DraftPatch struct {
	FirstName       *string          `json:"firstName,omitempty"`
	LastName        *string          `json:"lastName,omitempty"`
	Email           *string          `json:"email,omitempty"`
	ShippingAddress *ShippingAddress `json:"shippingAddress,omitempty"`
	DeliveryType    *DeliveryType    `json:"deliveryType,omitempty"`
	PaymentMethod   *PaymentMethod   `json:"paymentMethod,omitempty"`
	ShippingPrice   *decimal.Decimal `json:"shippingPrice,omitempty"`
}

// Validate rejects values outside the closed enums and negative prices.
func (p DraftPatch) Validate() error {
	if p.DeliveryType != nil && !p.DeliveryType.Valid() {
		return fmt.Errorf("unknown delivery type %q", *p.DeliveryType)
	}
	if p.PaymentMethod != nil && !p.PaymentMethod.Valid() {
		return fmt.Errorf("unknown payment method %q", *p.PaymentMethod)
	}
	if p.ShippingPrice != nil && p.ShippingPrice.IsNegative() {
		return errors.New("negative shipping price")
	}
	return nil
}

// Apply merges the patch into s, last write wins per field.
func (p DraftPatch) Apply(s *CheckoutSession) {
	if p.FirstName != nil {
		s.Customer.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		s.Customer.LastName = *p.LastName
	}
	if p.Email != nil {
		s.Customer.Email = *p.Email
	}
	if p.ShippingAddress != nil {
		addr := *p.ShippingAddress
		s.Customer.ShippingAddress = &addr
	}
	if p.DeliveryType != nil {
		s.DeliveryType = *p.DeliveryType
	}
	if p.PaymentMethod != nil {
		s.PaymentMethod = *p.PaymentMethod
	}
	if p.ShippingPrice != nil {
		s.ShippingPrice = *p.ShippingPrice
	}
}

// ShippingRates maps delivery types to shipping prices.
type ShippingRates map[DeliveryType]decimal.Decimal

// For returns the rate for d and whether one is configured.
func (r ShippingRates) For(d DeliveryType) (decimal.Decimal, bool) {
	price, ok := r[d]
	return price, ok
}

// OrderSummary is the backend-priced snapshot of the cart used to open a session.
// ShippingPrice is invalid when the backend left it to the client.
type OrderSummary struct {
	Customer      Customer
	DeliveryType  DeliveryType
	PaymentMethod PaymentMethod
	TotalPrice    decimal.Decimal
	ShippingPrice decimal.NullDecimal
}
