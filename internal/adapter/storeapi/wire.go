package storeapi

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

type errorResponse struct {
	Message string `json:"message"`
}

type urlResponse struct {
	URL string `json:"url"`
}

type summaryResponse struct {
	Order summaryDTO `json:"order"`
}

type summaryDTO struct {
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	Email           string                 `json:"email"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	TotalPrice      decimal.Decimal        `json:"totalPrice"`
	ShippingPrice   decimal.NullDecimal    `json:"shippingPrice"`
	DeliveryTime    string                 `json:"deliveryTime"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type createPaymentRequest struct {
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	Email           string                 `json:"email,omitempty"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress,omitempty"`
	DeliveryTime    string                 `json:"deliveryTime"`
	PaymentMethod   string                 `json:"paymentMethod"`
}

type ordersResponse struct {
	Orders []orderBaseDTO `json:"orders"`
}

type orderResponse struct {
	Order orderDTO `json:"order"`
}

type orderBaseDTO struct {
	ID           string          `json:"id"`
	OrderDate    time.Time       `json:"orderDate"`
	DeliveryDate *time.Time      `json:"deliveryDate"`
	TotalPrice   decimal.Decimal `json:"totalPrice"`
	Status       string          `json:"status"`
}

type orderDTO struct {
	orderBaseDTO
	FirstName       string                 `json:"firstName"`
	LastName        string                 `json:"lastName"`
	Email           string                 `json:"email"`
	ShippingAddress *model.ShippingAddress `json:"shippingAddress"`
	DeliveryTime    string                 `json:"deliveryTime"`
	PaymentMethod   string                 `json:"paymentMethod"`
	Products        []orderProductDTO      `json:"productsDto"`
}

type orderProductDTO struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Rated     bool            `json:"rated"`
}

type cartResponse struct {
	Products []model.CartItem `json:"products"`
}

// deliveryFromWire accepts the backend STANDARD alias for NORMAL.
func deliveryFromWire(raw string) model.DeliveryType {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "EXPRESS":
		return model.DeliveryExpress
	default:
		return model.DeliveryNormal
	}
}

func deliveryToWire(d model.DeliveryType) string {
	if d == model.DeliveryExpress {
		return "EXPRESS"
	}
	return "STANDARD"
}

func paymentFromWire(raw string) model.PaymentMethod {
	method := model.PaymentMethod(strings.ToUpper(strings.TrimSpace(raw)))
	if method.Valid() {
		return method
	}
	return model.PaymentCard
}

func (d summaryDTO) toModel() *model.OrderSummary {
	return &model.OrderSummary{
		Customer: model.Customer{
			FirstName:       d.FirstName,
			LastName:        d.LastName,
			Email:           d.Email,
			ShippingAddress: d.ShippingAddress,
		},
		DeliveryType:  deliveryFromWire(d.DeliveryTime),
		PaymentMethod: paymentFromWire(d.PaymentMethod),
		TotalPrice:    d.TotalPrice,
		ShippingPrice: d.ShippingPrice,
	}
}

func (d orderBaseDTO) toModel() model.OrderBaseInfo {
	return model.OrderBaseInfo{
		ID:           d.ID,
		OrderDate:    d.OrderDate,
		DeliveryDate: d.DeliveryDate,
		TotalPrice:   d.TotalPrice,
		Status:       model.OrderStatus(strings.ToUpper(d.Status)),
	}
}

func (d orderDTO) toModel() *model.Order {
	order := &model.Order{
		OrderBaseInfo:   d.orderBaseDTO.toModel(),
		FirstName:       d.FirstName,
		LastName:        d.LastName,
		Email:           d.Email,
		ShippingAddress: d.ShippingAddress,
		Products:        make([]model.OrderProduct, 0, len(d.Products)),
	}
	if d.DeliveryTime != "" {
		order.DeliveryType = deliveryFromWire(d.DeliveryTime)
	}
	if d.PaymentMethod != "" {
		order.PaymentMethod = paymentFromWire(d.PaymentMethod)
	}
	for _, p := range d.Products {
		order.Products = append(order.Products, model.OrderProduct{
			ProductID: p.ProductID,
			Name:      p.Name,
			Image:     p.Image,
			Price:     p.Price,
			Quantity:  p.Quantity,
			Rated:     p.Rated,
		})
	}
	return order
}

func newCreatePaymentRequest(pc model.PaymentContext) createPaymentRequest {
	return createPaymentRequest{
		FirstName:       pc.Customer.FirstName,
		LastName:        pc.Customer.LastName,
		Email:           pc.Customer.Email,
		ShippingAddress: pc.Customer.ShippingAddress,
		DeliveryTime:    deliveryToWire(pc.DeliveryType),
		PaymentMethod:   string(pc.PaymentMethod),
	}
}
