package model

import (
	"github.com/shopspring/decimal"
)

// CartItem is a cart row as returned by the store backend.
type CartItem struct {
	ID            string          `json:"id"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	TotalQuantity int             `json:"totalQuantity"`
	Rated         *bool           `json:"rated,omitempty"`
}

// CartLine is a display-ready cart row with 0 < Quantity <= TotalQuantity.
type CartLine struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	Image         string          `json:"image"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	TotalQuantity int             `json:"totalQuantity"`
	Rated         *bool           `json:"rated,omitempty"`
}

// Subtotal is price times quantity.
func (l CartLine) Subtotal() decimal.Decimal {
	return l.Price.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// ToDisplayLines keeps the backend order and drops empty rows. Quantities
// above the stock ceiling are clamped; clamped reports the affected ids.
func ToDisplayLines(raw []CartItem) (lines []CartLine, clamped []string) {
	lines = make([]CartLine, 0, len(raw))
	for _, item := range raw {
		qty := item.Quantity
		if qty > item.TotalQuantity {
			qty = item.TotalQuantity
			clamped = append(clamped, item.ID)
		}
		if qty <= 0 {
			continue
		}
		lines = append(lines, CartLine{
			ProductID:     item.ID,
			Name:          item.Name,
			Image:         item.Image,
			Price:         item.Price,
			Quantity:      qty,
			TotalQuantity: item.TotalQuantity,
			Rated:         item.Rated,
		})
	}
	return lines, clamped
}

// CartTotal sums line subtotals.
func CartTotal(lines []CartLine) decimal.Decimal {
	total := decimal.Zero
	for _, l := range lines {
		total = total.Add(l.Subtotal())
	}
	return total
}
