package dto

import (
	"github.com/shopspring/decimal"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// CartResponse is the displayed cart.
type CartResponse struct {
	Lines        []model.CartLine `json:"lines"`
	HasItems     bool             `json:"hasItems"`
	Total        decimal.Decimal  `json:"total"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}
