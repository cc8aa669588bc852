package state

import (
	"time"

	"github.com/polkiloo/storefront/internal/domain/model"
)

// Session is the observed checkout state.
type Session struct {
	Draft        *model.CheckoutSession `json:"draft"`
	Phase        string                 `json:"phase"`
	IsLoading    bool                   `json:"isLoading"`
	ErrorMessage string                 `json:"errorMessage,omitempty"`
}

// Order is the observed state of a single order.
type Order struct {
	Order        *model.Order  `json:"order"`
	IsLoading    bool          `json:"isLoading"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
	TimeToDelete time.Duration `json:"timeToDelete"`
	Expired      bool          `json:"expired"`
	Stale        bool          `json:"stale"`
}

// Cart is the observed cart state. HasItems is derived from Lines on every write.
type Cart struct {
	Lines        []model.CartLine `json:"lines"`
	HasItems     bool             `json:"hasItems"`
	IsLoading    bool             `json:"isLoading"`
	ErrorMessage string           `json:"errorMessage,omitempty"`
}

// WithLines returns c with lines set and HasItems recomputed.
func (c Cart) WithLines(lines []model.CartLine) Cart {
	c.Lines = lines
	c.HasItems = len(lines) > 0
	return c
}
