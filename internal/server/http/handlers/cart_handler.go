package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/state"
)

// CartHandler manages cart endpoints.
type CartHandler struct {
	facade CartFacade
}

// NewCartHandler constructs CartHandler.
func NewCartHandler(facade CartFacade) *CartHandler {
	return &CartHandler{facade: facade}
}

// Get handles GET /api/cart.
func (h *CartHandler) Get(c *gin.Context) {
	cart, err := h.facade.Cart(c.Request.Context())
	h.respond(c, cart, err)
}

// Add handles POST /api/cart/:id/add.
func (h *CartHandler) Add(c *gin.Context) {
	cart, err := h.facade.AddUnit(c.Request.Context(), c.Param("id"))
	h.respond(c, cart, err)
}

// Remove handles POST /api/cart/:id/remove.
func (h *CartHandler) Remove(c *gin.Context) {
	cart, err := h.facade.RemoveUnit(c.Request.Context(), c.Param("id"))
	h.respond(c, cart, err)
}

// Delete handles DELETE /api/cart/:id.
func (h *CartHandler) Delete(c *gin.Context) {
	cart, err := h.facade.RemoveLine(c.Request.Context(), c.Param("id"))
	h.respond(c, cart, err)
}

// Valid handles GET /api/cart/valid.
func (h *CartHandler) Valid(c *gin.Context) {
	if err := h.facade.ValidateCart(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *CartHandler) respond(c *gin.Context, cart state.Cart, err error) {
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CartResponse{
		Lines:        cart.Lines,
		HasItems:     cart.HasItems,
		Total:        h.facade.CartTotal(),
		ErrorMessage: cart.ErrorMessage,
	})
}
