package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/state"
)

// OrderHandler manages order-related endpoints.
type OrderHandler struct {
	facade OrderFacade
}

// NewOrderHandler constructs OrderHandler.
func NewOrderHandler(facade OrderFacade) *OrderHandler {
	return &OrderHandler{facade: facade}
}

// List handles GET /api/orders.
func (h *OrderHandler) List(c *gin.Context) {
	orders, err := h.facade.Orders(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	response := make([]dto.OrderListItem, 0, len(orders))
	for _, o := range orders {
		response = append(response, toOrderListItem(o))
	}
	c.JSON(http.StatusOK, response)
}

// Get handles GET /api/orders/:id.
func (h *OrderHandler) Get(c *gin.Context) {
	st, err := h.facade.LoadOrder(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toOrderResponse(st))
}

// Repay handles POST /api/orders/:id/repay.
func (h *OrderHandler) Repay(c *gin.Context) {
	url, err := h.facade.Repay(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.RepayResponse{RedirectURL: url})
}

func toOrderListItem(o model.OrderBaseInfo) dto.OrderListItem {
	return dto.OrderListItem{
		ID:           o.ID,
		OrderDate:    o.OrderDate,
		DeliveryDate: o.DeliveryDate,
		TotalPrice:   o.TotalPrice,
		Status:       string(o.Status),
		StatusClass:  model.StatusClass(o.Status),
		CanRepay:     model.CanRepay(o),
	}
}

func toOrderResponse(st state.Order) dto.OrderResponse {
	resp := dto.OrderResponse{
		Order:             st.Order,
		TimeToDeleteHours: int(st.TimeToDelete / time.Hour),
		Expired:           st.Expired,
		Stale:             st.Stale,
		ErrorMessage:      st.ErrorMessage,
	}
	if st.Order != nil {
		resp.StatusClass = model.StatusClass(st.Order.Status)
		resp.CanRepay = model.CanRepay(st.Order.OrderBaseInfo) && !st.Stale
	}
	return resp
}
