package handlers

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/domain/model"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// CheckoutHandler exposes the checkout session.
type CheckoutHandler struct {
	facade CheckoutFacade
}

// NewCheckoutHandler constructs CheckoutHandler.
func NewCheckoutHandler(facade CheckoutFacade) *CheckoutHandler {
	return &CheckoutHandler{facade: facade}
}

// Enter handles POST /api/checkout.
func (h *CheckoutHandler) Enter(c *gin.Context) {
	session, err := h.facade.EnterCheckout(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDraftResponse(session))
}

// State handles GET /api/checkout.
func (h *CheckoutHandler) State(c *gin.Context) {
	c.JSON(http.StatusOK, h.facade.CheckoutState())
}

// Events handles GET /api/checkout/events as a server-sent event stream.
func (h *CheckoutHandler) Events(c *gin.Context) {
	updates, unsubscribe := h.facade.SubscribeCheckout()
	defer unsubscribe()

	ctx := c.Request.Context()
	c.Stream(func(io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case st, ok := <-updates:
			if !ok {
				return false
			}
			c.SSEvent("session", st)
			return true
		}
	})
}

// Update handles PATCH /api/checkout. An edit made while the session is still
// loading is accepted and applied once it arrives.
func (h *CheckoutHandler) Update(c *gin.Context) {
	var patch model.DraftPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: err.Error()})
		return
	}

	session, err := h.facade.UpdateDraft(c.Request.Context(), patch)
	if err != nil {
		writeError(c, err)
		return
	}
	if session == nil {
		c.Status(http.StatusAccepted)
		return
	}
	c.JSON(http.StatusOK, dto.NewDraftResponse(session))
}

// Refresh handles POST /api/checkout/refresh.
func (h *CheckoutHandler) Refresh(c *gin.Context) {
	session, err := h.facade.RefreshCheckout(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewDraftResponse(session))
}

// Commit handles POST /api/checkout/commit.
func (h *CheckoutHandler) Commit(c *gin.Context) {
	result, err := h.facade.Commit(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.CommitResponse{SessionID: result.SessionID, RedirectURL: result.Reference})
}

// Cancel handles DELETE /api/checkout. A failed backend cancel is not
// reported: the session is over either way.
func (h *CheckoutHandler) Cancel(c *gin.Context) {
	err := h.facade.CancelCheckout(c.Request.Context())
	if err != nil && !errors.Is(err, domainErrors.ErrCancelFailed) {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Leave handles POST /api/checkout/leave, the teardown of the checkout view.
func (h *CheckoutHandler) Leave(c *gin.Context) {
	h.facade.LeaveCheckout()
	c.Status(http.StatusAccepted)
}
