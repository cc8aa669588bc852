package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// HealthHandler reports draft storage reachability.
type HealthHandler struct {
	storage Pinger
}

// NewHealthHandler constructs HealthHandler.
func NewHealthHandler(storage Pinger) *HealthHandler {
	return &HealthHandler{storage: storage}
}

// Get handles GET /api/health.
func (h *HealthHandler) Get(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()

	if err := h.storage.Ping(ctx); err != nil {
		c.JSON(http.StatusServiceUnavailable, dto.ErrorResponse{Message: err.Error()})
		return
	}
	c.Status(http.StatusNoContent)
}
