package handlers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
	"github.com/polkiloo/storefront/internal/server/http/middleware"
)

// SessionHandler manages the caller identity.
type SessionHandler struct {
	facade IdentityFacade
}

// NewSessionHandler constructs SessionHandler.
func NewSessionHandler(facade IdentityFacade) *SessionHandler {
	return &SessionHandler{facade: facade}
}

// Get handles GET /api/session.
func (h *SessionHandler) Get(c *gin.Context) {
	c.JSON(http.StatusOK, h.identity())
}

// Set handles PUT /api/session.
func (h *SessionHandler) Set(c *gin.Context) {
	var req dto.TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil || strings.TrimSpace(req.Token) == "" {
		c.JSON(http.StatusBadRequest, dto.ErrorResponse{Message: "token is required"})
		return
	}
	if err := h.facade.SetToken(c.Request.Context(), req.Token); err != nil {
		c.JSON(http.StatusUnauthorized, dto.ErrorResponse{Message: err.Error()})
		return
	}
	middleware.SetAuthCookie(c, req.Token)
	c.JSON(http.StatusOK, h.identity())
}

// Clear handles DELETE /api/session.
func (h *SessionHandler) Clear(c *gin.Context) {
	if err := h.facade.ClearIdentity(c.Request.Context()); err != nil {
		writeError(c, err)
		return
	}
	middleware.ClearAuthCookie(c)
	c.Status(http.StatusNoContent)
}

func (h *SessionHandler) identity() dto.IdentityResponse {
	if !h.facade.IsAuthenticated() {
		return dto.IdentityResponse{}
	}
	claims := h.facade.Claims()
	return dto.IdentityResponse{
		Authenticated: true,
		Subject:       claims.Subject,
		Role:          string(claims.Role),
		ExpiresAt:     claims.ExpiresAt,
	}
}
