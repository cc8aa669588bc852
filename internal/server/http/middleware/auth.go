package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/server/http/dto"
)

const authCookieName = "storefront_token"

// IdentityGate is the caller identity consulted before protected routes.
type IdentityGate interface {
	SetToken(ctx context.Context, token string) error
	IsAuthenticated() bool
}

// AuthRequired admits requests only while an identity is established. A
// bearer header or cookie on the request replaces the current token.
func AuthRequired(gate IdentityGate) gin.HandlerFunc {
	return func(c *gin.Context) {
		if token := extractToken(c); token != "" {
			if err := gate.SetToken(c.Request.Context(), token); err != nil {
				c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: err.Error()})
				return
			}
		}
		if !gate.IsAuthenticated() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{Message: "authentication required"})
			return
		}
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if strings.HasPrefix(strings.ToLower(authHeader), "bearer ") {
		return strings.TrimSpace(authHeader[7:])
	}
	if cookie, err := c.Cookie(authCookieName); err == nil {
		return cookie
	}
	return ""
}

// SetAuthCookie writes auth token cookie to response.
func SetAuthCookie(c *gin.Context, token string) {
	c.SetCookie(authCookieName, token, 0, "/", "", false, true)
}

// ClearAuthCookie expires the auth cookie.
func ClearAuthCookie(c *gin.Context) {
	c.SetCookie(authCookieName, "", -1, "/", "", false, true)
}
