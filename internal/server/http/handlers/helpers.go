package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/polkiloo/storefront/internal/adapter/storeapi"
	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
	"github.com/polkiloo/storefront/internal/server/http/dto"
)

// statusFor maps domain and transport failures onto HTTP statuses.
func statusFor(err error) int {
	var apiErr *storeapi.APIError
	switch {
	case errors.Is(err, domainErrors.ErrInvalidDraft):
		return http.StatusBadRequest
	case errors.Is(err, domainErrors.ErrUnauthenticated):
		return http.StatusUnauthorized
	case errors.Is(err, domainErrors.ErrPaymentFailed):
		return http.StatusPaymentRequired
	case errors.Is(err, domainErrors.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domainErrors.ErrNoActiveSession),
		errors.Is(err, domainErrors.ErrNotRepayable),
		errors.Is(err, domainErrors.ErrStockExceeded):
		return http.StatusConflict
	case errors.Is(err, domainErrors.ErrRepayRejected):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domainErrors.ErrSummaryUnavailable), errors.As(err, &apiErr):
		return http.StatusBadGateway
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}

func writeError(c *gin.Context, err error) {
	msg := storeapi.Message(err)
	if msg == "" {
		msg = err.Error()
	}
	c.AbortWithStatusJSON(statusFor(err), dto.ErrorResponse{Message: msg})
}
