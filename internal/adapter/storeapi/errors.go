package storeapi

import (
	"errors"
	"fmt"
	"net/http"

	domainErrors "github.com/polkiloo/storefront/internal/domain/errors"
)

// APIError is a non-2xx answer from the store backend.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("store api: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("store api: %d %s", e.Status, e.Message)
}

// Unwrap maps auth and lookup failures onto domain sentinels.
func (e *APIError) Unwrap() error {
	switch e.Status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return domainErrors.ErrUnauthenticated
	case http.StatusNotFound:
		return domainErrors.ErrNotFound
	default:
		return nil
	}
}

// IsClientError reports whether err carries a 4xx rejection.
func IsClientError(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.Status >= 400 && apiErr.Status < 500
}

// Message returns the backend supplied message of err, if any.
func Message(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return ""
}
