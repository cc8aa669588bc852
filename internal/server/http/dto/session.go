package dto

import "time"

// TokenRequest carries an already issued bearer token.
type TokenRequest struct {
	Token string `json:"token"`
}

// IdentityResponse describes the current caller.
type IdentityResponse struct {
	Authenticated bool       `json:"authenticated"`
	Subject       string     `json:"subject,omitempty"`
	Role          string     `json:"role,omitempty"`
	ExpiresAt     *time.Time `json:"expiresAt,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Message string `json:"message"`
}
