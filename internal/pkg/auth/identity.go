package auth

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/storefront/internal/domain/model"
)

var ErrInvalidToken = errors.New("invalid auth token")

// Claims is the caller identity decoded from the token.
type Claims struct {
	Subject   string     `json:"subject,omitempty"`
	Role      model.Role `json:"role,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
}

// Identity is the shared "who is calling" state. The token is issued and
// verified by the store backend; here it is only decoded for gating.
type Identity struct {
	mu     sync.RWMutex
	token  string
	claims Claims
	parser *jwt.Parser
	now    func() time.Time
}

// NewIdentity returns an anonymous identity.
func NewIdentity() *Identity {
	return &Identity{parser: jwt.NewParser(), now: time.Now}
}

// SetToken replaces the current token. Expired or malformed tokens are rejected
// and leave the previous identity untouched.
func (i *Identity) SetToken(token string) error {
	token, claims, err := i.parse(token)
	if err != nil {
		return err
	}

	i.mu.Lock()
	i.token = token
	i.claims = claims
	i.mu.Unlock()
	return nil
}

// Inspect decodes token the way SetToken would without adopting it.
func (i *Identity) Inspect(token string) (Claims, error) {
	_, claims, err := i.parse(token)
	return claims, err
}

func (i *Identity) parse(token string) (string, Claims, error) {
	token = strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(token), "Bearer "))
	if token == "" {
		return "", Claims{}, ErrInvalidToken
	}

	claims, err := i.decode(token)
	if err != nil {
		return "", Claims{}, err
	}
	if claims.ExpiresAt != nil && !claims.ExpiresAt.After(i.now()) {
		return "", Claims{}, fmt.Errorf("%w: expired", ErrInvalidToken)
	}
	return token, claims, nil
}

// Clear forgets the token.
func (i *Identity) Clear() {
	i.mu.Lock()
	i.token = ""
	i.claims = Claims{}
	i.mu.Unlock()
}

// Token returns the bearer token, or "" once it has expired.
func (i *Identity) Token() string {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.validLocked() {
		return ""
	}
	return i.token
}

func (i *Identity) IsAuthenticated() bool {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return i.validLocked()
}

// CurrentRole returns RoleAnonymous when not authenticated.
func (i *Identity) CurrentRole() model.Role {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.validLocked() {
		return model.RoleAnonymous
	}
	return i.claims.Role
}

// Claims returns a copy of the decoded claims.
func (i *Identity) Claims() Claims {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if !i.validLocked() {
		return Claims{}
	}
	return i.claims
}

func (i *Identity) validLocked() bool {
	if i.token == "" {
		return false
	}
	return i.claims.ExpiresAt == nil || i.claims.ExpiresAt.After(i.now())
}

func (i *Identity) decode(token string) (Claims, error) {
	mapClaims := jwt.MapClaims{}
	if _, _, err := i.parser.ParseUnverified(token, mapClaims); err != nil {
		return Claims{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	var claims Claims
	if sub, err := mapClaims.GetSubject(); err == nil {
		claims.Subject = sub
	}
	if exp, err := mapClaims.GetExpirationTime(); err == nil && exp != nil {
		t := exp.Time
		claims.ExpiresAt = &t
	}
	claims.Role = roleFrom(mapClaims)
	return claims, nil
}

// roleFrom reads "role" or the first of "roles"; tokens without one are customers.
func roleFrom(claims jwt.MapClaims) model.Role {
	normalize := func(s string) model.Role {
		return model.Role(strings.TrimPrefix(strings.ToUpper(s), "ROLE_"))
	}
	if role, ok := claims["role"].(string); ok && role != "" {
		return normalize(role)
	}
	if roles, ok := claims["roles"].([]any); ok {
		for _, r := range roles {
			if s, ok := r.(string); ok && s != "" {
				return normalize(s)
			}
		}
	}
	return model.RoleCustomer
}
