package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/storefront/internal/domain/model"
)

func signedToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("backend-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestIdentityLifecycle(t *testing.T) {
	identity := NewIdentity()
	if identity.IsAuthenticated() || identity.Token() != "" || identity.CurrentRole() != model.RoleAnonymous {
		t.Fatal("expected anonymous identity")
	}

	token := signedToken(t, jwt.MapClaims{
		"sub":   "ann@example.com",
		"exp":   time.Now().Add(time.Hour).Unix(),
		"roles": []string{"ROLE_ADMIN"},
	})
	if err := identity.SetToken("Bearer " + token); err != nil {
		t.Fatalf("set token: %v", err)
	}

	if !identity.IsAuthenticated() {
		t.Fatal("expected authenticated identity")
	}
	if identity.Token() != token {
		t.Fatal("expected bearer prefix to be stripped")
	}
	if identity.CurrentRole() != model.RoleAdmin {
		t.Fatalf("expected admin role, got %q", identity.CurrentRole())
	}
	if identity.Claims().Subject != "ann@example.com" {
		t.Fatalf("unexpected subject %q", identity.Claims().Subject)
	}

	identity.Clear()
	if identity.IsAuthenticated() || identity.Token() != "" {
		t.Fatal("expected cleared identity")
	}
}

func TestIdentityDefaultsToCustomerRole(t *testing.T) {
	identity := NewIdentity()
	if err := identity.SetToken(signedToken(t, jwt.MapClaims{"sub": "bob"})); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if identity.CurrentRole() != model.RoleCustomer {
		t.Fatalf("expected customer role, got %q", identity.CurrentRole())
	}
	if identity.Claims().ExpiresAt != nil {
		t.Fatal("did not expect expiry")
	}

	if err := identity.SetToken(signedToken(t, jwt.MapClaims{"role": "admin"})); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if identity.CurrentRole() != model.RoleAdmin {
		t.Fatalf("expected admin role, got %q", identity.CurrentRole())
	}
}

func TestIdentityRejectsBadTokens(t *testing.T) {
	identity := NewIdentity()
	good := signedToken(t, jwt.MapClaims{"sub": "ann"})
	if err := identity.SetToken(good); err != nil {
		t.Fatalf("set token: %v", err)
	}

	cases := map[string]string{
		"empty":     "",
		"malformed": "not-a-jwt",
		"expired":   signedToken(t, jwt.MapClaims{"sub": "ann", "exp": time.Now().Add(-time.Minute).Unix()}),
	}
	for name, token := range cases {
		t.Run(name, func(t *testing.T) {
			if err := identity.SetToken(token); !errors.Is(err, ErrInvalidToken) {
				t.Fatalf("expected invalid token error, got %v", err)
			}
			if identity.Token() != good {
				t.Fatal("rejected token must not replace the current one")
			}
		})
	}
}

func TestIdentityExpiresOverTime(t *testing.T) {
	identity := NewIdentity()
	now := time.Now()
	identity.now = func() time.Time { return now }

	if err := identity.SetToken(signedToken(t, jwt.MapClaims{"exp": now.Add(time.Minute).Unix()})); err != nil {
		t.Fatalf("set token: %v", err)
	}
	if !identity.IsAuthenticated() {
		t.Fatal("expected authenticated")
	}

	identity.now = func() time.Time { return now.Add(2 * time.Minute) }
	if identity.IsAuthenticated() || identity.Token() != "" || identity.CurrentRole() != model.RoleAnonymous {
		t.Fatal("expected identity to lapse after expiry")
	}
}

func TestIdentityInspectDoesNotAdopt(t *testing.T) {
	identity := NewIdentity()
	claims, err := identity.Inspect("Bearer " + signedToken(t, jwt.MapClaims{"sub": "bob"}))
	if err != nil {
		t.Fatalf("inspect: %v", err)
	}
	if claims.Subject != "bob" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
	if identity.IsAuthenticated() {
		t.Fatal("inspect must leave the identity anonymous")
	}
	if _, err := identity.Inspect("not-a-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected invalid token error, got %v", err)
	}
}
