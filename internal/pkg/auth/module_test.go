package auth

import (
	"io"
	"log/slog"
	"testing"

	"github.com/golang-jwt/jwt/v5"

	"github.com/polkiloo/storefront/internal/config"
)

func TestNewIdentityUsesConfiguredToken(t *testing.T) {
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	token := signedToken(t, jwt.MapClaims{"sub": "ann"})

	identity := newIdentity(identityParams{Config: &config.Config{AuthToken: token}, Logger: logger})
	if !identity.IsAuthenticated() {
		t.Fatal("expected configured token to authenticate")
	}

	identity = newIdentity(identityParams{Config: &config.Config{AuthToken: "garbage"}, Logger: logger})
	if identity.IsAuthenticated() {
		t.Fatal("expected invalid configured token to be ignored")
	}

	identity = newIdentity(identityParams{Config: &config.Config{}, Logger: logger})
	if identity.IsAuthenticated() {
		t.Fatal("expected anonymous identity")
	}
}
