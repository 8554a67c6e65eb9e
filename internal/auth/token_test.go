package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestGenerateAndVerifyToken(t *testing.T) {
	signed, expiresAt, err := GenerateToken("slack-install", "secret", time.Minute)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if time.Until(expiresAt) <= 0 {
		t.Fatalf("expected future expiry, got %s", expiresAt)
	}
	sub, err := VerifyToken(signed, "secret")
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if sub != "slack-install" {
		t.Fatalf("expected subject slack-install, got %q", sub)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	signed, _, err := GenerateToken("s", "secret", time.Minute)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(signed, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	claims := jwt.RegisteredClaims{
		Subject:   "s",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("secret"))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := VerifyToken(signed, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestTokenRequiresSecret(t *testing.T) {
	if _, _, err := GenerateToken("s", "", time.Minute); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
	if _, err := VerifyToken("x", ""); !errors.Is(err, ErrMissingSecret) {
		t.Fatalf("expected ErrMissingSecret, got %v", err)
	}
}
