package auth

import (
	"errors"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

func TestSignAndVerifyRoundTrip(t *testing.T) {
	svc, err := NewTokenService(TokenConfig{Secret: "s3cret", TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewTokenService: %v", err)
	}
	token, err := svc.Sign("admin-1", RoleAdmin, "registrar@uni.edu", "Registrar")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	claims, err := svc.Verify(token)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if claims.Subject != "admin-1" || claims.Role != RoleAdmin || claims.Email != "registrar@uni.edu" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestVerifyRejectsForeignSecret(t *testing.T) {
	a, _ := NewTokenService(TokenConfig{Secret: "one"})
	b, _ := NewTokenService(TokenConfig{Secret: "two"})
	token, err := a.Sign("student-1", RoleStudent, "", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if _, err := b.Verify(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyRejectsExpiredToken(t *testing.T) {
	now := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	svc, _ := NewTokenService(TokenConfig{Secret: "s", TTL: time.Minute, Now: clock})
	token, err := svc.Sign("student-1", RoleStudent, "", "")
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := svc.Verify(token); !errors.Is(err, ErrExpiredToken) {
		t.Fatalf("expected ErrExpiredToken, got %v", err)
	}
}

func TestSignRejectsUnknownRole(t *testing.T) {
	svc, _ := NewTokenService(TokenConfig{})
	if _, err := svc.Sign("x", "superuser", "", ""); err == nil {
		t.Fatalf("expected error for unknown role")
	}
}

func TestNewTokenServiceRequiresSecretInProduction(t *testing.T) {
	if _, err := NewTokenService(TokenConfig{Env: "production"}); err == nil {
		t.Fatalf("expected error without secret in production")
	}
}

func TestBcryptHasher(t *testing.T) {
	h := BcryptHasher{Cost: bcrypt.MinCost}
	hash, err := h.Hash("correct horse")
	if err != nil {
		t.Fatalf("Hash: %v", err)
	}
	if hash == "correct horse" {
		t.Fatalf("hash must not equal plaintext")
	}
	if !h.Verify("correct horse", hash) {
		t.Fatalf("expected password to verify")
	}
	if h.Verify("wrong", hash) {
		t.Fatalf("expected wrong password to fail")
	}
	if h.Verify("correct horse", "correct horse") {
		t.Fatalf("plaintext stored value must not verify")
	}
}
