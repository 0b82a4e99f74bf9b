package auth

import (
	"testing"
	"time"
)

func TestTokenRoundTrip(t *testing.T) {
	secret := []byte("test-secret")

	token, err := NewToken(secret, 42, TokenTTL)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	userID, err := ParseToken(secret, token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if userID != 42 {
		t.Errorf("user id = %d, want 42", userID)
	}
}

func TestTokenWrongSecret(t *testing.T) {
	token, err := NewToken([]byte("secret-a"), 42, TokenTTL)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	if _, err := ParseToken([]byte("secret-b"), token); err == nil {
		t.Error("expected error for foreign-signed token")
	}
}

func TestTokenExpired(t *testing.T) {
	secret := []byte("test-secret")
	token, err := NewToken(secret, 42, -time.Minute)
	if err != nil {
		t.Fatalf("new token: %v", err)
	}

	if _, err := ParseToken(secret, token); err == nil {
		t.Error("expected error for expired token")
	}
}

func TestTokenMalformed(t *testing.T) {
	if _, err := ParseToken([]byte("test-secret"), "not.a.jwt"); err == nil {
		t.Error("expected error for malformed token")
	}
}

func TestUserContext(t *testing.T) {
	ctx := WithUser(t.Context(), 7)

	userID, ok := UserID(ctx)
	if !ok || userID != 7 {
		t.Errorf("UserID = %d/%v, want 7/true", userID, ok)
	}

	if _, ok := UserID(t.Context()); ok {
		t.Error("expected no user on a bare context")
	}
}
