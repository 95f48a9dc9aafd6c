package auth

import (
	"testing"
	"time"
)

func TestAccessTokenRoundTrip(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	claims, err := m.VerifyAccessToken(raw)
	if err != nil {
		t.Fatalf("VerifyAccessToken: %v", err)
	}

	if claims.UserID != "user-1" || claims.Email != "a@x.com" || claims.Role != "user" {
		t.Fatalf("claims round-trip mismatch: %+v", claims)
	}

	if claims.TokenType != TypeAccess {
		t.Fatalf("token type = %q, want %q", claims.TokenType, TypeAccess)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	m := NewManager("test-secret", -time.Minute, 24*time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := m.VerifyAccessToken(raw); err == nil {
		t.Fatal("expired token verified successfully")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	m := NewManager("secret-a", time.Hour, 24*time.Hour)
	other := NewManager("secret-b", time.Hour, 24*time.Hour)

	raw, err := m.GenerateAccessToken("user-1", "a@x.com", "user")
	if err != nil {
		t.Fatalf("GenerateAccessToken: %v", err)
	}

	if _, err := other.VerifyAccessToken(raw); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestTokenTypeEnforced(t *testing.T) {
	m := NewManager("test-secret", time.Hour, 24*time.Hour)

	verifyToken, err := m.GenerateEmailToken("user-1", "a@x.com", TypeVerify)
	if err != nil {
		t.Fatalf("GenerateEmailToken: %v", err)
	}

	if _, err := m.VerifyAccessToken(verifyToken); err == nil {
		t.Fatal("verification token accepted as access token")
	}

	if _, err := m.VerifyEmailToken(verifyToken, TypeReset); err == nil {
		t.Fatal("verification token accepted as reset token")
	}

	if _, err := m.VerifyEmailToken(verifyToken, TypeVerify); err != nil {
		t.Fatalf("verification token rejected for its own type: %v", err)
	}
}
