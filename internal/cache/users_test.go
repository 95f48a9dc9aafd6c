package cache

import (
	"strings"
	"testing"
	"time"

	"github.com/contacthub/contacthub/internal/domain/user"
)

func TestUserRoundTripKeepsDisabled(t *testing.T) {
	now := time.Now().UTC().Truncate(time.Second)

	u := user.User{
		ID:           "u1",
		Email:        "ada@example.com",
		Username:     "ada",
		PasswordHash: "$2a$10$secret",
		Role:         user.RoleUser,
		Verified:     true,
		Disabled:     true,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	data, err := encodeUser(u)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	got, err := decodeUser(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	// The domain struct tags Disabled json:"-", so a plain marshal would
	// lose it and a disabled user would pass verification from the cache.
	if !got.Disabled {
		t.Fatalf("Disabled flag lost in cache round trip: stored=%s", data)
	}

	if got.ID != u.ID || got.Email != u.Email || got.Username != u.Username ||
		got.Role != u.Role || got.Verified != u.Verified {
		t.Fatalf("cached fields diverged: got %+v, want %+v", got, u)
	}
}

func TestUserEncodingOmitsPasswordHash(t *testing.T) {
	u := user.User{
		ID:           "u1",
		Email:        "ada@example.com",
		PasswordHash: "$2a$10$secret",
	}

	data, err := encodeUser(u)
	if err != nil {
		t.Fatalf("encode failed: %v", err)
	}

	if strings.Contains(string(data), "secret") {
		t.Fatalf("password hash must not be stored in redis: %s", data)
	}

	got, err := decodeUser(data)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got.PasswordHash != "" {
		t.Fatalf("expected empty hash after decode, got %q", got.PasswordHash)
	}
}
