package httpapi

import (
	"testing"
	"time"

	"salesdesk/backend/internal/domain"
)

func TestLoginAndParseToken(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "admin", "admin123")

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.AccessToken == "" {
		t.Fatalf("expected a token, got empty string")
	}

	actor, err := auth.ParseToken(resp.AccessToken)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if actor.Username != "admin" {
		t.Fatalf("expected actor admin, got %q", actor.Username)
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	auth := NewAuthManager("test-secret-key", time.Hour, "admin", "admin123")

	if _, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "nope"}); err == nil {
		t.Fatalf("expected error for wrong password")
	}
	if _, err := auth.Login(domain.LoginRequest{Username: "someone", Password: "admin123"}); err == nil {
		t.Fatalf("expected error for unknown username")
	}
}

func TestParseTokenRejectsForeignSecret(t *testing.T) {
	auth := NewAuthManager("secret-one", time.Hour, "admin", "admin123")
	other := NewAuthManager("secret-two", time.Hour, "admin", "admin123")

	resp, err := other.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected verification failure for a token signed with a different secret")
	}
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthManager("test-secret-key", -time.Minute, "admin", "admin123")

	resp, err := auth.Login(domain.LoginRequest{Username: "admin", Password: "admin123"})
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if _, err := auth.ParseToken(resp.AccessToken); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}

func TestAttemptLimiter(t *testing.T) {
	limiter := newAttemptLimiter(3, time.Minute)

	for i := 0; i < 3; i++ {
		if !limiter.Allow("10.0.0.1") {
			t.Fatalf("attempt %d should be allowed", i+1)
		}
	}
	if limiter.Allow("10.0.0.1") {
		t.Fatalf("fourth attempt should be blocked")
	}
	if !limiter.Allow("10.0.0.2") {
		t.Fatalf("other keys must not be affected")
	}
}
