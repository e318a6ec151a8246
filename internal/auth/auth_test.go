package auth

import (
	"errors"
	"testing"
	"time"
)

func newTestManager(t *testing.T) *Manager {
	t.Helper()
	m, err := NewManager("test-signing-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	return m
}

func TestNewManager_RequiresSecret(t *testing.T) {
	if _, err := NewManager("   ", time.Hour); err == nil {
		t.Fatalf("expected error for blank secret")
	}
}

func TestSecretHashRoundTrip(t *testing.T) {
	m := newTestManager(t)
	hash, err := m.HashSecret("hunter42")
	if err != nil {
		t.Fatalf("HashSecret: %v", err)
	}
	if hash == "hunter42" {
		t.Fatalf("secret stored in cleartext")
	}
	if !m.CheckSecret(hash, "hunter42") {
		t.Fatalf("correct secret rejected")
	}
	if m.CheckSecret(hash, "hunter43") {
		t.Fatalf("wrong secret accepted")
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := newTestManager(t)
	token, expires, err := m.IssueToken("acct-1", "alice")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if !expires.After(time.Now()) {
		t.Fatalf("token already expired at issue time")
	}
	id, err := m.VerifyToken(token)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id.AccountID != "acct-1" || id.DisplayName != "alice" {
		t.Fatalf("unexpected identity: %+v", id)
	}
}

func TestVerifyToken_Rejections(t *testing.T) {
	m := newTestManager(t)
	token, _, err := m.IssueToken("acct-1", "alice")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	cases := map[string]string{
		"empty":    "",
		"garbage":  "not.a.jwt",
		"tampered": token + "x",
	}
	for name, raw := range cases {
		if _, err := m.VerifyToken(raw); !errors.Is(err, ErrInvalidToken) {
			t.Fatalf("%s: expected ErrInvalidToken, got %v", name, err)
		}
	}

	// Signed under a different key.
	other, err := NewManager("another-secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	foreign, _, err := other.IssueToken("acct-2", "bob")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := m.VerifyToken(foreign); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("foreign key: expected ErrInvalidToken, got %v", err)
	}
}

func TestVerifyToken_Expired(t *testing.T) {
	m, err := NewManager("test-signing-secret", time.Nanosecond)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	token, _, err := m.IssueToken("acct-1", "alice")
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	time.Sleep(10 * time.Millisecond)
	if _, err := m.VerifyToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}
