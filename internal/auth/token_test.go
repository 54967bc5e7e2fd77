package auth

import (
	"testing"
	"time"
)

var testSecret = []byte("test-secret-not-for-production")

func TestIssueAndVerify(t *testing.T) {
	token, err := IssueToken(testSecret, 42, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	memberID, err := VerifyToken(testSecret, token)
	if err != nil {
		t.Fatalf("verify token: %v", err)
	}
	if memberID != 42 {
		t.Errorf("member id = %d, want 42", memberID)
	}
}

func TestVerifyWrongSecret(t *testing.T) {
	token, err := IssueToken(testSecret, 42, time.Now().UTC())
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := VerifyToken([]byte("some-other-secret"), token); err == nil {
		t.Error("expected verification to fail with the wrong secret")
	}
}

func TestVerifyGarbage(t *testing.T) {
	if _, err := VerifyToken(testSecret, "not.a.token"); err == nil {
		t.Error("expected verification to fail for a malformed token")
	}
}

func TestVerifyExpired(t *testing.T) {
	issued := time.Now().UTC().Add(-tokenTTL - time.Hour)
	token, err := IssueToken(testSecret, 42, issued)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	if _, err := VerifyToken(testSecret, token); err == nil {
		t.Error("expected verification to fail for an expired token")
	}
}

func TestTokensAreUnique(t *testing.T) {
	now := time.Now().UTC()
	a, err := IssueToken(testSecret, 42, now)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	b, err := IssueToken(testSecret, 42, now)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	if a == b {
		t.Error("two tokens for the same member must differ by token id")
	}
}
