package token

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	m, err := NewManager("test-secret", time.Hour)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	signed, err := m.Issue(42, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	claims, err := m.Verify(signed)
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if claims.UserID != 42 {
		t.Fatalf("userID = %d, want 42", claims.UserID)
	}
	if claims.Role != "user" {
		t.Fatalf("role = %q, want %q", claims.Role, "user")
	}
}

func TestVerifyRejectsTampering(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)
	signed, err := m.Issue(1, "admin")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	other, _ := NewManager("other-secret", time.Hour)
	if _, err := other.Verify(signed); err == nil {
		t.Fatalf("expected verification to fail under a different secret")
	}
	if _, err := m.Verify(signed + "x"); err == nil {
		t.Fatalf("expected verification to fail for a mangled token")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	m, _ := NewManager("test-secret", time.Hour)
	m.ttl = -2 * time.Hour
	m.leeway = 0
	signed, err := m.Issue(1, "user")
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Verify(signed); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}
}
