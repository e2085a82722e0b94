package token

import (
	"crypto/sha256"
	"errors"
	"strings"
	"testing"
	"time"
)

func newTestManager(t *testing.T, ttl time.Duration) *Manager {
	t.Helper()

	manager, err := NewManager(Config{
		Secret: []byte("0123456789abcdef0123456789abcdef"),
		TTL:    ttl,
		Issuer: "shield-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}
	return manager
}

func TestIssueParseRoundTrip(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	digest := sha256.Sum256([]byte("ua\x00ip"))

	handle, err := manager.Issue("session-1", digest)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	sid, got, err := manager.Parse(handle)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if sid != "session-1" || got != digest {
		t.Fatalf("round trip mismatch: sid=%q", sid)
	}
}

func TestParseRejectsTampering(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	digest := sha256.Sum256([]byte("fp"))

	handle, err := manager.Issue("session-1", digest)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	tampered := handle[:len(handle)-2] + "xx"
	if _, _, err := manager.Parse(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for tampered handle, got %v", err)
	}

	if _, _, err := manager.Parse("not-a-handle"); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for garbage, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	manager := newTestManager(t, time.Hour)
	digest := sha256.Sum256([]byte("fp"))

	handle, err := manager.Issue("session-1", digest)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	other, err := NewManager(Config{
		Secret: []byte("ffffffffffffffffffffffffffffffff"),
		TTL:    time.Hour,
		Issuer: "shield-test",
	})
	if err != nil {
		t.Fatalf("NewManager failed: %v", err)
	}

	if _, _, err := other.Parse(handle); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for wrong secret, got %v", err)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	manager := newTestManager(t, time.Nanosecond)
	digest := sha256.Sum256([]byte("fp"))

	handle, err := manager.Issue("session-1", digest)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}

	time.Sleep(2 * time.Millisecond)
	if _, _, err := manager.Parse(handle); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for expired handle, got %v", err)
	}
}

func TestParseRejectsAlgorithmConfusion(t *testing.T) {
	manager := newTestManager(t, time.Hour)

	// alg=none style handle: header {"alg":"none","typ":"JWT"}.
	unsigned := "eyJhbGciOiJub25lIiwidHlwIjoiSldUIn0.eyJzaWQiOiJzZXNzaW9uLTEifQ."
	if _, _, err := manager.Parse(unsigned); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid for unsigned handle, got %v", err)
	}
	if !strings.Contains(unsigned, ".") {
		t.Fatal("test fixture malformed")
	}
}

func TestNewManagerValidation(t *testing.T) {
	if _, err := NewManager(Config{Secret: []byte("short"), TTL: time.Hour}); err == nil {
		t.Fatal("expected error for short secret")
	}
	if _, err := NewManager(Config{Secret: make([]byte, 32)}); err == nil {
		t.Fatal("expected error for zero TTL")
	}
}
