package crypto

import (
	"strings"
	"testing"
)

func TestSanitizeHTML(t *testing.T) {
	got := Sanitize(`<script>alert("x")</script>`, KindHTML)
	if strings.ContainsAny(got, "<>") {
		t.Fatalf("markup survived sanitization: %q", got)
	}
}

func TestSanitizeSQL(t *testing.T) {
	got := Sanitize(`name'; DROP TABLE users; --`, KindSQL)
	if strings.Contains(got, ";") || strings.Contains(got, "--") {
		t.Fatalf("statement separators survived sanitization: %q", got)
	}
	if !strings.Contains(got, "''") {
		t.Fatalf("single quote not escaped: %q", got)
	}
}

func TestSanitizeEmail(t *testing.T) {
	if got := Sanitize("  User@Example.COM ", KindEmail); got != "user@example.com" {
		t.Fatalf("expected normalized address, got %q", got)
	}
	if got := Sanitize("not-an-address", KindEmail); got != "" {
		t.Fatalf("invalid address should sanitize to empty, got %q", got)
	}
}

func TestSanitizeGeneric(t *testing.T) {
	if got := Sanitize("  hello\x00world \x07 ", KindGeneric); got != "helloworld" {
		t.Fatalf("control characters survived: %q", got)
	}
}

func TestSecureTokenUniqueAndSized(t *testing.T) {
	first, err := SecureToken(32)
	if err != nil {
		t.Fatalf("SecureToken failed: %v", err)
	}
	second, err := SecureToken(32)
	if err != nil {
		t.Fatalf("SecureToken failed: %v", err)
	}
	if first == second {
		t.Fatal("two tokens are identical")
	}
	// 32 bytes -> 43 base64url characters without padding.
	if len(first) != 43 {
		t.Fatalf("unexpected token length %d", len(first))
	}

	if _, err := SecureToken(0); err == nil {
		t.Fatal("expected error for zero length")
	}
}
