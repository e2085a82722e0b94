package crypto

import (
	"bytes"
	"errors"
	"testing"
)

func newTestEngine(t *testing.T, root string) *Engine {
	t.Helper()

	engine, err := NewEngine([]byte(root), Config{
		Iterations: 10_000,
		SaltLength: 16,
	})
	if err != nil {
		t.Fatalf("NewEngine failed: %v", err)
	}
	return engine
}

func TestEncryptDecryptRoundTrip(t *testing.T) {
	engine := newTestEngine(t, "root-secret")

	type payload struct {
		Name  string `json:"name"`
		Count int    `json:"count"`
	}

	env, err := engine.Encrypt(payload{Name: "alice", Count: 3}, nil)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	var got payload
	if err := engine.Decrypt(env, nil, &got); err != nil {
		t.Fatalf("Decrypt failed: %v", err)
	}
	if got.Name != "alice" || got.Count != 3 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}

func TestEncryptEnvelopesNeverRepeat(t *testing.T) {
	engine := newTestEngine(t, "root-secret")

	first, err := engine.EncryptBytes([]byte("identical plaintext"), nil)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}
	second, err := engine.EncryptBytes([]byte("identical plaintext"), nil)
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if bytes.Equal(first.Salt, second.Salt) {
		t.Fatal("salt reused across envelopes")
	}
	if bytes.Equal(first.Nonce, second.Nonce) {
		t.Fatal("nonce reused across envelopes")
	}
	if bytes.Equal(first.Ciphertext, second.Ciphertext) {
		t.Fatal("identical ciphertext for identical plaintext")
	}
}

func TestDecryptWrongKeyFailsUniformly(t *testing.T) {
	engine := newTestEngine(t, "root-secret")

	env, err := engine.EncryptBytes([]byte("secret"), []byte("key-one"))
	if err != nil {
		t.Fatalf("Encrypt failed: %v", err)
	}

	if _, err := engine.DecryptBytes(env, []byte("key-two")); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for wrong key, got %v", err)
	}

	// Tampered ciphertext must yield the same uniform error.
	env.Ciphertext[0] ^= 0xff
	if _, err := engine.DecryptBytes(env, []byte("key-one")); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for tampered ciphertext, got %v", err)
	}

	if _, err := engine.DecryptBytes(&Envelope{}, nil); !errors.Is(err, ErrDecrypt) {
		t.Fatalf("expected ErrDecrypt for malformed envelope, got %v", err)
	}
}

func TestEncryptUnserializablePlaintext(t *testing.T) {
	engine := newTestEngine(t, "root-secret")

	if _, err := engine.Encrypt(make(chan int), nil); !errors.Is(err, ErrEncrypt) {
		t.Fatalf("expected ErrEncrypt, got %v", err)
	}
}

func TestDeriveKeyDeterministic(t *testing.T) {
	secret := []byte("secret")
	salt := []byte("0123456789abcdef")

	first := DeriveKey(secret, salt, 10_000)
	second := DeriveKey(secret, salt, 10_000)
	if !bytes.Equal(first, second) {
		t.Fatal("same inputs produced different keys")
	}

	other := DeriveKey(secret, []byte("fedcba9876543210"), 10_000)
	if bytes.Equal(first, other) {
		t.Fatal("different salts produced the same key")
	}
}

func TestNewEngineValidation(t *testing.T) {
	if _, err := NewEngine(nil, Config{Iterations: 10_000, SaltLength: 16}); err == nil {
		t.Fatal("expected error for empty root secret")
	}
	if _, err := NewEngine([]byte("x"), Config{Iterations: 1, SaltLength: 16}); err == nil {
		t.Fatal("expected error for low iteration count")
	}
	if _, err := NewEngine([]byte("x"), Config{Iterations: 10_000, SaltLength: 4}); err == nil {
		t.Fatal("expected error for short salt")
	}
}
