package shield

import (
	"fmt"

	"github.com/ericalber/shield/crypto"
)

// DeriveKey derives a 32-byte encryption key from a secret and salt using
// the configured iteration count.
func (s *Shield) DeriveKey(secret, salt []byte) []byte {
	if s == nil {
		return nil
	}
	return crypto.DeriveKey(secret, salt, s.config.Cipher.Iterations)
}

// Encrypt seals any JSON-serializable value under the given key. Each call
// produces a fresh salt and nonce, so equal plaintexts never yield equal
// envelopes.
func (s *Shield) Encrypt(v any, key []byte) (*crypto.Envelope, error) {
	if s == nil {
		return nil, ErrNotReady
	}
	env, err := s.cipher.Encrypt(v, key)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncryptionFailed, err)
	}
	return env, nil
}

// Decrypt opens an envelope into v. Every failure mode returns
// ErrDecryptionFailed; callers cannot distinguish a wrong key from tampered
// ciphertext.
func (s *Shield) Decrypt(env *crypto.Envelope, key []byte, v any) error {
	if s == nil {
		return ErrNotReady
	}
	if err := s.cipher.Decrypt(env, key, v); err != nil {
		return ErrDecryptionFailed
	}
	return nil
}

// HashPassword returns an argon2id record in PHC string format.
func (s *Shield) HashPassword(password string) (string, error) {
	if s == nil {
		return "", ErrNotReady
	}
	return s.hasher.Hash(password)
}

// VerifyPassword reports whether password matches the stored record. The
// comparison is constant-time in the derived key.
func (s *Shield) VerifyPassword(password, encoded string) (bool, error) {
	if s == nil {
		return false, ErrNotReady
	}
	return s.hasher.Verify(password, encoded)
}

// PasswordNeedsRehash reports whether the record was produced with weaker
// parameters than currently configured.
func (s *Shield) PasswordNeedsRehash(encoded string) (bool, error) {
	if s == nil {
		return false, ErrNotReady
	}
	return s.hasher.NeedsRehash(encoded)
}

// SecureToken returns a URL-safe random token of byteLength random bytes.
func (s *Shield) SecureToken(byteLength int) (string, error) {
	if s == nil {
		return "", ErrNotReady
	}
	return crypto.SecureToken(byteLength)
}

// Sanitize neutralizes input according to the requested kind.
func (s *Shield) Sanitize(input string, kind crypto.SanitizeKind) string {
	return crypto.Sanitize(input, kind)
}
