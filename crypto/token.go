package crypto

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
)

// SecureToken returns byteLength bytes of cryptographic randomness encoded as
// base64url without padding. The only failure mode is entropy-source
// exhaustion, which callers treat as fatal.
func SecureToken(byteLength int) (string, error) {
	if byteLength <= 0 {
		return "", errors.New("token length must be > 0")
	}

	raw := make([]byte, byteLength)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(raw), nil
}
