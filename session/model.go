package session

import (
	"crypto/sha256"
	"time"
)

// Fingerprint defines a public type used by shield APIs.
//
// Fingerprint carries the client-identifying attributes a session is bound
// to. Binding makes a stolen session ID less useful from a different client
// context.
type Fingerprint struct {
	UserAgent string `json:"user_agent"`
	IP        string `json:"ip"`
}

// Digest returns a stable SHA-256 digest of the fingerprint, used where the
// raw attributes must not be embedded (signed session handles).
func (f Fingerprint) Digest() [32]byte {
	return sha256.Sum256([]byte(f.UserAgent + "\x00" + f.IP))
}

// Session defines a public type used by shield APIs.
//
// Session values returned from the store are copies; mutating them does not
// affect stored state.
type Session struct {
	ID           string      `json:"id"`
	UserID       string      `json:"user_id"`
	Fingerprint  Fingerprint `json:"fingerprint"`
	CreatedAt    time.Time   `json:"created_at"`
	LastActivity time.Time   `json:"last_activity"`
	ExpiresAt    time.Time   `json:"expires_at"`
}
