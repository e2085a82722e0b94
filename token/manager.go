package token

import (
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const minSecretLength = 32

// ErrInvalid is returned for any handle that fails signature, structure, or
// time-bound checks.
var ErrInvalid = errors.New("invalid session handle")

// Config defines a public type used by shield APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Secret is the HMAC-SHA256 signing key; at least 32 bytes.
	Secret []byte
	// TTL bounds the handle's own lifetime, independent of the session's.
	TTL time.Duration
	// Issuer is stamped into and required from every handle.
	Issuer string
	// Leeway tolerates clock skew during verification.
	Leeway time.Duration
}

type handleClaims struct {
	SID string `json:"sid"`
	FPD string `json:"fpd"`
	jwt.RegisteredClaims
}

// Manager defines a public type used by shield APIs.
//
// Manager instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Manager struct {
	config Config
}

// NewManager validates the config and returns a [Manager].
func NewManager(cfg Config) (*Manager, error) {
	if len(cfg.Secret) < minSecretLength {
		return nil, fmt.Errorf("handle secret must be >= %d bytes", minSecretLength)
	}
	if cfg.TTL <= 0 {
		return nil, errors.New("handle TTL must be > 0")
	}
	if cfg.Leeway < 0 || cfg.Leeway > 2*time.Minute {
		return nil, errors.New("invalid leeway configuration")
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "shield"
	}
	return &Manager{config: cfg}, nil
}

// Issue signs a handle for a session ID and fingerprint digest.
func (m *Manager) Issue(sessionID string, fpDigest [32]byte) (string, error) {
	now := time.Now()
	claims := handleClaims{
		SID: sessionID,
		FPD: base64.RawURLEncoding.EncodeToString(fpDigest[:]),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TTL)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.config.Secret)
}

// Parse verifies a handle and returns the embedded session ID and
// fingerprint digest. All failure modes map to [ErrInvalid].
func (m *Manager) Parse(handle string) (string, [32]byte, error) {
	var digest [32]byte

	claims := &handleClaims{}
	parsed, err := jwt.ParseWithClaims(handle, claims,
		func(t *jwt.Token) (any, error) { return m.config.Secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(m.config.Issuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(m.config.Leeway),
	)
	if err != nil || !parsed.Valid || claims.SID == "" {
		return "", digest, ErrInvalid
	}

	raw, err := base64.RawURLEncoding.DecodeString(claims.FPD)
	if err != nil || len(raw) != len(digest) {
		return "", digest, ErrInvalid
	}
	copy(digest[:], raw)

	return claims.SID, digest, nil
}
