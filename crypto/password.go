package crypto

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

const (
	passwordAlgorithm  = "argon2id"
	minPasswordMemory  = 8 * 1024 // KB
	minPasswordSalt    = 16
	minPasswordKeyLen  = 16
	minPasswordLength  = 8
	passwordFieldCount = 6
)

// PasswordConfig defines a public type used by shield APIs.
//
// PasswordConfig instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type PasswordConfig struct {
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Hasher defines a public type used by shield APIs.
//
// Hasher produces and verifies argon2id password records encoded as PHC
// strings ($argon2id$v=19$m=...,t=...,p=...$salt$hash). The encoded record
// carries algorithm, parameters, and salt, so verification never depends on
// current config.
type Hasher struct {
	config PasswordConfig
}

type passwordRecord struct {
	memory      uint32
	time        uint32
	parallelism uint8
	salt        []byte
	hash        []byte
}

// NewHasher validates the config floors and returns a [Hasher].
func NewHasher(cfg PasswordConfig) (*Hasher, error) {
	if cfg.Memory < minPasswordMemory {
		return nil, fmt.Errorf("password memory must be >= %d KB", minPasswordMemory)
	}
	if cfg.Time < 1 {
		return nil, errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < 1 {
		return nil, errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minPasswordSalt {
		return nil, fmt.Errorf("password salt length must be >= %d", minPasswordSalt)
	}
	if cfg.KeyLength < minPasswordKeyLen {
		return nil, fmt.Errorf("password key length must be >= %d", minPasswordKeyLen)
	}
	return &Hasher{config: cfg}, nil
}

// Hash stretches a password with a fresh random salt and returns the PHC
// encoded record. Password bytes are used exactly as provided.
func (h *Hasher) Hash(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", fmt.Errorf("password must be at least %d bytes", minPasswordLength)
	}

	salt := make([]byte, h.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", err
	}

	hash := argon2.IDKey([]byte(password), salt, h.config.Time, h.config.Memory, h.config.Parallelism, h.config.KeyLength)

	return fmt.Sprintf(
		"$%s$v=%d$m=%d,t=%d,p=%d$%s$%s",
		passwordAlgorithm,
		argon2.Version,
		h.config.Memory,
		h.config.Time,
		h.config.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// Verify recomputes the hash with the record's stored salt and parameters and
// compares in constant time. A malformed record is an error, not a mismatch.
func (h *Hasher) Verify(password, encoded string) (bool, error) {
	rec, err := parseRecord(encoded)
	if err != nil {
		return false, err
	}

	computed := argon2.IDKey([]byte(password), rec.salt, rec.time, rec.memory, rec.parallelism, uint32(len(rec.hash)))

	return subtle.ConstantTimeCompare(computed, rec.hash) == 1, nil
}

// NeedsRehash reports whether a stored record was produced with weaker
// parameters than the current config.
func (h *Hasher) NeedsRehash(encoded string) (bool, error) {
	rec, err := parseRecord(encoded)
	if err != nil {
		return false, err
	}
	return rec.memory < h.config.Memory ||
		rec.time < h.config.Time ||
		rec.parallelism < h.config.Parallelism ||
		uint32(len(rec.hash)) != h.config.KeyLength, nil
}

func parseRecord(encoded string) (*passwordRecord, error) {
	parts := strings.Split(encoded, "$")
	if len(parts) != passwordFieldCount || parts[0] != "" {
		return nil, errors.New("invalid password record format")
	}
	if parts[1] != passwordAlgorithm {
		return nil, errors.New("unsupported password algorithm")
	}

	version, ok := strings.CutPrefix(parts[2], "v=")
	if !ok {
		return nil, errors.New("missing argon2 version")
	}
	if v, err := strconv.Atoi(version); err != nil || v != argon2.Version {
		return nil, errors.New("unsupported argon2 version")
	}

	rec := &passwordRecord{}
	for _, pair := range strings.Split(parts[3], ",") {
		k, v, found := strings.Cut(pair, "=")
		if !found {
			return nil, errors.New("invalid password record parameters")
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			return nil, errors.New("invalid password record parameters")
		}
		switch k {
		case "m":
			rec.memory = uint32(n)
		case "t":
			rec.time = uint32(n)
		case "p":
			if n > 255 {
				return nil, errors.New("invalid password record parameters")
			}
			rec.parallelism = uint8(n)
		default:
			return nil, errors.New("invalid password record parameters")
		}
	}
	if rec.memory == 0 || rec.time == 0 || rec.parallelism == 0 {
		return nil, errors.New("incomplete password record parameters")
	}

	var err error
	if rec.salt, err = base64.RawStdEncoding.DecodeString(parts[4]); err != nil || len(rec.salt) < minPasswordSalt {
		return nil, errors.New("invalid password record salt")
	}
	if rec.hash, err = base64.RawStdEncoding.DecodeString(parts[5]); err != nil || len(rec.hash) == 0 {
		return nil, errors.New("invalid password record hash")
	}

	return rec, nil
}
