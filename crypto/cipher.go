package crypto

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"golang.org/x/crypto/pbkdf2"
)

const (
	minIterations = 10_000
	minSaltLength = 16
	keyLength     = 32 // AES-256
)

var (
	// ErrEncrypt is returned when plaintext cannot be serialized or sealed.
	ErrEncrypt = errors.New("encryption failed")
	// ErrDecrypt is returned on any decryption failure. The cause (malformed
	// envelope, wrong key, failed integrity check) is deliberately not
	// distinguishable from the error.
	ErrDecrypt = errors.New("decryption failed")
)

// Envelope defines a public type used by shield APIs.
//
// Envelope bundles ciphertext with the per-call randomness needed to decrypt
// it. Envelopes are owned by the caller; the engine never retains them.
type Envelope struct {
	Ciphertext []byte    `json:"ciphertext"`
	Salt       []byte    `json:"salt"`
	Nonce      []byte    `json:"nonce"`
	CreatedAt  time.Time `json:"created_at"`
}

// Config defines a public type used by shield APIs.
//
// Config instances are intended to be configured during initialization and then treated as immutable unless documented otherwise.
type Config struct {
	// Iterations is the PBKDF2 iteration count for per-call key derivation.
	Iterations int
	// SaltLength is the random salt size in bytes for envelopes.
	SaltLength int
}

// Engine defines a public type used by shield APIs.
//
// Engine holds the long-lived root key and derivation parameters. It is
// stateless otherwise and safe for concurrent use.
type Engine struct {
	config Config
	root   []byte
}

// NewEngine creates a cipher [Engine] from a root secret and config.
//
// NewEngine may return an error when input validation fails. The root secret
// is copied; the caller may zero its slice afterwards.
func NewEngine(rootSecret []byte, cfg Config) (*Engine, error) {
	if len(rootSecret) == 0 {
		return nil, errors.New("root secret must not be empty")
	}
	if cfg.Iterations < minIterations {
		return nil, fmt.Errorf("iterations must be >= %d", minIterations)
	}
	if cfg.SaltLength < minSaltLength {
		return nil, fmt.Errorf("salt length must be >= %d", minSaltLength)
	}

	root := make([]byte, len(rootSecret))
	copy(root, rootSecret)

	return &Engine{config: cfg, root: root}, nil
}

// DeriveKey stretches a secret into a fixed-size key. Deterministic: the same
// (secret, salt, iterations) always yields the same key.
func DeriveKey(secret, salt []byte, iterations int) []byte {
	return pbkdf2.Key(secret, salt, iterations, keyLength, sha256.New)
}

// Encrypt serializes v to JSON and seals it under a per-call key derived from
// a fresh random salt. If key is nil the engine's root key is used.
//
// Encrypt may return [ErrEncrypt] when serialization or sealing fails.
// Encrypt does not mutate shared state and can be used concurrently.
func (e *Engine) Encrypt(v any, key []byte) (*Envelope, error) {
	plaintext, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncrypt, err)
	}
	return e.EncryptBytes(plaintext, key)
}

// EncryptBytes seals raw plaintext bytes. Used by the backup pipeline, which
// handles its own serialization and compression.
func (e *Engine) EncryptBytes(plaintext, key []byte) (*Envelope, error) {
	if key == nil {
		key = e.root
	}

	salt := make([]byte, e.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncrypt, err)
	}

	aead, err := e.aead(key, salt)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncrypt, err)
	}

	nonce := make([]byte, aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncrypt, err)
	}

	return &Envelope{
		Ciphertext: aead.Seal(nil, nonce, plaintext, nil),
		Salt:       salt,
		Nonce:      nonce,
		CreatedAt:  time.Now().UTC(),
	}, nil
}

// Decrypt opens an envelope and unmarshals the recovered JSON into v.
//
// Decrypt returns [ErrDecrypt] on any failure and never reveals which
// sub-step failed.
func (e *Engine) Decrypt(env *Envelope, key []byte, v any) error {
	plaintext, err := e.DecryptBytes(env, key)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(plaintext, v); err != nil {
		return ErrDecrypt
	}
	return nil
}

// DecryptBytes opens an envelope and returns the raw plaintext.
func (e *Engine) DecryptBytes(env *Envelope, key []byte) ([]byte, error) {
	if env == nil || len(env.Salt) < minSaltLength || len(env.Nonce) == 0 {
		return nil, ErrDecrypt
	}
	if key == nil {
		key = e.root
	}

	aead, err := e.aead(key, env.Salt)
	if err != nil {
		return nil, ErrDecrypt
	}
	if len(env.Nonce) != aead.NonceSize() {
		return nil, ErrDecrypt
	}

	plaintext, err := aead.Open(nil, env.Nonce, env.Ciphertext, nil)
	if err != nil {
		return nil, ErrDecrypt
	}
	return plaintext, nil
}

func (e *Engine) aead(key, salt []byte) (cipher.AEAD, error) {
	derived := DeriveKey(key, salt, e.config.Iterations)

	block, err := aes.NewCipher(derived)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
