// Package crypto provides the key and cipher engine for the shield security
// layer: PBKDF2 key stretching, AES-256-GCM envelope encryption, argon2id
// password hashing in PHC string format, secure random token generation, and
// input sanitization.
//
// # Envelope semantics
//
// Every Encrypt call generates a fresh random salt and nonce and derives a
// per-call key from them, so two envelopes are never comparable by content
// even for identical plaintext and key. The engine is stateless with respect
// to envelopes; it holds only the long-lived root key.
//
// # What this package must NOT do
//
//   - Distinguish decryption failure modes in returned errors (wrong key,
//     malformed envelope, and tampered ciphertext are uniform).
//   - Retain or log plaintext, derived keys, or envelopes.
//   - Import any shield package (crypto is a leaf; everything may call it).
package crypto
