package shield

import "errors"

// Sentinel errors returned by the public Shield API. Callers should match
// them with errors.Is; the wrapped detail text is informational only and
// never carries secret material.
var (
	// ErrNotReady is returned when a method is invoked on a nil or closed
	// Shield instance.
	ErrNotReady = errors.New("shield: not ready")

	// ErrEncryptionFailed is an exported constant or variable used by the
	// security engine. It reports that plaintext could not be sealed.
	ErrEncryptionFailed = errors.New("shield: encryption failed")

	// ErrDecryptionFailed covers every decryption failure uniformly: wrong
	// key, tampered ciphertext and malformed envelopes are indistinguishable
	// to the caller.
	ErrDecryptionFailed = errors.New("shield: decryption failed")

	// ErrSessionNotFound is returned for unknown or destroyed session IDs.
	ErrSessionNotFound = errors.New("shield: session not found")

	// ErrSessionExpired is returned once a session's deadline has passed.
	// The session is purged as a side effect of the failed validation.
	ErrSessionExpired = errors.New("shield: session expired")

	// ErrFingerprintMismatch is returned when a request's client
	// fingerprint does not match the one the session was created with.
	// This check fails closed.
	ErrFingerprintMismatch = errors.New("shield: session fingerprint mismatch")

	// ErrRateLimited is returned when an actor exhausts the sliding-window
	// budget for an action class.
	ErrRateLimited = errors.New("shield: rate limit exceeded")

	// ErrBlocked is returned for requests from actors on the firewall
	// block list.
	ErrBlocked = errors.New("shield: actor blocked")

	// ErrBackupNotFound is returned when a restore names an unknown
	// backup ID.
	ErrBackupNotFound = errors.New("shield: backup not found")

	// ErrBackupIntegrity is returned when a backup payload fails
	// decryption, decompression or decoding. No partial restore happens.
	ErrBackupIntegrity = errors.New("shield: backup integrity check failed")

	// ErrBackupsDisabled is returned when backup operations are invoked
	// without a configured backup manager.
	ErrBackupsDisabled = errors.New("shield: backups disabled")

	// ErrHandleInvalid is returned for signed session handles that fail
	// verification for any reason.
	ErrHandleInvalid = errors.New("shield: session handle invalid")

	// ErrHandlesDisabled is returned when signed handle operations are
	// invoked without a token secret configured.
	ErrHandlesDisabled = errors.New("shield: session handles disabled")

	// ErrPersistence reports a best-effort persistence failure. It is
	// surfaced through the OnPersistError hook, never from decision paths.
	ErrPersistence = errors.New("shield: persistence failure")
)
