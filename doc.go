// Package shield is the embeddable security layer for Go services.
//
// A Shield instance bundles the independent building blocks exported by the
// subpackages (crypto, session, firewall, backup, storage, token) behind a
// single configured facade:
//
//   - envelope encryption and password hashing
//   - sliding-window rate limiting per actor and action class
//   - fingerprint-bound sessions with renew-before-expiry
//   - request firewalling, suspicious-activity tracking and auto-blocking
//   - compressed, encrypted state backups with all-or-nothing restore
//   - bounded audit logging with asynchronous delivery
//
// All security decisions are made against in-memory state. An optional
// storage.KV backend receives periodic best-effort snapshots so state
// survives restarts; a persistence outage degrades durability, never
// availability. Cryptographic failures and fingerprint mismatches are the
// exception and always fail closed.
//
// Construct an instance with the Builder:
//
//	sh, err := shield.New().
//		WithConfig(cfg).
//		WithKV(storage.NewMemory()).
//		Build()
//
// A Shield is safe for concurrent use. Close releases background workers
// and flushes pending audit events and persistence writes.
package shield
