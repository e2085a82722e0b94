// Package session implements the authenticated-session store for the shield
// security layer: lifecycle, per-user concurrency caps with oldest-first
// eviction, client fingerprint binding, and renew-before-expiry sliding
// expiration.
//
// # Fingerprint binding
//
// A session whose fingerprint no longer matches the validating request is
// invalid but is NOT destroyed: a spoofed request is treated as
// unauthenticated without revoking a session the genuine client may still
// reconnect with. Expiry, by contrast, purges.
//
// # What this package must NOT do
//
//   - Hold its lock across I/O; the store is memory-only and persistence is
//     layered on top by the engine.
//   - Renew a session on every validation (only inside the renew threshold,
//     to bound write amplification).
package session
