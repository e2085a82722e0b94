// Package storage defines the durable key-value contract the shield engine
// persists its bookkeeping through, plus three implementations: an in-memory
// map, a Redis-backed store, and a BadgerDB-backed store.
//
// Persistence through this interface is best-effort by design: security
// decisions are computed from in-memory state first, and a failed write never
// retroactively changes a decision already returned to the caller.
//
// # What this package must NOT do
//
//   - Interpret the values it stores; serialization belongs to the callers.
//   - Be required for any security decision.
package storage
