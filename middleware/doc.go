// Package middleware exposes HTTP middleware adapters for the shield
// security engine.
//
// # Guards
//
//   - [Perimeter] — firewall screening plus rate limiting; no session.
//   - [Guard] — perimeter checks plus session validation.
//
// Perimeter wraps anonymous endpoints (login, signup); Guard wraps
// authenticated ones. Both derive the client fingerprint from the request
// and run checks in decision order: firewall, rate limiter, then session.
//
// # Architecture boundaries
//
// This package translates HTTP semantics into Shield calls. It does NOT
// implement security logic itself — all decisions are delegated to the
// engine.
//
// # What this package must NOT do
//
//   - Inspect or create session handles directly (delegates to Shield).
//   - Make allow/deny decisions beyond mapping Shield errors to status
//     codes.
//   - Mutate firewall or limiter state outside the Shield API.
package middleware
