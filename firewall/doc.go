// Package firewall implements request admission filtering for the shield
// security layer: a manually and automatically populated blocked set,
// suspicious-pattern scanning over user agent and URL, trailing-window
// activity scoring with automatic escalation to block, a capacity-bounded
// threat log, and the click/conversion quality scorer.
//
// # Escalation semantics
//
// Suspicious activity is scored over a trailing window (default 5 minutes).
// Crossing the lower alert threshold rejects requests; crossing the higher
// auto-block threshold moves the actor into the blocked set. Blocking is
// permanent until an explicit Unblock — there is no automatic expiry.
//
// # What this package must NOT do
//
//   - Consult the rate limiter or session store directly; composition happens
//     in the engine.
//   - Hold a lock across anything but the in-memory mutation.
package firewall
