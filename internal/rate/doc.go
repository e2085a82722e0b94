// Package rate implements the sliding-window rate limiter used by the shield
// engine for login, API, and download admission checks.
//
// # Window semantics
//
// True sliding window: each (subject, class) pair keeps the timestamps of its
// admitted requests inside the trailing window, pruned lazily on every check.
// A burst can never reset itself by crossing a bucket boundary, and a rejected
// request records nothing.
//
// # What this package must NOT do
//
//   - Share a window between action classes for the same subject.
//   - Perform I/O; persistence of windows is the caller's concern.
//   - Be imported outside the shield module.
package rate
