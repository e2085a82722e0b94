// Package audit provides the event model, asynchronous dispatcher, and
// bounded retention log behind the shield engine's audit trail.
//
// The dispatcher decouples emitters from sinks with a buffered channel so no
// security decision ever waits on a slow sink. Delivery is best-effort when
// DropIfFull is set; dropped events are counted, not blocked on.
//
// # What this package must NOT do
//
//   - Block a request-path caller on sink latency.
//   - Be imported outside the shield module.
package audit
