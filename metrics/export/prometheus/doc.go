// Package prometheus renders shield counters in Prometheus text exposition
// format.
//
// [NewExporter] accepts a [shield.Shield] and exposes an [http.Handler]
// that renders every engine counter. Counter names are prefixed
// shield_*_total.
//
// # What this package must NOT do
//
//   - Register metrics in a global Prometheus registry — callers mount the
//     Handler.
//   - Mutate engine state.
package prometheus
