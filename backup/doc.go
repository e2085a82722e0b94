// Package backup implements periodic and on-demand snapshots of the shield
// engine's critical state: registered sources export opaque payloads that are
// bundled, optionally compressed, then optionally encrypted, and retained in
// a capacity-bounded history.
//
// # Pipeline order
//
// Compression always runs before encryption — compressing ciphertext is
// ineffective — and restoration reverses the pipeline exactly: decrypt, then
// decompress, then apply. This ordering is an invariant, not a tunable.
//
// # Restore atomicity
//
// A restore applies either every source or none: the whole bundle is decoded
// and matched against the registered sources before any source state is
// touched. A missing or undecodable payload aborts the restore entirely.
package backup
