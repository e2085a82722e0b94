package shield

import "sync/atomic"

// MetricID identifies one counter tracked by a Shield instance.
type MetricID int

// Counter identifiers. The set is fixed at compile time so the hot path can
// increment counters without map lookups or allocation.
const (
	MetricSessionCreated MetricID = iota
	MetricSessionValidated
	MetricSessionRejected
	MetricSessionDestroyed
	MetricSessionSwept
	MetricRateLimited
	MetricRequestAllowed
	MetricRequestBlocked
	MetricSuspiciousPattern
	MetricActorBlocked
	MetricBackupCreated
	MetricBackupRestored
	MetricHandleIssued
	MetricHandleRejected
	MetricPersistFailure

	metricCount // sentinel, keep last
)

var metricNames = [metricCount]string{
	MetricSessionCreated:    "session_created",
	MetricSessionValidated:  "session_validated",
	MetricSessionRejected:   "session_rejected",
	MetricSessionDestroyed:  "session_destroyed",
	MetricSessionSwept:      "session_swept",
	MetricRateLimited:       "rate_limited",
	MetricRequestAllowed:    "request_allowed",
	MetricRequestBlocked:    "request_blocked",
	MetricSuspiciousPattern: "suspicious_pattern",
	MetricActorBlocked:      "actor_blocked",
	MetricBackupCreated:     "backup_created",
	MetricBackupRestored:    "backup_restored",
	MetricHandleIssued:      "handle_issued",
	MetricHandleRejected:    "handle_rejected",
	MetricPersistFailure:    "persist_failure",
}

// String returns the stable wire name of the counter.
func (id MetricID) String() string {
	if id < 0 || id >= metricCount {
		return "unknown"
	}
	return metricNames[id]
}

// Metrics holds the counters of one Shield instance. All methods are safe
// for concurrent use. A nil *Metrics is a valid no-op receiver, which lets
// the engine skip nil checks on the hot path.
type Metrics struct {
	counters [metricCount]atomic.Uint64
}

func newMetrics() *Metrics { return &Metrics{} }

func (m *Metrics) inc(id MetricID) {
	if m == nil || id < 0 || id >= metricCount {
		return
	}
	m.counters[id].Add(1)
}

// Value returns the current count for one metric.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id < 0 || id >= metricCount {
		return 0
	}
	return m.counters[id].Load()
}

// Snapshot returns all counters keyed by wire name. The map is freshly
// allocated on every call.
func (m *Metrics) Snapshot() map[string]uint64 {
	out := make(map[string]uint64, metricCount)
	if m == nil {
		return out
	}
	for id := MetricID(0); id < metricCount; id++ {
		out[metricNames[id]] = m.counters[id].Load()
	}
	return out
}
