package firewall

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// Severity defines a public type used by shield APIs.
type Severity string

const (
	// SeverityLow is an exported constant or variable used by the security engine.
	SeverityLow Severity = "low"
	// SeverityMedium is an exported constant or variable used by the security engine.
	SeverityMedium Severity = "medium"
	// SeverityHigh is an exported constant or variable used by the security engine.
	SeverityHigh Severity = "high"
	// SeverityCritical is an exported constant or variable used by the security engine.
	SeverityCritical Severity = "critical"
)

// ThreatStatus defines a public type used by shield APIs.
type ThreatStatus string

const (
	// ThreatActive is an exported constant or variable used by the security engine.
	ThreatActive ThreatStatus = "ACTIVE"
	// ThreatResolved is an exported constant or variable used by the security engine.
	ThreatResolved ThreatStatus = "RESOLVED"
)

// Threat defines a public type used by shield APIs.
type Threat struct {
	ID          string       `json:"id"`
	Type        string       `json:"type"`
	Description string       `json:"description"`
	Severity    Severity     `json:"severity"`
	Timestamp   time.Time    `json:"timestamp"`
	Status      ThreatStatus `json:"status"`
}

// ThreatLog is an append-only, capacity-bounded ring of threat records.
// The oldest record is evicted past the cap. Safe for concurrent use.
type ThreatLog struct {
	mu      sync.Mutex
	cap     int
	entries []Threat
	now     func() time.Time
}

// NewThreatLog creates a ring holding at most capacity records.
func NewThreatLog(capacity int) *ThreatLog {
	if capacity <= 0 {
		capacity = 1000
	}
	return &ThreatLog{cap: capacity, now: time.Now}
}

// Append records a new ACTIVE threat and returns it.
func (l *ThreatLog) Append(threatType, description string, severity Severity) Threat {
	l.mu.Lock()
	defer l.mu.Unlock()

	threat := Threat{
		ID:          uuid.NewString(),
		Type:        threatType,
		Description: description,
		Severity:    severity,
		Timestamp:   l.now(),
		Status:      ThreatActive,
	}
	l.entries = append(l.entries, threat)
	if overflow := len(l.entries) - l.cap; overflow > 0 {
		l.entries = append([]Threat(nil), l.entries[overflow:]...)
	}
	return threat
}

// Resolve marks a threat RESOLVED and reports whether it was found.
func (l *ThreatLog) Resolve(id string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	for i := range l.entries {
		if l.entries[i].ID == id {
			l.entries[i].Status = ThreatResolved
			return true
		}
	}
	return false
}

// Recent returns up to n newest records, newest first.
func (l *ThreatLog) Recent(n int) []Threat {
	l.mu.Lock()
	defer l.mu.Unlock()

	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Threat, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// ActiveCount returns the number of unresolved records in the ring.
func (l *ThreatLog) ActiveCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	count := 0
	for i := range l.entries {
		if l.entries[i].Status == ThreatActive {
			count++
		}
	}
	return count
}

// Len returns the number of retained records.
func (l *ThreatLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Snapshot exports the retained records for backup.
func (l *ThreatLog) Snapshot() []Threat {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]Threat(nil), l.entries...)
}

// Restore replaces the ring content from a backup payload, re-applying the
// capacity bound.
func (l *ThreatLog) Restore(entries []Threat) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if overflow := len(entries) - l.cap; overflow > 0 {
		entries = entries[overflow:]
	}
	l.entries = append([]Threat(nil), entries...)
}
