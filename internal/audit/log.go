package audit

import (
	"context"
	"sync"
	"time"
)

// Log is a capacity- and age-bounded in-memory audit store. It doubles as a
// [Sink] so it can sit behind the dispatcher, and it backs the recent-entry
// section of the security report.
type Log struct {
	mu        sync.Mutex
	cap       int
	retention time.Duration
	entries   []Entry
	now       func() time.Time
}

// NewLog creates a log holding at most capacity entries, purging entries
// older than retention on each append and read.
func NewLog(capacity int, retention time.Duration) *Log {
	if capacity <= 0 {
		capacity = 10_000
	}
	if retention <= 0 {
		retention = 30 * 24 * time.Hour
	}
	return &Log{cap: capacity, retention: retention, now: time.Now}
}

// Emit implements [Sink].
func (l *Log) Emit(_ context.Context, entry Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append(l.entries, entry)
	l.purgeLocked()
}

// Recent returns up to n newest entries, newest first.
func (l *Log) Recent(n int) []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purgeLocked()
	if n <= 0 || n > len(l.entries) {
		n = len(l.entries)
	}
	out := make([]Entry, 0, n)
	for i := len(l.entries) - 1; i >= len(l.entries)-n; i-- {
		out = append(out, l.entries[i])
	}
	return out
}

// Len returns the number of retained entries after purging.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purgeLocked()
	return len(l.entries)
}

// Snapshot exports retained entries for backup, oldest first.
func (l *Log) Snapshot() []Entry {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.purgeLocked()
	return append([]Entry(nil), l.entries...)
}

// Restore replaces the log content from a backup payload, re-applying both
// bounds.
func (l *Log) Restore(entries []Entry) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.entries = append([]Entry(nil), entries...)
	l.purgeLocked()
}

// Entries are appended in timestamp order, so purging scans from the front.
func (l *Log) purgeLocked() {
	cutoff := l.now().Add(-l.retention)
	idx := 0
	for idx < len(l.entries) && l.entries[idx].Timestamp.Before(cutoff) {
		idx++
	}
	if idx > 0 {
		l.entries = append([]Entry(nil), l.entries[idx:]...)
	}
	if overflow := len(l.entries) - l.cap; overflow > 0 {
		l.entries = append([]Entry(nil), l.entries[overflow:]...)
	}
}
