package rate

import (
	"strings"
	"sync"
	"time"
)

// Policy holds the window length and admission limit for one action class.
type Policy struct {
	Limit  int
	Window time.Duration
}

// Config holds rate limiter tuning parameters.
type Config struct {
	// Policies maps action classes (login, api, download) to their budgets.
	Policies map[string]Policy
	// Default applies to classes with no explicit policy.
	Default Policy
	// IdleLookback bounds memory: subjects with no admission inside this
	// span are dropped by Cleanup.
	IdleLookback time.Duration
}

type windowKey struct {
	subject string
	class   string
}

// Limiter enforces per-(subject, class) sliding-window limits from in-memory
// state. All methods are safe for concurrent use.
type Limiter struct {
	mu      sync.Mutex
	config  Config
	windows map[windowKey][]time.Time
	now     func() time.Time
}

// New creates a sliding-window [Limiter].
func New(cfg Config) *Limiter {
	if cfg.Default.Limit <= 0 {
		cfg.Default = Policy{Limit: 100, Window: time.Minute}
	}
	if cfg.IdleLookback <= 0 {
		cfg.IdleLookback = time.Hour
	}
	return &Limiter{
		config:  cfg,
		windows: make(map[windowKey][]time.Time),
		now:     time.Now,
	}
}

// Allow checks the (subject, class) window and admits the request if the
// retained admission count is below the class limit. Admission appends the
// current timestamp; rejection records nothing.
func (l *Limiter) Allow(subject, class string) bool {
	policy := l.policy(class)
	key := windowKey{subject: subject, class: class}

	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	retained := prune(l.windows[key], now.Add(-policy.Window))

	if len(retained) >= policy.Limit {
		l.windows[key] = retained
		return false
	}

	l.windows[key] = append(retained, now)
	return true
}

// Attempts returns the retained admission count for a (subject, class) pair
// without recording anything.
func (l *Limiter) Attempts(subject, class string) int {
	policy := l.policy(class)
	key := windowKey{subject: subject, class: class}

	l.mu.Lock()
	defer l.mu.Unlock()

	retained := prune(l.windows[key], l.now().Add(-policy.Window))
	l.windows[key] = retained
	return len(retained)
}

// Cleanup drops every window whose newest admission is older than the idle
// lookback and returns the number of windows removed.
func (l *Limiter) Cleanup() int {
	l.mu.Lock()
	defer l.mu.Unlock()

	cutoff := l.now().Add(-l.config.IdleLookback)
	removed := 0
	for key, stamps := range l.windows {
		if len(stamps) == 0 || stamps[len(stamps)-1].Before(cutoff) {
			delete(l.windows, key)
			removed++
		}
	}
	return removed
}

// TrackedWindows returns the number of live (subject, class) windows.
func (l *Limiter) TrackedWindows() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.windows)
}

// Export returns a copy of all retained admission timestamps, keyed as
// "subject\x00class". Used by best-effort persistence.
func (l *Limiter) Export() map[string][]time.Time {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make(map[string][]time.Time, len(l.windows))
	for key, stamps := range l.windows {
		copied := make([]time.Time, len(stamps))
		copy(copied, stamps)
		out[key.subject+"\x00"+key.class] = copied
	}
	return out
}

// Import replaces the tracked windows with previously exported state. Keys
// not in "subject\x00class" form are skipped; stale timestamps are pruned
// lazily by the next check against each window.
func (l *Limiter) Import(windows map[string][]time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.windows = make(map[windowKey][]time.Time, len(windows))
	for key, stamps := range windows {
		subject, class, ok := strings.Cut(key, "\x00")
		if !ok || len(stamps) == 0 {
			continue
		}
		copied := make([]time.Time, len(stamps))
		copy(copied, stamps)
		l.windows[windowKey{subject: subject, class: class}] = copied
	}
}

func (l *Limiter) policy(class string) Policy {
	if p, ok := l.config.Policies[class]; ok && p.Limit > 0 && p.Window > 0 {
		return p
	}
	return l.config.Default
}

// prune drops timestamps before cutoff. Timestamps are appended in order, so
// the retained suffix starts at the first index at or after the cutoff.
func prune(stamps []time.Time, cutoff time.Time) []time.Time {
	idx := 0
	for idx < len(stamps) && stamps[idx].Before(cutoff) {
		idx++
	}
	if idx == 0 {
		return stamps
	}
	return append([]time.Time(nil), stamps[idx:]...)
}
