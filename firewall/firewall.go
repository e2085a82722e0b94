package firewall

import (
	"fmt"
	"regexp"
	"sync"
	"time"
)

// Reason defines a public type used by shield APIs.
//
// Reason explains a rejected admission decision.
type Reason string

const (
	// ReasonBlocked is an exported constant or variable used by the security engine.
	ReasonBlocked Reason = "BLOCKED"
	// ReasonSuspiciousPattern is an exported constant or variable used by the security engine.
	ReasonSuspiciousPattern Reason = "SUSPICIOUS_PATTERN"
	// ReasonSuspiciousActivity is an exported constant or variable used by the security engine.
	ReasonSuspiciousActivity Reason = "SUSPICIOUS_ACTIVITY"
)

// Request defines a public type used by shield APIs.
//
// Request is the inbound descriptor supplied by the calling web layer.
type Request struct {
	ActorID   string
	UserAgent string
	URL       string
	IP        string
}

// Decision defines a public type used by shield APIs.
type Decision struct {
	Allowed bool
	Reason  Reason
}

// DefaultSuspiciousPatterns covers common automation and script-injection
// signatures. Config.SuspiciousPatterns replaces, not extends, this set.
var DefaultSuspiciousPatterns = []string{
	`(?i)(curl|wget|python-requests|go-http-client|scrapy|headless)`,
	`(?i)\b(bot|crawler|spider)\b`,
	`(?i)(<script|javascript:|onerror=|onload=)`,
	`(?i)(union\s+select|or\s+1=1|--\s*$)`,
	`\.\./`,
}

// Config holds firewall tuning parameters.
type Config struct {
	// SuspiciousPatterns are regular expressions tested against the user
	// agent and URL of every request. Empty means DefaultSuspiciousPatterns.
	SuspiciousPatterns []string
	// ActivityWindow is the trailing span over which suspicious events are
	// counted for both thresholds.
	ActivityWindow time.Duration
	// AlertThreshold rejects requests once exceeded (without blocking).
	AlertThreshold int
	// AutoBlockThreshold moves the actor into the blocked set once exceeded.
	AutoBlockThreshold int
	// MaxActivityPerActor bounds the per-actor event log.
	MaxActivityPerActor int
}

type activityEvent struct {
	Type string    `json:"type"`
	At   time.Time `json:"at"`
}

// State is the serializable firewall payload used by backup and persistence.
type State struct {
	Blocked  []string                   `json:"blocked"`
	Activity map[string][]activityEvent `json:"activity"`
}

// Firewall defines a public type used by shield APIs.
//
// Firewall instances are safe for concurrent use.
type Firewall struct {
	mu       sync.Mutex
	config   Config
	patterns []*regexp.Regexp
	blocked  map[string]struct{}
	activity map[string][]activityEvent
	now      func() time.Time
}

// New compiles the pattern set and returns a [Firewall].
func New(cfg Config) (*Firewall, error) {
	if cfg.ActivityWindow <= 0 {
		cfg.ActivityWindow = 5 * time.Minute
	}
	if cfg.AlertThreshold <= 0 {
		cfg.AlertThreshold = 5
	}
	if cfg.AutoBlockThreshold <= 0 {
		cfg.AutoBlockThreshold = 10
	}
	if cfg.AutoBlockThreshold < cfg.AlertThreshold {
		return nil, fmt.Errorf("auto-block threshold %d below alert threshold %d", cfg.AutoBlockThreshold, cfg.AlertThreshold)
	}
	if cfg.MaxActivityPerActor <= 0 {
		cfg.MaxActivityPerActor = 100
	}

	raw := cfg.SuspiciousPatterns
	if len(raw) == 0 {
		raw = DefaultSuspiciousPatterns
	}
	patterns := make([]*regexp.Regexp, 0, len(raw))
	for _, expr := range raw {
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, fmt.Errorf("suspicious pattern %q: %w", expr, err)
		}
		patterns = append(patterns, re)
	}

	return &Firewall{
		config:   cfg,
		patterns: patterns,
		blocked:  make(map[string]struct{}),
		activity: make(map[string][]activityEvent),
		now:      time.Now,
	}, nil
}

// CheckRequest admits or rejects a request. Order: blocked set, pattern scan
// (a match records a suspicious event and may escalate), then the trailing
// activity count against the alert threshold.
func (f *Firewall) CheckRequest(req Request) Decision {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, blocked := f.blocked[req.ActorID]; blocked {
		return Decision{Reason: ReasonBlocked}
	}

	for _, re := range f.patterns {
		if re.MatchString(req.UserAgent) || re.MatchString(req.URL) {
			f.recordLocked(req.ActorID, "pattern:"+re.String())
			return Decision{Reason: ReasonSuspiciousPattern}
		}
	}

	if f.recentCountLocked(req.ActorID) > f.config.AlertThreshold {
		return Decision{Reason: ReasonSuspiciousActivity}
	}

	return Decision{Allowed: true}
}

// RecordSuspicious appends an event to the actor's activity log and reports
// whether the actor is now blocked.
func (f *Firewall) RecordSuspicious(actorID, eventType string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recordLocked(actorID, eventType)
}

// Block adds an actor to the blocked set.
func (f *Firewall) Block(actorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blocked[actorID] = struct{}{}
}

// Unblock removes an actor from the blocked set. This is the only way out of
// a block. Idempotent.
func (f *Firewall) Unblock(actorID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blocked, actorID)
}

// IsBlocked reports whether an actor is in the blocked set.
func (f *Firewall) IsBlocked(actorID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blocked[actorID]
	return ok
}

// BlockedActors returns a copy of the blocked set.
func (f *Firewall) BlockedActors() []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]string, 0, len(f.blocked))
	for id := range f.blocked {
		out = append(out, id)
	}
	return out
}

// ActivityCount returns the actor's suspicious-event count inside the
// trailing window.
func (f *Firewall) ActivityCount(actorID string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.recentCountLocked(actorID)
}

// Snapshot exports the firewall state for backup.
func (f *Firewall) Snapshot() State {
	f.mu.Lock()
	defer f.mu.Unlock()

	state := State{
		Blocked:  make([]string, 0, len(f.blocked)),
		Activity: make(map[string][]activityEvent, len(f.activity)),
	}
	for id := range f.blocked {
		state.Blocked = append(state.Blocked, id)
	}
	for id, events := range f.activity {
		copied := make([]activityEvent, len(events))
		copy(copied, events)
		state.Activity[id] = copied
	}
	return state
}

// Restore replaces the firewall state from a backup payload.
func (f *Firewall) Restore(state State) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.blocked = make(map[string]struct{}, len(state.Blocked))
	for _, id := range state.Blocked {
		f.blocked[id] = struct{}{}
	}
	f.activity = make(map[string][]activityEvent, len(state.Activity))
	for id, events := range state.Activity {
		copied := make([]activityEvent, len(events))
		copy(copied, events)
		f.activity[id] = copied
	}
}

func (f *Firewall) recordLocked(actorID, eventType string) bool {
	events := append(f.activity[actorID], activityEvent{Type: eventType, At: f.now()})
	if overflow := len(events) - f.config.MaxActivityPerActor; overflow > 0 {
		events = append([]activityEvent(nil), events[overflow:]...)
	}
	f.activity[actorID] = events

	if f.recentCountLocked(actorID) > f.config.AutoBlockThreshold {
		f.blocked[actorID] = struct{}{}
	}

	_, blocked := f.blocked[actorID]
	return blocked
}

func (f *Firewall) recentCountLocked(actorID string) int {
	cutoff := f.now().Add(-f.config.ActivityWindow)
	count := 0
	for _, event := range f.activity[actorID] {
		if !event.At.Before(cutoff) {
			count++
		}
	}
	return count
}
