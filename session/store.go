package session

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"io"
	"sort"
	"sync"
	"time"
)

const sessionIDBytes = 16

var (
	// ErrNotFound is returned when the session ID is unknown.
	ErrNotFound = errors.New("session not found")
	// ErrExpired is returned when the session's deadline has passed. The
	// session is purged as a side effect.
	ErrExpired = errors.New("session expired")
	// ErrFingerprintMismatch is returned when binding is enabled and the
	// validating request's fingerprint differs. The session is NOT purged.
	ErrFingerprintMismatch = errors.New("session fingerprint mismatch")
)

// Config holds session store tuning parameters.
type Config struct {
	// Timeout is the lifetime granted at creation and on renewal.
	Timeout time.Duration
	// RenewThreshold slides ExpiresAt forward only when the remaining
	// lifetime drops below it.
	RenewThreshold time.Duration
	// MaxPerUser caps concurrent sessions per user; the oldest by CreatedAt
	// is evicted when the cap would be exceeded. Zero disables the cap.
	MaxPerUser int
	// BindFingerprint enables fingerprint verification on Validate.
	BindFingerprint bool
}

// Store defines a public type used by shield APIs.
//
// Store keeps all sessions in memory behind a single mutex held only for the
// duration of each in-memory mutation. All methods are safe for concurrent
// use.
type Store struct {
	mu       sync.Mutex
	config   Config
	sessions map[string]*Session
	byUser   map[string]map[string]struct{}
	now      func() time.Time
}

// NewStore creates an empty session [Store].
func NewStore(cfg Config) *Store {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 24 * time.Hour
	}
	if cfg.RenewThreshold <= 0 || cfg.RenewThreshold > cfg.Timeout {
		cfg.RenewThreshold = cfg.Timeout / 4
	}
	return &Store{
		config:   cfg,
		sessions: make(map[string]*Session),
		byUser:   make(map[string]map[string]struct{}),
		now:      time.Now,
	}
}

// Create inserts a new session for userID. If the user already holds the
// maximum number of live sessions, the oldest by CreatedAt is evicted first.
func (s *Store) Create(userID string, fp Fingerprint) (Session, error) {
	id, err := newSessionID()
	if err != nil {
		return Session{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if s.config.MaxPerUser > 0 {
		for len(s.byUser[userID]) >= s.config.MaxPerUser {
			s.evictOldestLocked(userID)
		}
	}

	sess := &Session{
		ID:           id,
		UserID:       userID,
		Fingerprint:  fp,
		CreatedAt:    now,
		LastActivity: now,
		ExpiresAt:    now.Add(s.config.Timeout),
	}
	s.sessions[id] = sess

	ids := s.byUser[userID]
	if ids == nil {
		ids = make(map[string]struct{})
		s.byUser[userID] = ids
	}
	ids[id] = struct{}{}

	return *sess, nil
}

// Validate checks a session against the request fingerprint. On success it
// updates LastActivity and, inside the renew threshold, slides ExpiresAt
// forward; ExpiresAt never moves backwards.
func (s *Store) Validate(id string, fp Fingerprint) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}

	now := s.now()
	if now.After(sess.ExpiresAt) {
		s.removeLocked(id)
		return Session{}, ErrExpired
	}

	if s.config.BindFingerprint && sess.Fingerprint != fp {
		return Session{}, ErrFingerprintMismatch
	}

	sess.LastActivity = now
	if sess.ExpiresAt.Sub(now) < s.config.RenewThreshold {
		if renewed := now.Add(s.config.Timeout); renewed.After(sess.ExpiresAt) {
			sess.ExpiresAt = renewed
		}
	}

	return *sess, nil
}

// Destroy removes a session. Idempotent: destroying an unknown ID is a no-op.
func (s *Store) Destroy(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.removeLocked(id)
}

// Sweep purges every session whose deadline has passed and returns the number
// removed. This is the only path that reclaims abandoned sessions.
func (s *Store) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for id, sess := range s.sessions {
		if now.After(sess.ExpiresAt) {
			s.removeLocked(id)
			removed++
		}
	}
	return removed
}

// ListActive returns copies of all unexpired sessions ordered by CreatedAt.
func (s *Store) ListActive() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		if !now.After(sess.ExpiresAt) {
			out = append(out, *sess)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Count returns the number of stored sessions, expired-but-unswept included.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sessions)
}

// Snapshot exports every stored session for backup.
func (s *Store) Snapshot() []Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Session, 0, len(s.sessions))
	for _, sess := range s.sessions {
		out = append(out, *sess)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// Replace swaps the entire store content. Used by backup restoration; the
// swap is atomic with respect to concurrent readers.
func (s *Store) Replace(sessions []Session) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions = make(map[string]*Session, len(sessions))
	s.byUser = make(map[string]map[string]struct{})
	for i := range sessions {
		sess := sessions[i]
		s.sessions[sess.ID] = &sess
		ids := s.byUser[sess.UserID]
		if ids == nil {
			ids = make(map[string]struct{})
			s.byUser[sess.UserID] = ids
		}
		ids[sess.ID] = struct{}{}
	}
}

func (s *Store) evictOldestLocked(userID string) {
	var oldest *Session
	for id := range s.byUser[userID] {
		sess := s.sessions[id]
		if sess == nil {
			delete(s.byUser[userID], id)
			continue
		}
		if oldest == nil || sess.CreatedAt.Before(oldest.CreatedAt) {
			oldest = sess
		}
	}
	if oldest != nil {
		s.removeLocked(oldest.ID)
	}
}

func (s *Store) removeLocked(id string) {
	sess, ok := s.sessions[id]
	if !ok {
		return
	}
	delete(s.sessions, id)
	if ids := s.byUser[sess.UserID]; ids != nil {
		delete(ids, id)
		if len(ids) == 0 {
			delete(s.byUser, sess.UserID)
		}
	}
}

func newSessionID() (string, error) {
	raw := make([]byte, sessionIDBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(raw), nil
}
