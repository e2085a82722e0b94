package shield

import (
	"crypto/subtle"
	"errors"
	"fmt"

	"github.com/ericalber/shield/session"
)

// CreateSession opens a session for userID bound to the client fingerprint.
// When the user is at the concurrency cap the oldest session is evicted.
func (s *Shield) CreateSession(userID string, fp session.Fingerprint) (session.Session, error) {
	if s == nil {
		return session.Session{}, ErrNotReady
	}
	sess, err := s.sessions.Create(userID, fp)
	if err != nil {
		return session.Session{}, fmt.Errorf("shield: create session: %w", err)
	}
	s.metrics.inc(MetricSessionCreated)
	s.emitAudit(auditEventSessionCreated, userID, func() map[string]string {
		return map[string]string{"session_id": sess.ID, "ip": fp.IP}
	})
	return sess, nil
}

// ValidateSession checks a session ID against the client fingerprint and
// returns the (possibly renewed) session. Expired sessions are purged as a
// side effect; fingerprint mismatches fail closed without purging.
func (s *Shield) ValidateSession(id string, fp session.Fingerprint) (session.Session, error) {
	if s == nil {
		return session.Session{}, ErrNotReady
	}
	sess, err := s.sessions.Validate(id, fp)
	if err != nil {
		s.metrics.inc(MetricSessionRejected)
		mapped := mapSessionError(err)
		s.emitAudit(auditEventSessionRejected, "", func() map[string]string {
			return map[string]string{"session_id": id, "reason": mapped.Error()}
		})
		return session.Session{}, mapped
	}
	s.metrics.inc(MetricSessionValidated)
	return sess, nil
}

// DestroySession removes a session. Unknown IDs are a no-op.
func (s *Shield) DestroySession(id string) {
	if s == nil {
		return
	}
	s.sessions.Destroy(id)
	s.metrics.inc(MetricSessionDestroyed)
	s.emitAudit(auditEventSessionDestroyed, "", func() map[string]string {
		return map[string]string{"session_id": id}
	})
}

// ListActiveSessions returns all live sessions ordered by creation time.
func (s *Shield) ListActiveSessions() []session.Session {
	if s == nil {
		return nil
	}
	return s.sessions.ListActive()
}

// SessionCount returns the number of live sessions.
func (s *Shield) SessionCount() int {
	if s == nil {
		return 0
	}
	return s.sessions.Count()
}

// IssueSessionHandle signs a portable handle for an existing session. The
// handle embeds the session's fingerprint digest so possession alone is not
// sufficient to replay it from another client.
func (s *Shield) IssueSessionHandle(sess session.Session) (string, error) {
	if s == nil {
		return "", ErrNotReady
	}
	if s.handles == nil {
		return "", ErrHandlesDisabled
	}
	handle, err := s.handles.Issue(sess.ID, sess.Fingerprint.Digest())
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrHandleInvalid, err)
	}
	s.metrics.inc(MetricHandleIssued)
	return handle, nil
}

// ValidateSessionHandle verifies a signed handle and then validates the
// underlying session. The presented fingerprint must match the digest
// sealed into the handle; this check fails closed.
func (s *Shield) ValidateSessionHandle(handle string, fp session.Fingerprint) (session.Session, error) {
	if s == nil {
		return session.Session{}, ErrNotReady
	}
	if s.handles == nil {
		return session.Session{}, ErrHandlesDisabled
	}
	sessionID, digest, err := s.handles.Parse(handle)
	if err != nil {
		s.metrics.inc(MetricHandleRejected)
		s.emitAudit(auditEventHandleRejected, "", nil)
		return session.Session{}, ErrHandleInvalid
	}
	presented := fp.Digest()
	if subtle.ConstantTimeCompare(digest[:], presented[:]) != 1 {
		s.metrics.inc(MetricHandleRejected)
		s.emitAudit(auditEventHandleRejected, "", func() map[string]string {
			return map[string]string{"session_id": sessionID, "reason": "fingerprint"}
		})
		return session.Session{}, ErrFingerprintMismatch
	}
	return s.ValidateSession(sessionID, fp)
}

// ValidateBearer resolves a bearer credential to a session: a signed handle
// when handles are enabled, a raw session ID otherwise.
func (s *Shield) ValidateBearer(bearer string, fp session.Fingerprint) (session.Session, error) {
	if s == nil {
		return session.Session{}, ErrNotReady
	}
	if s.handles != nil {
		return s.ValidateSessionHandle(bearer, fp)
	}
	return s.ValidateSession(bearer, fp)
}

func mapSessionError(err error) error {
	switch {
	case errors.Is(err, session.ErrExpired):
		return ErrSessionExpired
	case errors.Is(err, session.ErrFingerprintMismatch):
		return ErrFingerprintMismatch
	case errors.Is(err, session.ErrNotFound):
		return ErrSessionNotFound
	default:
		return err
	}
}
