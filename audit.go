package shield

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/ericalber/shield/internal/audit"
)

// Audit event names emitted by the engine. Names are stable wire values;
// renaming one is a breaking change for downstream consumers.
const (
	auditEventSessionCreated   = "session_created"
	auditEventSessionRejected  = "session_rejected"
	auditEventSessionDestroyed = "session_destroyed"
	auditEventRateLimited      = "rate_limited"
	auditEventRequestBlocked   = "request_blocked"
	auditEventSuspicious       = "suspicious_activity"
	auditEventActorBlocked     = "actor_blocked"
	auditEventActorUnblocked   = "actor_unblocked"
	auditEventBackupCreated    = "backup_created"
	auditEventBackupRestored   = "backup_restored"
	auditEventBackupFailed     = "backup_failed"
	auditEventHandleRejected   = "handle_rejected"
	auditEventPersistFailure   = "persist_failure"
)

// AuditEntry is one security event as seen by external sinks. Entries are
// treated as immutable once emitted.
type AuditEntry struct {
	ID        string            `json:"id"`
	Timestamp time.Time         `json:"timestamp"`
	Event     string            `json:"event"`
	Actor     string            `json:"actor,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// AuditSink receives audit entries. Implementations must be safe for
// concurrent use and must not block for long: delivery happens on a single
// dispatcher goroutine shared by all sinks.
type AuditSink interface {
	Emit(ctx context.Context, entry AuditEntry)
}

// sinkAdapter bridges a public AuditSink onto the internal dispatcher.
type sinkAdapter struct {
	sink AuditSink
}

func (a sinkAdapter) Emit(ctx context.Context, e audit.Entry) {
	a.sink.Emit(ctx, AuditEntry{
		ID:        e.ID,
		Timestamp: e.Timestamp,
		Event:     e.Event,
		Actor:     e.Actor,
		Details:   e.Details,
	})
}

// emitAudit queues one event for asynchronous delivery. Details maps are
// built lazily so disabled auditing costs a single nil check.
func (s *Shield) emitAudit(event, actor string, details func() map[string]string) {
	if s.dispatcher == nil {
		return
	}
	entry := audit.Entry{
		ID:        uuid.NewString(),
		Timestamp: s.now(),
		Event:     event,
		Actor:     actor,
	}
	if details != nil {
		entry.Details = details()
	}
	s.dispatcher.Emit(context.Background(), entry)
}

func toPublicEntries(entries []audit.Entry) []AuditEntry {
	out := make([]AuditEntry, len(entries))
	for i, e := range entries {
		out[i] = AuditEntry{
			ID:        e.ID,
			Timestamp: e.Timestamp,
			Event:     e.Event,
			Actor:     e.Actor,
			Details:   e.Details,
		}
	}
	return out
}
