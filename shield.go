package shield

import (
	"context"
	"sync"
	"time"

	"github.com/ericalber/shield/backup"
	"github.com/ericalber/shield/crypto"
	"github.com/ericalber/shield/firewall"
	"github.com/ericalber/shield/internal/audit"
	"github.com/ericalber/shield/internal/persist"
	"github.com/ericalber/shield/internal/rate"
	"github.com/ericalber/shield/session"
	"github.com/ericalber/shield/token"
)

// Shield is the configured security engine. Construct one with the Builder;
// the zero value is not usable. All methods are safe for concurrent use.
type Shield struct {
	config Config

	cipher   *crypto.Engine
	hasher   *crypto.Hasher
	sessions *session.Store
	limiter  *rate.Limiter
	fw       *firewall.Firewall
	threats  *firewall.ThreatLog
	scorer   *firewall.Scorer
	backups  *backup.Manager
	handles  *token.Manager

	auditLog   *audit.Log
	dispatcher *audit.Dispatcher
	persister  *persist.Writer
	metrics    *Metrics

	now func() time.Time

	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// Metrics returns the instance counters. The result is nil-safe to use even
// before Build completes.
func (s *Shield) Metrics() *Metrics {
	if s == nil {
		return nil
	}
	return s.metrics
}

// MetricsSnapshot returns all counters keyed by wire name.
func (s *Shield) MetricsSnapshot() map[string]uint64 {
	if s == nil {
		return map[string]uint64{}
	}
	return s.metrics.Snapshot()
}

// AuditDropped reports how many audit events were discarded because the
// delivery buffer was full.
func (s *Shield) AuditDropped() uint64 {
	if s == nil || s.dispatcher == nil {
		return 0
	}
	return s.dispatcher.Dropped()
}

// RecentAuditEntries returns up to n most recent audit entries, newest
// first.
func (s *Shield) RecentAuditEntries(n int) []AuditEntry {
	if s == nil || s.auditLog == nil {
		return nil
	}
	return toPublicEntries(s.auditLog.Recent(n))
}

// Close stops background workers, drains pending audit events and issues a
// final persistence flush. It is idempotent and safe on a nil receiver.
func (s *Shield) Close() {
	if s == nil {
		return
	}
	s.closeOnce.Do(func() {
		close(s.done)
		s.wg.Wait()
		if s.persister != nil {
			s.persister.Close()
		}
		if s.dispatcher != nil {
			s.dispatcher.Close()
		}
	})
}

// startBackground launches the maintenance loops enabled by the config.
// Each loop owns one ticker and exits when done closes.
func (s *Shield) startBackground() {
	if iv := s.config.Session.SweepInterval; iv > 0 {
		s.loop(iv, func() {
			if n := s.sessions.Sweep(); n > 0 {
				for i := 0; i < n; i++ {
					s.metrics.inc(MetricSessionSwept)
				}
			}
		})
	}
	if iv := s.config.RateLimit.CleanupInterval; iv > 0 {
		s.loop(iv, func() { s.limiter.Cleanup() })
	}
	if s.backups != nil && s.config.Backup.Interval > 0 {
		s.loop(s.config.Backup.Interval, func() {
			if _, err := s.backups.Create(); err != nil {
				s.emitAudit(auditEventBackupFailed, "", func() map[string]string {
					return map[string]string{"error": err.Error()}
				})
			} else {
				s.metrics.inc(MetricBackupCreated)
			}
		})
	}
	if s.persister != nil {
		s.persister.Start()
	}
}

func (s *Shield) loop(interval time.Duration, fn func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				fn()
			}
		}
	}()
}

// Flush forces an immediate best-effort persistence write. It never fails;
// individual write errors are counted and forwarded to the OnError hook.
func (s *Shield) Flush(ctx context.Context) {
	if s == nil || s.persister == nil {
		return
	}
	s.persister.Flush(ctx)
}

// PersistFailures reports the cumulative count of failed persistence writes.
func (s *Shield) PersistFailures() uint64 {
	if s == nil || s.persister == nil {
		return 0
	}
	return s.persister.Failures()
}
