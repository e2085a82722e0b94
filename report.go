package shield

import (
	"time"

	"github.com/ericalber/shield/backup"
	"github.com/ericalber/shield/firewall"
)

// SessionReport summarizes session store state.
type SessionReport struct {
	Active          int  `json:"active"`
	MaxPerUser      int  `json:"max_per_user"`
	BindFingerprint bool `json:"bind_fingerprint"`
}

// RateLimitReport summarizes limiter state.
type RateLimitReport struct {
	TrackedWindows int                   `json:"tracked_windows"`
	Policies       map[string]RatePolicy `json:"policies"`
}

// FirewallReport summarizes the block list and thresholds.
type FirewallReport struct {
	BlockedActors      []string `json:"blocked_actors"`
	AlertThreshold     int      `json:"alert_threshold"`
	AutoBlockThreshold int      `json:"auto_block_threshold"`
}

// ThreatReport summarizes the threat ring.
type ThreatReport struct {
	Active int               `json:"active"`
	Recent []firewall.Threat `json:"recent"`
}

// BackupReport summarizes backup history.
type BackupReport struct {
	Enabled bool           `json:"enabled"`
	Count   int            `json:"count"`
	Last    *backup.Record `json:"last,omitempty"`
}

// PersistenceReport summarizes the best-effort persistence channel.
type PersistenceReport struct {
	Enabled  bool   `json:"enabled"`
	Failures uint64 `json:"failures"`
}

// SecurityReport is a point-in-time aggregate of the engine's security
// posture, suitable for dashboards and operator tooling.
type SecurityReport struct {
	GeneratedAt  time.Time         `json:"generated_at"`
	Sessions     SessionReport     `json:"sessions"`
	RateLimits   RateLimitReport   `json:"rate_limits"`
	Firewall     FirewallReport    `json:"firewall"`
	Threats      ThreatReport      `json:"threats"`
	Backups      BackupReport      `json:"backups"`
	Persistence  PersistenceReport `json:"persistence"`
	AuditDropped uint64            `json:"audit_dropped"`
	RecentAudit  []AuditEntry      `json:"recent_audit,omitempty"`
	Metrics      map[string]uint64 `json:"metrics"`
}

// Report assembles a SecurityReport. Each store is snapshotted under its
// own lock; the report as a whole is not one atomic cut.
func (s *Shield) Report() SecurityReport {
	if s == nil {
		return SecurityReport{}
	}
	policies := make(map[string]RatePolicy, len(s.config.RateLimit.Policies))
	for class, p := range s.config.RateLimit.Policies {
		policies[class] = p
	}
	report := SecurityReport{
		GeneratedAt: s.now(),
		Sessions: SessionReport{
			Active:          len(s.sessions.ListActive()),
			MaxPerUser:      s.config.Session.MaxPerUser,
			BindFingerprint: s.config.Session.BindFingerprint,
		},
		RateLimits: RateLimitReport{
			TrackedWindows: s.limiter.TrackedWindows(),
			Policies:       policies,
		},
		Firewall: FirewallReport{
			BlockedActors:      s.fw.BlockedActors(),
			AlertThreshold:     s.config.Firewall.AlertThreshold,
			AutoBlockThreshold: s.config.Firewall.AutoBlockThreshold,
		},
		Threats: ThreatReport{
			Active: s.threats.ActiveCount(),
			Recent: s.threats.Recent(10),
		},
		Persistence: PersistenceReport{
			Enabled:  s.persister != nil,
			Failures: s.PersistFailures(),
		},
		AuditDropped: s.AuditDropped(),
		RecentAudit:  s.RecentAuditEntries(20),
		Metrics:      s.metrics.Snapshot(),
	}
	if s.backups != nil {
		records := s.backups.List()
		report.Backups = BackupReport{Enabled: true, Count: len(records)}
		if len(records) > 0 {
			last := records[len(records)-1]
			report.Backups.Last = &last
		}
	}
	return report
}
