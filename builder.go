package shield

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ericalber/shield/backup"
	"github.com/ericalber/shield/crypto"
	"github.com/ericalber/shield/firewall"
	"github.com/ericalber/shield/internal/audit"
	"github.com/ericalber/shield/internal/persist"
	"github.com/ericalber/shield/internal/rate"
	"github.com/ericalber/shield/session"
	"github.com/ericalber/shield/storage"
	"github.com/ericalber/shield/token"
)

// Builder assembles a Shield instance. Builders are single-use: after a
// successful Build the builder must be discarded.
type Builder struct {
	config Config
	kv     storage.KV
	sink   AuditSink
	built  bool
}

// New returns a Builder preloaded with DefaultConfig.
func New() *Builder {
	return &Builder{config: DefaultConfig()}
}

// WithConfig replaces the builder's configuration wholesale.
func (b *Builder) WithConfig(cfg Config) *Builder {
	b.config = cfg
	return b
}

// WithRootSecret sets the cipher root secret without touching the rest of
// the configuration.
func (b *Builder) WithRootSecret(secret []byte) *Builder {
	b.config.Cipher.RootSecret = secret
	return b
}

// WithKV attaches a durable backend for best-effort state persistence.
// Previously persisted state is loaded during Build.
func (b *Builder) WithKV(kv storage.KV) *Builder {
	b.kv = kv
	return b
}

// WithAuditSink forwards audit entries to an external sink in addition to
// the bounded in-memory log.
func (b *Builder) WithAuditSink(sink AuditSink) *Builder {
	b.sink = sink
	return b
}

// Build validates the configuration, assembles every component and starts
// the background workers. The returned Shield must be Closed when no longer
// needed.
func (b *Builder) Build() (*Shield, error) {
	if b.built {
		return nil, errors.New("shield: builder already used")
	}
	cfg := cloneConfig(b.config)
	if err := validateConfig(cfg); err != nil {
		return nil, err
	}

	cipher, err := crypto.NewEngine(cfg.Cipher.RootSecret, crypto.Config{
		Iterations: cfg.Cipher.Iterations,
		SaltLength: cfg.Cipher.SaltLength,
	})
	if err != nil {
		return nil, fmt.Errorf("shield: cipher: %w", err)
	}
	hasher, err := crypto.NewHasher(cfg.Password)
	if err != nil {
		return nil, fmt.Errorf("shield: password hasher: %w", err)
	}

	policies := make(map[string]rate.Policy, len(cfg.RateLimit.Policies))
	for class, p := range cfg.RateLimit.Policies {
		policies[class] = rate.Policy{Limit: p.Limit, Window: p.Window}
	}
	limiter := rate.New(rate.Config{
		Policies:     policies,
		Default:      rate.Policy{Limit: cfg.RateLimit.Default.Limit, Window: cfg.RateLimit.Default.Window},
		IdleLookback: cfg.RateLimit.IdleLookback,
	})

	fw, err := firewall.New(firewall.Config{
		SuspiciousPatterns:  cfg.Firewall.SuspiciousPatterns,
		ActivityWindow:      cfg.Firewall.ActivityWindow,
		AlertThreshold:      cfg.Firewall.AlertThreshold,
		AutoBlockThreshold:  cfg.Firewall.AutoBlockThreshold,
		MaxActivityPerActor: cfg.Firewall.MaxActivityPerActor,
	})
	if err != nil {
		return nil, fmt.Errorf("shield: firewall: %w", err)
	}

	s := &Shield{
		config:   cfg,
		cipher:   cipher,
		hasher:   hasher,
		limiter:  limiter,
		fw:       fw,
		threats:  firewall.NewThreatLog(cfg.Firewall.MaxThreats),
		scorer:   newScorer(cfg.Scoring),
		metrics:  newMetrics(),
		now:      time.Now,
		done:     make(chan struct{}),
		sessions: session.NewStore(session.Config{
			Timeout:         cfg.Session.Timeout,
			RenewThreshold:  cfg.Session.RenewThreshold,
			MaxPerUser:      cfg.Session.MaxPerUser,
			BindFingerprint: cfg.Session.BindFingerprint,
		}),
	}

	if cfg.Token.Enabled {
		s.handles, err = token.NewManager(token.Config{
			Secret: cfg.Token.Secret,
			TTL:    cfg.Token.TTL,
			Issuer: cfg.Token.Issuer,
			Leeway: cfg.Token.Leeway,
		})
		if err != nil {
			return nil, fmt.Errorf("shield: session handles: %w", err)
		}
	}

	if cfg.Audit.Enabled {
		s.auditLog = audit.NewLog(cfg.Audit.LogCapacity, cfg.Audit.Retention)
		var sink audit.Sink = s.auditLog
		if b.sink != nil {
			sink = audit.NewFanOutSink(s.auditLog, sinkAdapter{sink: b.sink})
		}
		s.dispatcher = audit.NewDispatcher(audit.Config{
			Enabled:    true,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}

	bundleSources := []backup.Snapshotter{
		sessionSource{store: s.sessions},
		firewallSource{fw: s.fw},
		threatSource{log: s.threats},
	}
	if s.auditLog != nil {
		bundleSources = append(bundleSources, auditSource{log: s.auditLog})
	}

	if cfg.Backup.Enabled {
		s.backups, err = backup.NewManager(backup.Config{
			Compress:   cfg.Backup.Compress,
			Encrypt:    cfg.Backup.Encrypt,
			MaxBackups: cfg.Backup.MaxBackups,
		}, cipher)
		if err != nil {
			return nil, fmt.Errorf("shield: backups: %w", err)
		}
		for _, src := range bundleSources {
			if err := s.backups.Register(src); err != nil {
				return nil, fmt.Errorf("shield: backups: %w", err)
			}
		}
	}

	// The persistence set is wider than the bundle set: rate windows and
	// the backup history round-trip through the KV backend but never
	// appear inside a bundle.
	stateSources := append([]backup.Snapshotter(nil), bundleSources...)
	stateSources = append(stateSources, rateSource{limiter: limiter})
	if s.backups != nil {
		stateSources = append(stateSources, historySource{manager: s.backups})
	}

	if b.kv != nil {
		loadState(b.kv, stateSources)
		persistSources := make([]persist.Source, 0, len(stateSources))
		for _, src := range stateSources {
			persistSources = append(persistSources, persist.Source{
				Key:    src.Label(),
				Export: src.Snapshot,
			})
		}
		userHook := cfg.Persistence.OnError
		s.persister = persist.NewWriter(b.kv, persist.Config{
			Interval:        cfg.Persistence.Interval,
			WritesPerSecond: cfg.Persistence.WritesPerSecond,
			OnError: func(key string, err error) {
				s.metrics.inc(MetricPersistFailure)
				s.emitAudit(auditEventPersistFailure, "", func() map[string]string {
					return map[string]string{"key": key, "error": err.Error()}
				})
				if userHook != nil {
					userHook(fmt.Errorf("%w: %s: %v", ErrPersistence, key, err))
				}
			},
		}, persistSources)
	}

	s.startBackground()
	b.built = true
	return s, nil
}

// loadState restores previously persisted snapshots. Missing keys, backend
// failures and undecodable payloads are all skipped: startup state loading
// is as best-effort as the writes that produced it.
func loadState(kv storage.KV, sources []backup.Snapshotter) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	for _, src := range sources {
		payload, ok, err := kv.Get(ctx, src.Label())
		if err != nil || !ok {
			continue
		}
		apply, err := src.Restore(payload)
		if err != nil {
			continue
		}
		apply()
	}
}

func newScorer(cfg ScoringConfig) *firewall.Scorer {
	floors := map[firewall.UseCase]int{}
	if cfg.ClickFloor > 0 {
		floors[firewall.UseCaseClick] = cfg.ClickFloor
	}
	if cfg.ConversionFloor > 0 {
		floors[firewall.UseCaseConversion] = cfg.ConversionFloor
	}
	return firewall.NewScorer(firewall.ScorerConfig{
		PenaltyPerFailure: cfg.PenaltyPerFailure,
		Floors:            floors,
	})
}
