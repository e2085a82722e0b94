package shield

import (
	"errors"
	"fmt"
	"time"

	"github.com/ericalber/shield/crypto"
)

// Built-in action classes used by the default rate-limit policy set.
// Callers may define additional classes; unknown classes fall back to the
// default policy.
const (
	ActionLogin    = "login"
	ActionAPI      = "api"
	ActionDownload = "download"
)

// RatePolicy bounds one action class: at most Limit events per actor within
// a sliding Window.
type RatePolicy struct {
	Limit  int
	Window time.Duration
}

// CipherConfig controls key derivation and envelope encryption.
type CipherConfig struct {
	// RootSecret is the secret all per-envelope keys are derived from.
	// Required.
	RootSecret []byte
	// Iterations is the PBKDF2 iteration count. Values below the crypto
	// package floor are rejected at Build time.
	Iterations int
	// SaltLength is the per-envelope salt size in bytes.
	SaltLength int
}

// SessionConfig controls the session store.
type SessionConfig struct {
	Timeout         time.Duration
	RenewThreshold  time.Duration
	MaxPerUser      int
	BindFingerprint bool
	// SweepInterval is how often expired sessions are purged in the
	// background. Zero disables the sweeper; expired sessions are still
	// rejected lazily on validation.
	SweepInterval time.Duration
}

// RateLimitConfig controls the sliding-window limiter.
type RateLimitConfig struct {
	// Policies maps action classes to their budgets. Classes absent from
	// the map use Default.
	Policies map[string]RatePolicy
	Default  RatePolicy
	// CleanupInterval is how often idle windows are dropped. Zero
	// disables the background janitor.
	CleanupInterval time.Duration
	// IdleLookback bounds how long an empty window is remembered before
	// cleanup removes it.
	IdleLookback time.Duration
}

// FirewallConfig controls request screening and auto-blocking.
type FirewallConfig struct {
	// SuspiciousPatterns overrides the built-in pattern set when non-nil.
	// Each entry must be a valid regular expression.
	SuspiciousPatterns []string
	ActivityWindow     time.Duration
	AlertThreshold     int
	AutoBlockThreshold int
	// MaxActivityPerActor bounds the per-actor suspicious event history.
	MaxActivityPerActor int
	// MaxThreats bounds the threat ring buffer.
	MaxThreats int
}

// ScoringConfig controls traffic-quality scoring.
type ScoringConfig struct {
	PenaltyPerFailure int
	ClickFloor        int
	ConversionFloor   int
}

// BackupConfig controls the backup manager.
type BackupConfig struct {
	Enabled  bool
	Compress bool
	Encrypt  bool
	// Interval is how often automatic backups run. Zero disables the
	// timer; CreateBackup remains available on demand.
	Interval   time.Duration
	MaxBackups int
}

// TokenConfig controls signed session handles. Handles are optional; with
// Enabled false callers present raw session IDs instead.
type TokenConfig struct {
	Enabled bool
	// Secret signs handles. Required when Enabled; at least 32 bytes.
	Secret []byte
	TTL    time.Duration
	Issuer string
	Leeway time.Duration
}

// AuditConfig controls the bounded audit log and asynchronous delivery.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	// DropIfFull drops events when the buffer is saturated instead of
	// blocking callers. Drops are counted.
	DropIfFull  bool
	LogCapacity int
	Retention   time.Duration
}

// PersistenceConfig controls best-effort snapshots to the configured
// storage.KV backend. It is ignored when no backend is attached.
type PersistenceConfig struct {
	Interval time.Duration
	// WritesPerSecond throttles snapshot writes. Zero means unthrottled.
	WritesPerSecond float64
	// OnError is invoked with ErrPersistence-wrapped failures. Optional.
	OnError func(error)
}

// Config carries every tunable of a Shield instance. The zero value is not
// usable; start from DefaultConfig and override fields as needed. Configs
// are treated as immutable once passed to the Builder.
type Config struct {
	Cipher      CipherConfig
	Password    crypto.PasswordConfig
	Session     SessionConfig
	RateLimit   RateLimitConfig
	Firewall    FirewallConfig
	Scoring     ScoringConfig
	Backup      BackupConfig
	Token       TokenConfig
	Audit       AuditConfig
	Persistence PersistenceConfig
}

// DefaultConfig returns the recommended production baseline. The cipher
// root secret and, when handles are enabled, the token secret must still be
// supplied by the caller.
func DefaultConfig() Config {
	return Config{
		Cipher: CipherConfig{
			Iterations: 100_000,
			SaltLength: 16,
		},
		Password: crypto.PasswordConfig{
			Memory:      64 * 1024,
			Time:        3,
			Parallelism: 2,
			SaltLength:  16,
			KeyLength:   32,
		},
		Session: SessionConfig{
			Timeout:         30 * time.Minute,
			RenewThreshold:  5 * time.Minute,
			MaxPerUser:      3,
			BindFingerprint: true,
			SweepInterval:   time.Minute,
		},
		RateLimit: RateLimitConfig{
			Policies: map[string]RatePolicy{
				ActionLogin:    {Limit: 5, Window: 15 * time.Minute},
				ActionAPI:      {Limit: 100, Window: time.Minute},
				ActionDownload: {Limit: 50, Window: time.Hour},
			},
			Default:         RatePolicy{Limit: 100, Window: time.Minute},
			CleanupInterval: 5 * time.Minute,
			IdleLookback:    time.Hour,
		},
		Firewall: FirewallConfig{
			ActivityWindow:      5 * time.Minute,
			AlertThreshold:      5,
			AutoBlockThreshold:  10,
			MaxActivityPerActor: 100,
			MaxThreats:          1000,
		},
		Scoring: ScoringConfig{
			PenaltyPerFailure: 20,
			ClickFloor:        60,
			ConversionFloor:   70,
		},
		Backup: BackupConfig{
			Enabled:    true,
			Compress:   true,
			Encrypt:    true,
			Interval:   6 * time.Hour,
			MaxBackups: 10,
		},
		Token: TokenConfig{
			TTL:    30 * time.Minute,
			Issuer: "shield",
			Leeway: 30 * time.Second,
		},
		Audit: AuditConfig{
			Enabled:     true,
			BufferSize:  256,
			DropIfFull:  true,
			LogCapacity: 10_000,
			Retention:   30 * 24 * time.Hour,
		},
		Persistence: PersistenceConfig{
			Interval:        30 * time.Second,
			WritesPerSecond: 50,
		},
	}
}

func validateConfig(c Config) error {
	if len(c.Cipher.RootSecret) == 0 {
		return errors.New("shield: cipher root secret is required")
	}
	if c.Session.Timeout <= 0 {
		return errors.New("shield: session timeout must be positive")
	}
	if c.Session.RenewThreshold < 0 || c.Session.RenewThreshold >= c.Session.Timeout {
		return errors.New("shield: session renew threshold must be shorter than the timeout")
	}
	if c.Session.MaxPerUser <= 0 {
		return errors.New("shield: session max per user must be positive")
	}
	if c.RateLimit.Default.Limit <= 0 || c.RateLimit.Default.Window <= 0 {
		return errors.New("shield: default rate policy must have a positive limit and window")
	}
	for class, p := range c.RateLimit.Policies {
		if p.Limit <= 0 || p.Window <= 0 {
			return fmt.Errorf("shield: rate policy %q must have a positive limit and window", class)
		}
	}
	if c.Firewall.ActivityWindow <= 0 {
		return errors.New("shield: firewall activity window must be positive")
	}
	if c.Firewall.AutoBlockThreshold < c.Firewall.AlertThreshold {
		return errors.New("shield: auto-block threshold must be at least the alert threshold")
	}
	if c.Scoring.PenaltyPerFailure < 0 {
		return errors.New("shield: scoring penalty must not be negative")
	}
	if c.Backup.Enabled && c.Backup.MaxBackups <= 0 {
		return errors.New("shield: backup retention must be positive")
	}
	if c.Token.Enabled {
		if len(c.Token.Secret) < 32 {
			return errors.New("shield: token secret must be at least 32 bytes")
		}
		if c.Token.TTL <= 0 {
			return errors.New("shield: token TTL must be positive")
		}
	}
	if c.Audit.Enabled && c.Audit.LogCapacity <= 0 {
		return errors.New("shield: audit log capacity must be positive")
	}
	return nil
}

// cloneConfig deep-copies the parts of a Config that callers could mutate
// after Build.
func cloneConfig(c Config) Config {
	out := c
	out.Cipher.RootSecret = append([]byte(nil), c.Cipher.RootSecret...)
	out.Token.Secret = append([]byte(nil), c.Token.Secret...)
	if c.RateLimit.Policies != nil {
		out.RateLimit.Policies = make(map[string]RatePolicy, len(c.RateLimit.Policies))
		for class, p := range c.RateLimit.Policies {
			out.RateLimit.Policies[class] = p
		}
	}
	out.Firewall.SuspiciousPatterns = append([]string(nil), c.Firewall.SuspiciousPatterns...)
	return out
}
