package shield

import (
	"encoding/json"
	"time"

	"github.com/ericalber/shield/backup"
	"github.com/ericalber/shield/firewall"
	"github.com/ericalber/shield/internal/audit"
	"github.com/ericalber/shield/internal/rate"
	"github.com/ericalber/shield/session"
)

// Persistence keys. Also used as backup bundle labels so a restored backup
// and a loaded snapshot describe the same state the same way.
const (
	stateKeySessions = "state:sessions"
	stateKeyFirewall = "state:firewall"
	stateKeyThreats  = "state:threats"
	stateKeyAudit    = "state:audit"
	stateKeyRate     = "state:rate"
	stateKeyBackups  = "state:backups"
)

// sessionSource adapts the session store to the backup and persistence
// pipelines.
type sessionSource struct {
	store *session.Store
}

func (s sessionSource) Label() string { return stateKeySessions }

func (s sessionSource) Snapshot() ([]byte, error) {
	return json.Marshal(s.store.Snapshot())
}

func (s sessionSource) Restore(payload []byte) (func(), error) {
	var sessions []session.Session
	if err := json.Unmarshal(payload, &sessions); err != nil {
		return nil, err
	}
	return func() { s.store.Replace(sessions) }, nil
}

type firewallSource struct {
	fw *firewall.Firewall
}

func (s firewallSource) Label() string { return stateKeyFirewall }

func (s firewallSource) Snapshot() ([]byte, error) {
	return json.Marshal(s.fw.Snapshot())
}

func (s firewallSource) Restore(payload []byte) (func(), error) {
	var state firewall.State
	if err := json.Unmarshal(payload, &state); err != nil {
		return nil, err
	}
	return func() { s.fw.Restore(state) }, nil
}

type threatSource struct {
	log *firewall.ThreatLog
}

func (s threatSource) Label() string { return stateKeyThreats }

func (s threatSource) Snapshot() ([]byte, error) {
	return json.Marshal(s.log.Snapshot())
}

func (s threatSource) Restore(payload []byte) (func(), error) {
	var threats []firewall.Threat
	if err := json.Unmarshal(payload, &threats); err != nil {
		return nil, err
	}
	return func() { s.log.Restore(threats) }, nil
}

type auditSource struct {
	log *audit.Log
}

func (s auditSource) Label() string { return stateKeyAudit }

func (s auditSource) Snapshot() ([]byte, error) {
	return json.Marshal(s.log.Snapshot())
}

func (s auditSource) Restore(payload []byte) (func(), error) {
	var entries []audit.Entry
	if err := json.Unmarshal(payload, &entries); err != nil {
		return nil, err
	}
	return func() { s.log.Restore(entries) }, nil
}

// rateSource persists the limiter's admission windows. It is not registered
// as a backup bundle source: restoring such volatile budgets from an old
// backup would be wrong; persistence across a quick restart is not.
type rateSource struct {
	limiter *rate.Limiter
}

func (s rateSource) Label() string { return stateKeyRate }

func (s rateSource) Snapshot() ([]byte, error) {
	return json.Marshal(s.limiter.Export())
}

func (s rateSource) Restore(payload []byte) (func(), error) {
	var windows map[string][]time.Time
	if err := json.Unmarshal(payload, &windows); err != nil {
		return nil, err
	}
	return func() { s.limiter.Import(windows) }, nil
}

// historySource persists the backup history itself, so retained backups
// survive a restart alongside the state they protect. It is never part of a
// bundle (a backup does not contain itself).
type historySource struct {
	manager *backup.Manager
}

func (s historySource) Label() string { return stateKeyBackups }

func (s historySource) Snapshot() ([]byte, error) {
	return json.Marshal(s.manager.Export())
}

func (s historySource) Restore(payload []byte) (func(), error) {
	var archives []backup.Archive
	if err := json.Unmarshal(payload, &archives); err != nil {
		return nil, err
	}
	return func() { s.manager.Import(archives) }, nil
}
