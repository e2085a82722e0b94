package backup

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/klauspost/compress/gzip"

	"github.com/ericalber/shield/crypto"
)

var (
	// ErrNotFound is returned when no backup record matches the requested ID.
	ErrNotFound = errors.New("backup not found")
	// ErrIntegrity is returned when a backup payload cannot be reversed
	// through the pipeline or does not cover every registered source.
	// Restoration aborts without mutating any state.
	ErrIntegrity = errors.New("backup integrity check failed")
)

// Snapshotter defines a public type used by shield APIs.
//
// Snapshotter is implemented by each store whose state participates in
// backups. Restore must replace state atomically.
type Snapshotter interface {
	Label() string
	Snapshot() ([]byte, error)
	// Restore decodes and validates payload without touching live state,
	// returning the apply step. Apply must not fail: restoration across
	// sources is all-or-nothing, and every payload is decoded before any
	// apply runs.
	Restore(payload []byte) (apply func(), err error)
}

// Config holds backup manager tuning parameters.
type Config struct {
	// Compress gzips the bundle before (optional) encryption.
	Compress bool
	// Encrypt seals the bundle with the cipher engine.
	Encrypt bool
	// MaxBackups bounds the history; the oldest record is evicted past it.
	MaxBackups int
}

// Record defines a public type used by shield APIs.
//
// Record describes one retained backup. The payload itself is not exported.
type Record struct {
	ID         string    `json:"id"`
	Timestamp  time.Time `json:"timestamp"`
	Size       int       `json:"size"`
	Compressed bool      `json:"compressed"`
	Encrypted  bool      `json:"encrypted"`
}

type stored struct {
	record  Record
	payload []byte
}

// Manager defines a public type used by shield APIs.
//
// Manager instances are safe for concurrent use. Sources must all be
// registered before the first Create.
type Manager struct {
	mu      sync.Mutex
	config  Config
	cipher  *crypto.Engine
	sources []Snapshotter
	history []stored
	now     func() time.Time
}

// NewManager creates a backup [Manager]. A cipher engine is required when
// Config.Encrypt is set.
func NewManager(cfg Config, cipher *crypto.Engine) (*Manager, error) {
	if cfg.Encrypt && cipher == nil {
		return nil, errors.New("encrypted backups require a cipher engine")
	}
	if cfg.MaxBackups <= 0 {
		cfg.MaxBackups = 10
	}
	return &Manager{config: cfg, cipher: cipher, now: time.Now}, nil
}

// Register adds a snapshot source. Labels must be unique.
func (m *Manager) Register(source Snapshotter) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, existing := range m.sources {
		if existing.Label() == source.Label() {
			return fmt.Errorf("duplicate backup source %q", source.Label())
		}
	}
	m.sources = append(m.sources, source)
	return nil
}

// Create snapshots every registered source and appends a record to the
// history, evicting the oldest past the cap.
func (m *Manager) Create() (Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	bundle := make(map[string]json.RawMessage, len(m.sources))
	for _, source := range m.sources {
		payload, err := source.Snapshot()
		if err != nil {
			return Record{}, fmt.Errorf("snapshot %q: %w", source.Label(), err)
		}
		bundle[source.Label()] = payload
	}

	data, err := json.Marshal(bundle)
	if err != nil {
		return Record{}, err
	}

	if m.config.Compress {
		if data, err = gzipBytes(data); err != nil {
			return Record{}, err
		}
	}
	if m.config.Encrypt {
		env, err := m.cipher.EncryptBytes(data, nil)
		if err != nil {
			return Record{}, err
		}
		if data, err = json.Marshal(env); err != nil {
			return Record{}, err
		}
	}

	record := Record{
		ID:         uuid.NewString(),
		Timestamp:  m.now(),
		Size:       len(data),
		Compressed: m.config.Compress,
		Encrypted:  m.config.Encrypt,
	}
	m.history = append(m.history, stored{record: record, payload: data})
	if overflow := len(m.history) - m.config.MaxBackups; overflow > 0 {
		m.history = append([]stored(nil), m.history[overflow:]...)
	}

	return record, nil
}

// Restore reverses the pipeline for the identified backup — decrypt, then
// decompress — and applies the recovered state to every registered source.
// The bundle is fully decoded and checked against the sources before any of
// them is touched.
func (m *Manager) Restore(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var entry *stored
	for i := range m.history {
		if m.history[i].record.ID == id {
			entry = &m.history[i]
			break
		}
	}
	if entry == nil {
		return ErrNotFound
	}

	data := entry.payload
	if entry.record.Encrypted {
		var env crypto.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		plaintext, err := m.cipher.DecryptBytes(&env, nil)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		data = plaintext
	}
	if entry.record.Compressed {
		plain, err := gunzipBytes(data)
		if err != nil {
			return fmt.Errorf("%w: %v", ErrIntegrity, err)
		}
		data = plain
	}

	var bundle map[string]json.RawMessage
	if err := json.Unmarshal(data, &bundle); err != nil {
		return fmt.Errorf("%w: %v", ErrIntegrity, err)
	}

	// Stage first: every registered source must be covered and must decode
	// before any state is mutated.
	applies := make([]func(), len(m.sources))
	for i, source := range m.sources {
		payload, ok := bundle[source.Label()]
		if !ok {
			return fmt.Errorf("%w: missing source %q", ErrIntegrity, source.Label())
		}
		apply, err := source.Restore(payload)
		if err != nil {
			return fmt.Errorf("%w: decode %q: %v", ErrIntegrity, source.Label(), err)
		}
		applies[i] = apply
	}

	for _, apply := range applies {
		apply()
	}
	return nil
}

// Archive couples a record with its sealed payload so the retained history
// can round-trip through the persistence backend.
type Archive struct {
	Record  Record `json:"record"`
	Payload []byte `json:"payload"`
}

// Export returns the retained history, oldest first.
func (m *Manager) Export() []Archive {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Archive, len(m.history))
	for i := range m.history {
		payload := make([]byte, len(m.history[i].payload))
		copy(payload, m.history[i].payload)
		out[i] = Archive{Record: m.history[i].record, Payload: payload}
	}
	return out
}

// Import replaces the history with previously exported archives, trimming
// the oldest past the retention cap.
func (m *Manager) Import(archives []Archive) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if overflow := len(archives) - m.config.MaxBackups; overflow > 0 {
		archives = archives[overflow:]
	}
	m.history = make([]stored, len(archives))
	for i, a := range archives {
		payload := make([]byte, len(a.Payload))
		copy(payload, a.Payload)
		m.history[i] = stored{record: a.Record, payload: payload}
	}
}

// List returns the retained records, oldest first.
func (m *Manager) List() []Record {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]Record, len(m.history))
	for i := range m.history {
		out[i] = m.history[i].record
	}
	return out
}

func gzipBytes(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
