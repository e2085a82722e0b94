// Package persist flushes in-memory store snapshots to the durable key-value
// backend on a timer. Persistence is best-effort: a failed write is counted
// and reported, never propagated back into a security decision.
package persist

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/ericalber/shield/storage"
)

// Source exports one store's state under a fixed key.
type Source struct {
	Key    string
	Export func() ([]byte, error)
}

// Config controls flush cadence and write throttling.
type Config struct {
	// Interval between background flushes.
	Interval time.Duration
	// WritesPerSecond caps the write rate against the backend. Zero means
	// no throttle.
	WritesPerSecond float64
	// OnError observes individual write failures (audit hook). May be nil.
	OnError func(key string, err error)
}

// Writer periodically exports registered sources into a [storage.KV].
// A nil Writer is a valid no-op, used when no backend is configured.
type Writer struct {
	kv        storage.KV
	config    Config
	limiter   *rate.Limiter
	sources   []Source
	failures  atomic.Uint64
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewWriter creates a [Writer]; it returns nil when kv is nil.
func NewWriter(kv storage.KV, cfg Config, sources []Source) *Writer {
	if kv == nil {
		return nil
	}
	if cfg.Interval <= 0 {
		cfg.Interval = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.WritesPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.WritesPerSecond), 1)
	}

	return &Writer{
		kv:      kv,
		config:  cfg,
		limiter: limiter,
		sources: sources,
		done:    make(chan struct{}),
	}
}

// Start launches the background flush loop.
func (w *Writer) Start() {
	if w == nil {
		return
	}
	w.wg.Add(1)
	go w.run()
}

func (w *Writer) run() {
	defer w.wg.Done()

	ticker := time.NewTicker(w.config.Interval)
	defer ticker.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.done
		cancel()
	}()

	for {
		select {
		case <-ticker.C:
			w.Flush(ctx)
		case <-w.done:
			// Final flush so a clean shutdown loses nothing.
			w.Flush(context.Background())
			return
		}
	}
}

// Flush writes every source once. Failures are counted and reported through
// OnError; Flush itself never returns an error.
func (w *Writer) Flush(ctx context.Context) {
	if w == nil {
		return
	}
	for _, source := range w.sources {
		if w.limiter != nil {
			if err := w.limiter.Wait(ctx); err != nil {
				return
			}
		}

		value, err := source.Export()
		if err == nil {
			err = w.kv.Set(ctx, source.Key, value)
		}
		if err != nil {
			w.failures.Add(1)
			if w.config.OnError != nil {
				w.config.OnError(source.Key, err)
			}
		}
	}
}

// Failures returns the total number of failed writes.
func (w *Writer) Failures() uint64 {
	if w == nil {
		return 0
	}
	return w.failures.Load()
}

// Close stops the loop after one final flush.
func (w *Writer) Close() {
	if w == nil {
		return
	}
	w.closeOnce.Do(func() {
		close(w.done)
		w.wg.Wait()
	})
}
