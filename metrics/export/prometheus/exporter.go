package prometheus

import (
	"net/http"
	"sort"
	"strconv"
	"strings"

	shield "github.com/ericalber/shield"
)

type metricsSource interface {
	MetricsSnapshot() map[string]uint64
	AuditDropped() uint64
}

// Exporter renders shield metrics in Prometheus text exposition format.
type Exporter struct {
	source metricsSource
}

// NewExporter creates an exporter that reads from the given [shield.Shield].
func NewExporter(sh *shield.Shield) *Exporter {
	return &Exporter{source: sh}
}

// NewExporterFromSource creates an exporter from a custom source.
func NewExporterFromSource(source metricsSource) *Exporter {
	return &Exporter{source: source}
}

// Handler returns an http.Handler that serves the current metrics.
func (e *Exporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_, _ = w.Write([]byte(e.Render()))
	})
}

// Render writes the current counters in Prometheus text exposition format,
// sorted by name so the output is stable.
func (e *Exporter) Render() string {
	if e == nil || e.source == nil {
		return ""
	}

	snapshot := e.source.MetricsSnapshot()
	names := make([]string, 0, len(snapshot))
	for name := range snapshot {
		names = append(names, name)
	}
	sort.Strings(names)

	var b strings.Builder
	b.Grow(4096)
	for _, name := range names {
		writeCounter(&b, "shield_"+name+"_total", snapshot[name])
	}
	writeCounter(&b, "shield_audit_dropped_total", e.source.AuditDropped())
	return b.String()
}

func writeCounter(b *strings.Builder, name string, value uint64) {
	b.WriteString("# TYPE ")
	b.WriteString(name)
	b.WriteString(" counter\n")
	b.WriteString(name)
	b.WriteByte(' ')
	b.WriteString(strconv.FormatUint(value, 10))
	b.WriteByte('\n')
}
