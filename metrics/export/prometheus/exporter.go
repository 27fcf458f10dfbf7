package prometheus

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	goPortal "github.com/MrEthical07/goPortal"
	"github.com/MrEthical07/goPortal/metrics/export/internaldefs"
)

type metricsSource interface {
	MetricsSnapshot() goPortal.MetricsSnapshot
	AuditDropped() uint64
}

var helpEscaper = strings.NewReplacer(`\`, `\\`, "\n", `\n`)

// PrometheusExporter renders portal metrics in Prometheus text exposition
// format.
type PrometheusExporter struct {
	source metricsSource
}

// NewPrometheusExporter creates an exporter reading the shared
// [goPortal.Telemetry] of a host.
func NewPrometheusExporter(t *goPortal.Telemetry) *PrometheusExporter {
	return &PrometheusExporter{source: t}
}

// NewPrometheusExporterFromSource creates an exporter from any snapshot
// source, such as a single [goPortal.Controller].
func NewPrometheusExporterFromSource(source metricsSource) *PrometheusExporter {
	return &PrometheusExporter{source: source}
}

// Handler serves the rendered metrics.
func (p *PrometheusExporter) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; version=0.0.4; charset=utf-8")
		_ = p.Encode(w)
	})
}

// Render returns the current metrics. Disabled metrics render nothing.
func (p *PrometheusExporter) Render() string {
	var buf bytes.Buffer
	_ = p.Encode(&buf)
	return buf.String()
}

// Encode writes one snapshot to w.
func (p *PrometheusExporter) Encode(w io.Writer) error {
	if p == nil || p.source == nil {
		return nil
	}
	snap := p.source.MetricsSnapshot()
	dropped := p.source.AuditDropped()
	if len(snap.Counters) == 0 && len(snap.Histograms) == 0 && dropped == 0 {
		return nil
	}

	ew := &errWriter{w: w}
	for _, def := range internaldefs.CounterDefs {
		ew.counter(def.Name, def.Help, snap.Counters[def.ID])
	}
	for _, def := range internaldefs.HistogramDefs {
		ew.histogram(def.Name, def.Help, internaldefs.CumulativeBuckets(internaldefs.NormalizeBuckets(snap.Histograms[def.ID])))
	}
	ew.counter(internaldefs.AuditDroppedName, internaldefs.AuditDroppedHelp, dropped)
	return ew.err
}

// errWriter keeps the first write error and skips the rest.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...any) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}

func (e *errWriter) header(name, help, kind string) {
	e.printf("# HELP %s %s\n# TYPE %s %s\n", name, helpEscaper.Replace(help), name, kind)
}

func (e *errWriter) counter(name, help string, value uint64) {
	e.header(name, help, "counter")
	e.printf("%s %d\n", name, value)
}

func (e *errWriter) histogram(name, help string, cumulative [8]uint64) {
	e.header(name, help, "histogram")
	for i, le := range internaldefs.HistogramBounds {
		e.printf("%s_bucket{le=%q} %d\n", name, le, cumulative[i])
	}
	e.printf("%s_count %d\n", name, cumulative[len(cumulative)-1])
	// Snapshots carry bucket counts only.
	e.printf("%s_sum 0\n", name)
}
