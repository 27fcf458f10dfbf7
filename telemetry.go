package goPortal

import (
	"context"

	internalaudit "github.com/MrEthical07/goPortal/internal/audit"
)

// Telemetry bundles the metrics and the audit dispatcher. Hosts that run
// many Controllers share one Telemetry so exporters see a single set of
// counters; a Controller built without one owns a private instance.
type Telemetry struct {
	metrics *Metrics
	audit   *internalaudit.Dispatcher
}

// NewTelemetry creates metrics and, when cfg.Audit.Enabled, an async audit
// dispatcher delivering to sink. A nil sink disables audit.
func NewTelemetry(cfg Config, sink AuditSink) *Telemetry {
	t := &Telemetry{metrics: NewMetrics(cfg.Metrics)}
	if sink != nil {
		t.audit = internalaudit.NewDispatcher(internalaudit.Config{
			Enabled:    cfg.Audit.Enabled,
			BufferSize: cfg.Audit.BufferSize,
			DropIfFull: cfg.Audit.DropIfFull,
		}, sink)
	}
	return t
}

// Metrics returns the shared counters.
func (t *Telemetry) Metrics() *Metrics {
	if t == nil {
		return nil
	}
	return t.metrics
}

// MetricsSnapshot returns a copy of the counters.
func (t *Telemetry) MetricsSnapshot() MetricsSnapshot {
	return t.Metrics().Snapshot()
}

// AuditDropped returns the number of audit events dropped under backpressure.
func (t *Telemetry) AuditDropped() uint64 {
	if t == nil || t.audit == nil {
		return 0
	}
	return t.audit.Dropped()
}

// Close drains and stops the audit dispatcher.
func (t *Telemetry) Close() {
	if t == nil || t.audit == nil {
		return
	}
	t.audit.Close()
}

func (t *Telemetry) emit(ctx context.Context, event AuditEvent) {
	if t == nil || t.audit == nil {
		return
	}
	t.audit.Emit(ctx, event)
}
