// Package prometheus renders goPortal counters and the guard latency
// histogram in Prometheus text exposition format.
//
// Counter names are prefixed goportal_ and end in _total; the histogram is
// goportal_guard_latency_seconds. Callers mount [PrometheusExporter.Handler]
// themselves; nothing is registered globally.
package prometheus
