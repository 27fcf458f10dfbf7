// Package otel exposes goPortal counters and the guard latency histogram as
// OpenTelemetry observable instruments.
//
// Each counter becomes an Int64ObservableCounter. A histogram becomes two
// gauges: "<name>_bucket" reporting cumulative counts under an "le"
// attribute, and "<name>_count". One callback reads the snapshot per
// collection. The caller owns the MeterProvider and passes in a Meter.
package otel
