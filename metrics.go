package goPortal

import (
	"sync/atomic"
	"time"
)

// MetricID identifies one counter or histogram.
type MetricID uint16

const (
	// MetricLoginSuccess counts logins that produced a session record.
	MetricLoginSuccess MetricID = iota
	// MetricLoginFailure counts credential mismatches.
	MetricLoginFailure
	// MetricLoginRejected counts submissions rejected before lookup.
	MetricLoginRejected
	// MetricCredentialsUnavailable counts failed credential lookups.
	MetricCredentialsUnavailable
	// MetricLogout counts logouts.
	MetricLogout
	// MetricGuardRender counts page entries allowed to render.
	MetricGuardRender
	// MetricGuardRedirectLogin counts unauthenticated entries sent to login.
	MetricGuardRedirectLogin
	// MetricGuardRedirectDashboard counts authenticated login-page entries
	// sent to the role dashboard.
	MetricGuardRedirectDashboard
	// MetricGuardUnmappedRole counts records whose role has no dashboard.
	MetricGuardUnmappedRole
	// MetricSessionCorrupt counts undecodable session records.
	MetricSessionCorrupt
	// MetricSidebarToggle counts sidebar toggles.
	MetricSidebarToggle
	// MetricFormSubmitted counts async form submissions started.
	MetricFormSubmitted
	// MetricDestructiveConfirmed counts accepted destructive actions.
	MetricDestructiveConfirmed
	// MetricDestructiveDeclined counts declined destructive actions.
	MetricDestructiveDeclined
	// MetricGuardLatency is the page-entry latency histogram.
	MetricGuardLatency
	metricIDCount
)

const (
	histBucketCount = 8
	cacheLineSize   = 64
)

type metricHistogram struct {
	buckets [histBucketCount]uint64
}

type paddedCounter struct {
	value uint64
	_     [cacheLineSize - 8]byte
}

// Metrics is a fixed set of lock-free counters plus the guard latency
// histogram. A single Metrics may be shared by many Controllers.
type Metrics struct {
	enabled       bool
	enableLatency bool
	counters      [metricIDCount]paddedCounter
	histograms    [metricIDCount]metricHistogram
}

// MetricsSnapshot is a point-in-time copy of every counter and histogram.
type MetricsSnapshot struct {
	Counters   map[MetricID]uint64
	Histograms map[MetricID][]uint64
}

// NewMetrics creates metrics. Disabled metrics ignore every update.
func NewMetrics(cfg MetricsConfig) *Metrics {
	return &Metrics{
		enabled:       cfg.Enabled,
		enableLatency: cfg.Enabled && cfg.EnableLatencyHistograms,
	}
}

// Enabled reports whether counters are recorded.
func (m *Metrics) Enabled() bool {
	return m != nil && m.enabled
}

// LatencyEnabled reports whether the latency histogram is recorded.
func (m *Metrics) LatencyEnabled() bool {
	return m != nil && m.enableLatency
}

// Inc increments a counter. Safe for concurrent use.
func (m *Metrics) Inc(id MetricID) {
	if m == nil || !m.enabled || id >= metricIDCount {
		return
	}
	atomic.AddUint64(&m.counters[id].value, 1)
}

// Observe records a latency sample. Only MetricGuardLatency has a histogram.
func (m *Metrics) Observe(id MetricID, d time.Duration) {
	if m == nil || !m.enabled || !m.enableLatency || id >= metricIDCount {
		return
	}
	if id != MetricGuardLatency {
		return
	}

	b := bucketIndex(d)
	atomic.AddUint64(&m.histograms[id].buckets[b], 1)
}

// Value returns the current value of a counter.
func (m *Metrics) Value(id MetricID) uint64 {
	if m == nil || id >= metricIDCount {
		return 0
	}
	return atomic.LoadUint64(&m.counters[id].value)
}

// Snapshot copies every counter and, when enabled, the latency histogram.
// Disabled metrics return empty maps.
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil || !m.enabled {
		return MetricsSnapshot{
			Counters:   map[MetricID]uint64{},
			Histograms: map[MetricID][]uint64{},
		}
	}

	s := MetricsSnapshot{
		Counters:   make(map[MetricID]uint64, int(metricIDCount)),
		Histograms: make(map[MetricID][]uint64, 1),
	}

	for id := MetricID(0); id < metricIDCount; id++ {
		s.Counters[id] = atomic.LoadUint64(&m.counters[id].value)
	}

	if m.enableLatency {
		buckets := make([]uint64, histBucketCount)
		for i := 0; i < histBucketCount; i++ {
			buckets[i] = atomic.LoadUint64(&m.histograms[MetricGuardLatency].buckets[i])
		}
		s.Histograms[MetricGuardLatency] = buckets
	}

	return s
}

func bucketIndex(d time.Duration) int {
	ms := d.Milliseconds()

	switch {
	case ms <= 5:
		return 0
	case ms <= 10:
		return 1
	case ms <= 25:
		return 2
	case ms <= 50:
		return 3
	case ms <= 100:
		return 4
	case ms <= 250:
		return 5
	case ms <= 500:
		return 6
	default:
		return 7
	}
}
