package goPortal

import (
	"sync"
	"testing"
	"time"
)

func TestMetricsDisabledNoIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: false})
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 0 {
		t.Fatalf("expected 0, got %d", got)
	}
}

func TestMetricsEnabledIncrement(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)
	m.Inc(MetricLoginSuccess)

	if got := m.Value(MetricLoginSuccess); got != 3 {
		t.Fatalf("expected 3, got %d", got)
	}
}

func TestMetricsConcurrentIncrementSafe(t *testing.T) {
	m := NewMetrics(MetricsConfig{Enabled: true})

	const goroutines = 32
	const perG = 4000

	var wg sync.WaitGroup
	wg.Add(goroutines)
	for i := 0; i < goroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < perG; j++ {
				m.Inc(MetricGuardRender)
			}
		}()
	}
	wg.Wait()

	want := uint64(goroutines * perG)
	if got := m.Value(MetricGuardRender); got != want {
		t.Fatalf("expected %d, got %d", want, got)
	}
}

func TestMetricsHistogramBucketCorrectness(t *testing.T) {
	m := NewMetrics(MetricsConfig{
		Enabled:                 true,
		EnableLatencyHistograms: true,
	})

	observations := []time.Duration{
		5 * time.Millisecond,
		10 * time.Millisecond,
		25 * time.Millisecond,
		50 * time.Millisecond,
		100 * time.Millisecond,
		250 * time.Millisecond,
		500 * time.Millisecond,
		700 * time.Millisecond,
	}

	for _, d := range observations {
		m.Observe(MetricGuardLatency, d)
	}
	// Only the guard latency has a histogram.
	m.Observe(MetricLoginSuccess, time.Millisecond)

	snap := m.Snapshot()
	buckets := snap.Histograms[MetricGuardLatency]
	if len(buckets) != 8 {
		t.Fatalf("expected 8 buckets, got %d", len(buckets))
	}
	for i, v := range buckets {
		if v != 1 {
			t.Fatalf("bucket %d expected 1, got %d", i, v)
		}
	}
	if _, ok := snap.Histograms[MetricLoginSuccess]; ok {
		t.Fatal("unexpected histogram for counter metric")
	}
}

func TestControllerRecordsGuardMetrics(t *testing.T) {
	h := newHarness(t, func(b *Builder) { b.WithLatencyHistograms(true) })
	ctx := t.Context()

	_, _ = h.ctrl.Enter(ctx, protectedPage("/admin/dashboard.html"))
	_, _ = h.ctrl.Enter(ctx, loginPage())
	_, _ = h.ctrl.Login(ctx, "admin@ulilamwal.sch.id", "admin123", "admin")
	_, _ = h.ctrl.Enter(ctx, loginPage())

	snap := h.ctrl.MetricsSnapshot()
	if snap.Counters[MetricGuardRedirectLogin] != 1 ||
		snap.Counters[MetricGuardRender] != 1 ||
		snap.Counters[MetricGuardRedirectDashboard] != 1 ||
		snap.Counters[MetricLoginSuccess] != 1 {
		t.Fatalf("unexpected counters %+v", snap.Counters)
	}

	var samples uint64
	for _, v := range snap.Histograms[MetricGuardLatency] {
		samples += v
	}
	if samples != 3 {
		t.Fatalf("expected 3 latency samples, got %d", samples)
	}
}
