package otel

import (
	"context"
	"sync"
	"testing"

	goPortal "github.com/MrEthical07/goPortal"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

type fakeSource struct {
	mu       sync.RWMutex
	snapshot goPortal.MetricsSnapshot
	dropped  uint64
}

func (f *fakeSource) MetricsSnapshot() goPortal.MetricsSnapshot {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := goPortal.MetricsSnapshot{
		Counters:   make(map[goPortal.MetricID]uint64, len(f.snapshot.Counters)),
		Histograms: make(map[goPortal.MetricID][]uint64, len(f.snapshot.Histograms)),
	}
	for k, v := range f.snapshot.Counters {
		out.Counters[k] = v
	}
	for k, buckets := range f.snapshot.Histograms {
		next := make([]uint64, len(buckets))
		copy(next, buckets)
		out.Histograms[k] = next
	}
	return out
}

func (f *fakeSource) AuditDropped() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.dropped
}

func TestExporterRegistersAndCollects(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goportal-test")

	src := &fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters: map[goPortal.MetricID]uint64{
				goPortal.MetricLoginSuccess: 3,
			},
			Histograms: map[goPortal.MetricID][]uint64{
				goPortal.MetricGuardLatency: {1, 1, 1, 1, 1, 1, 1, 1},
			},
		},
		dropped: 1,
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}
	if len(rm.ScopeMetrics) == 0 {
		t.Fatal("expected collected metrics, got none")
	}
}

func TestExporterRejectsNilSource(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goportal-test")

	if _, err := NewOTelExporterFromSource(meter, nil); err == nil {
		t.Fatal("expected error for nil source")
	}
}

func TestExporterConcurrentCollectNoPanic(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goportal-test")

	src := &fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters: map[goPortal.MetricID]uint64{
				goPortal.MetricLoginSuccess: 1,
			},
			Histograms: map[goPortal.MetricID][]uint64{
				goPortal.MetricGuardLatency: {1, 0, 0, 0, 0, 0, 0, 0},
			},
		},
	}

	exp, err := NewOTelExporterFromSource(meter, src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer func() {
		if err := exp.Close(); err != nil {
			t.Fatalf("Close failed: %v", err)
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(v uint64) {
			defer wg.Done()
			src.mu.Lock()
			src.snapshot.Counters[goPortal.MetricLoginSuccess] = v
			src.mu.Unlock()

			var rm metricdata.ResourceMetrics
			_ = reader.Collect(context.Background(), &rm)
		}(uint64(i + 1))
	}
	wg.Wait()
}

func TestExporterFromTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	meter := provider.Meter("goportal-test")

	cfg := goPortal.DefaultConfig()
	cfg.Metrics.Enabled = true
	tel := goPortal.NewTelemetry(cfg, nil)
	defer tel.Close()
	tel.Metrics().Inc(goPortal.MetricGuardRender)

	exp, err := NewOTelExporter(meter, tel)
	if err != nil {
		t.Fatalf("NewOTelExporter failed: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	found := false
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != "goportal_guard_render_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok || len(sum.DataPoints) != 1 || sum.DataPoints[0].Value != 1 {
				t.Fatalf("unexpected data for %s: %+v", m.Name, m.Data)
			}
			found = true
		}
	}
	if !found {
		t.Fatal("guard render counter not collected")
	}

	if _, err := NewOTelExporter(meter, nil); err == nil {
		t.Fatal("expected error for nil telemetry")
	}
}

func TestExporterReportsCumulativeBuckets(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	src := &fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Histograms: map[goPortal.MetricID][]uint64{
				goPortal.MetricGuardLatency: {2, 0, 1, 0, 0, 0, 0, 1},
			},
		},
	}
	exp, err := NewOTelExporterFromSource(provider.Meter("goportal-test"), src)
	if err != nil {
		t.Fatalf("NewOTelExporterFromSource failed: %v", err)
	}
	defer exp.Close()

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect failed: %v", err)
	}

	byBound := map[string]int64{}
	var count int64 = -1
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			g, ok := m.Data.(metricdata.Gauge[int64])
			if !ok {
				continue
			}
			switch m.Name {
			case "goportal_guard_latency_seconds_bucket":
				for _, dp := range g.DataPoints {
					le, _ := dp.Attributes.Value("le")
					byBound[le.AsString()] = dp.Value
				}
			case "goportal_guard_latency_seconds_count":
				count = g.DataPoints[0].Value
			}
		}
	}
	if len(byBound) != 8 || byBound["0.005"] != 2 || byBound["0.025"] != 3 || byBound["+Inf"] != 4 {
		t.Fatalf("unexpected buckets %v", byBound)
	}
	if count != 4 {
		t.Fatalf("expected count 4, got %d", count)
	}
}
