package prometheus

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	goPortal "github.com/MrEthical07/goPortal"
)

type fakeSource struct {
	snapshot goPortal.MetricsSnapshot
	dropped  uint64
}

func (f fakeSource) MetricsSnapshot() goPortal.MetricsSnapshot { return f.snapshot }
func (f fakeSource) AuditDropped() uint64                    { return f.dropped }

func TestRenderEmptyWhenMetricsDisabled(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters:   map[goPortal.MetricID]uint64{},
			Histograms: map[goPortal.MetricID][]uint64{},
		},
		dropped: 0,
	})

	if got := exp.Render(); got != "" {
		t.Fatalf("expected empty output for disabled metrics, got:\n%s", got)
	}
}

func TestRenderDeterministicIncludesCounterAndHistogram(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters: map[goPortal.MetricID]uint64{
				goPortal.MetricLoginSuccess: 7,
			},
			Histograms: map[goPortal.MetricID][]uint64{
				goPortal.MetricGuardLatency: {1, 2, 3, 4, 5, 6, 7, 8},
			},
		},
		dropped: 2,
	})

	out := exp.Render()
	if !strings.Contains(out, "goportal_login_success_total 7") {
		t.Fatalf("expected login_success counter in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goportal_guard_latency_seconds_bucket{le=\"0.005\"} 1") {
		t.Fatalf("expected first histogram bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goportal_guard_latency_seconds_bucket{le=\"+Inf\"} 36") {
		t.Fatalf("expected +Inf cumulative bucket in output, got:\n%s", out)
	}
	if !strings.Contains(out, "goportal_audit_dropped_total 2") {
		t.Fatalf("expected audit dropped counter in output, got:\n%s", out)
	}
}

func TestHandlerWritesPrometheusContentType(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters:   map[goPortal.MetricID]uint64{goPortal.MetricLoginSuccess: 1},
			Histograms: map[goPortal.MetricID][]uint64{},
		},
	})

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	exp.Handler().ServeHTTP(rec, req)

	if got := rec.Header().Get("Content-Type"); !strings.Contains(got, "text/plain") {
		t.Fatalf("expected prometheus content type, got %q", got)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}

func TestRenderFromTelemetry(t *testing.T) {
	cfg := goPortal.DefaultConfig()
	cfg.Metrics.Enabled = true
	tel := goPortal.NewTelemetry(cfg, nil)
	defer tel.Close()
	tel.Metrics().Inc(goPortal.MetricLogout)
	tel.Metrics().Inc(goPortal.MetricLogout)

	out := NewPrometheusExporter(tel).Render()
	if !strings.Contains(out, "goportal_logout_total 2") {
		t.Fatalf("expected logout counter, got:\n%s", out)
	}
	if !strings.Contains(out, "# TYPE goportal_guard_render_total counter") {
		t.Fatalf("expected type line, got:\n%s", out)
	}
}

func BenchmarkRender(b *testing.B) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters: map[goPortal.MetricID]uint64{
				goPortal.MetricLoginSuccess:       1000,
				goPortal.MetricLoginFailure:       40,
				goPortal.MetricGuardRender:        9000,
				goPortal.MetricGuardRedirectLogin: 300,
				goPortal.MetricSidebarToggle:      120,
				goPortal.MetricLogout:             900,
			},
			Histograms: map[goPortal.MetricID][]uint64{
				goPortal.MetricGuardLatency: {10, 20, 30, 40, 50, 60, 70, 80},
			},
		},
		dropped: 0,
	})

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = exp.Render()
	}
}

type failingWriter struct{ writes int }

func (f *failingWriter) Write(p []byte) (int, error) {
	f.writes++
	return 0, errors.New("closed")
}

func TestEncodeStopsAtFirstError(t *testing.T) {
	exp := NewPrometheusExporterFromSource(fakeSource{
		snapshot: goPortal.MetricsSnapshot{
			Counters: map[goPortal.MetricID]uint64{goPortal.MetricLoginSuccess: 1},
		},
	})
	w := &failingWriter{}
	if err := exp.Encode(w); err == nil {
		t.Fatal("expected write error")
	}
	if w.writes != 1 {
		t.Fatalf("expected a single write attempt, got %d", w.writes)
	}
}
