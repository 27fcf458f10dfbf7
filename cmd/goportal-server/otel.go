package main

import (
	"context"
	"errors"
	"net/http"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	goPortal "github.com/MrEthical07/goPortal"
	portalotel "github.com/MrEthical07/goPortal/metrics/export/otel"
)

// otelMetrics is an in-process MeterProvider read on demand. The host ships
// no OTLP exporter; the JSON view lets a collector sidecar or a developer
// read what the instruments report.
type otelMetrics struct {
	reader   *sdkmetric.ManualReader
	provider *sdkmetric.MeterProvider
	exporter *portalotel.OTelExporter
}

func newOTelMetrics(t *goPortal.Telemetry) (*otelMetrics, error) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	exporter, err := portalotel.NewOTelExporter(provider.Meter("github.com/MrEthical07/goPortal"), t)
	if err != nil {
		_ = provider.Shutdown(context.Background())
		return nil, err
	}
	return &otelMetrics{reader: reader, provider: provider, exporter: exporter}, nil
}

type otelPoint struct {
	Attributes map[string]string `json:"attributes,omitempty"`
	Value      int64             `json:"value"`
}

type otelInstrument struct {
	Name        string      `json:"name"`
	Description string      `json:"description,omitempty"`
	Kind        string      `json:"kind"`
	Points      []otelPoint `json:"points"`
}

func (m *otelMetrics) collect(ctx context.Context) ([]otelInstrument, error) {
	var rm metricdata.ResourceMetrics
	if err := m.reader.Collect(ctx, &rm); err != nil {
		return nil, err
	}
	var out []otelInstrument
	for _, sm := range rm.ScopeMetrics {
		for _, md := range sm.Metrics {
			ins := otelInstrument{Name: md.Name, Description: md.Description}
			var points []metricdata.DataPoint[int64]
			switch data := md.Data.(type) {
			case metricdata.Sum[int64]:
				ins.Kind = "counter"
				points = data.DataPoints
			case metricdata.Gauge[int64]:
				ins.Kind = "gauge"
				points = data.DataPoints
			default:
				continue
			}
			for _, dp := range points {
				p := otelPoint{Value: dp.Value}
				if dp.Attributes.Len() > 0 {
					p.Attributes = make(map[string]string, dp.Attributes.Len())
					for _, kv := range dp.Attributes.ToSlice() {
						p.Attributes[string(kv.Key)] = kv.Value.Emit()
					}
				}
				ins.Points = append(ins.Points, p)
			}
			out = append(out, ins)
		}
	}
	return out, nil
}

func (m *otelMetrics) handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		instruments, err := m.collect(r.Context())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "collect_failed")
			return
		}
		writeJSON(w, http.StatusOK, map[string][]otelInstrument{"instruments": instruments})
	})
}

func (m *otelMetrics) close(ctx context.Context) error {
	return errors.Join(m.exporter.Close(), m.provider.Shutdown(ctx))
}
