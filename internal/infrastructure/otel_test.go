package infrastructure

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"contestlens/internal/config"
	"contestlens/pkg/contracts/domain"
)

func testOTelConfig(traces, metrics string) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: "test",
		Environment:    "test",
		TraceExporter:  traces,
		MetricExporter: metrics,
		SampleRatio:    1,
	}
}

func TestNewOTelConfig(t *testing.T) {
	cfg := NewOTelConfig(config.Default().Telemetry)
	assert.Equal(t, ServiceName, cfg.ServiceName)
	assert.Equal(t, "none", cfg.TraceExporter)
	assert.Equal(t, "prometheus", cfg.MetricExporter)
}

func TestOTelInitialization(t *testing.T) {
	tests := []struct {
		name        string
		traces      string
		metrics     string
		wantErr     string
		wantTracing bool
		wantMetrics bool
	}{
		{name: "all disabled", traces: "none", metrics: "none"},
		{name: "prometheus only", traces: "none", metrics: "prometheus", wantMetrics: true},
		{name: "stdout traces", traces: "stdout", metrics: "none", wantTracing: true},
		{name: "unknown trace exporter", traces: "zipkin", metrics: "none", wantErr: "unsupported trace exporter"},
		{name: "unknown metric exporter", traces: "none", metrics: "statsd", wantErr: "unsupported metric exporter"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			providers, err := InitializeOTel(testOTelConfig(tt.traces, tt.metrics), DiscardLogger())
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

			assert.NotNil(t, providers.Tracer)
			assert.NotNil(t, providers.Meter)
			assert.Equal(t, tt.wantTracing, providers.TracerProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.MeterProvider != nil)
			assert.Equal(t, tt.wantMetrics, providers.PrometheusHTTP != nil)
		})
	}
}

func TestPrometheusEndpoint(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig("none", "prometheus"), DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := CreateBusinessMetrics(providers.Meter)
	require.NoError(t, err)

	ctx := context.Background()
	RecordUpload(ctx, metrics, domain.FormatDelimited, 2048, domain.ParseStats{RowsRead: 12, AmountsDefaulted: 2}, nil)
	RecordFilter(ctx, metrics, true, 3*time.Millisecond)
	RecordExport(ctx, metrics, "chart", "csv", nil)
	RecordHTTPRequest(ctx, metrics, http.MethodGet, "/api/v1/dataset/records", http.StatusOK, time.Millisecond)

	rec := httptest.NewRecorder()
	providers.PrometheusHTTP.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	for _, name := range []string{
		"contest_uploads_total",
		"contest_records_parsed_total",
		"contest_amounts_defaulted_total",
		"contest_filter_requests_total",
		"contest_exports_total",
		"http_requests_total",
		"go_goroutines",
	} {
		assert.Contains(t, string(body), name)
	}
}

func TestRecordHelpersTolerateNil(t *testing.T) {
	ctx := context.Background()
	assert.NotPanics(t, func() {
		RecordUpload(ctx, nil, domain.FormatWorkbook, 1, domain.ParseStats{}, errors.New("boom"))
		RecordFilter(ctx, nil, false, 0)
		RecordExport(ctx, nil, "records", "xlsx", nil)
		RecordHTTPRequest(ctx, nil, http.MethodGet, "/", http.StatusOK, 0)
	})
}

func TestNoopBusinessMetrics(t *testing.T) {
	metrics := NoopBusinessMetrics()
	require.NotNil(t, metrics)
	assert.NotPanics(t, func() {
		RecordUpload(context.Background(), metrics, domain.FormatDelimited, 10, domain.ParseStats{RowsRead: 1}, nil)
	})
}

func TestSpanHelpers(t *testing.T) {
	providers, err := InitializeOTel(testOTelConfig("stdout", "none"), DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	ctx, span := StartSpan(context.Background(), providers.Tracer, "dataset.ingest")
	defer span.End()

	assert.True(t, span.IsRecording())
	assert.Equal(t, span.SpanContext().TraceID().String(), GetTraceID(ctx))

	assert.NotPanics(t, func() {
		AddSpanEvent(ctx, "parsed")
		RecordError(ctx, errors.New("bad row"))
		RecordError(ctx, nil)
	})

	_, fallback := StartSpan(context.Background(), nil, "global")
	fallback.End()
}
