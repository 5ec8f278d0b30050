package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"contestlens/internal/config"
	"contestlens/pkg/contracts"
	"contestlens/pkg/contracts/domain"
)

const (
	ServiceName = "contestlens"
	MeterName   = "contestlens"
)

// OTelConfig holds OpenTelemetry configuration
type OTelConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	TraceExporter  string // "stdout", "none"
	MetricExporter string // "prometheus", "none"
	SampleRatio    float64
}

// NewOTelConfig derives the OpenTelemetry setup from the telemetry section.
func NewOTelConfig(cfg config.TelemetryConfig) *OTelConfig {
	return &OTelConfig{
		ServiceName:    ServiceName,
		ServiceVersion: contracts.Version,
		Environment:    cfg.Environment,
		TraceExporter:  cfg.TraceExporter,
		MetricExporter: cfg.MetricExporter,
		SampleRatio:    cfg.SampleRatio,
	}
}

// OTelProviders holds the OpenTelemetry providers. Tracer and Meter are
// always usable; they are no-ops when the matching exporter is "none".
type OTelProviders struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Registry       *prometheus.Registry
	PrometheusHTTP http.Handler
	Logger         *slog.Logger
}

// InitializeOTel initializes tracing and metrics
func InitializeOTel(cfg *OTelConfig, logger *slog.Logger) (*OTelProviders, error) {
	if logger == nil {
		logger = GetLogger()
	}
	ctx := context.Background()

	res, err := createResource(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	providers := &OTelProviders{
		Tracer: tracenoop.NewTracerProvider().Tracer(MeterName),
		Meter:  metricnoop.NewMeterProvider().Meter(MeterName),
		Logger: logger,
	}

	if err := initializeTracing(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize tracing: %w", err)
	}

	if err := initializeMetrics(ctx, cfg, res, providers); err != nil {
		return nil, fmt.Errorf("failed to initialize metrics: %w", err)
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	logger.InfoContext(ctx, "OpenTelemetry initialized",
		slog.String("service", cfg.ServiceName),
		slog.String("version", cfg.ServiceVersion),
		slog.String("environment", cfg.Environment),
		slog.String("trace_exporter", cfg.TraceExporter),
		slog.String("metric_exporter", cfg.MetricExporter))

	return providers, nil
}

func createResource(cfg *OTelConfig) (*resource.Resource, error) {
	hostname, _ := os.Hostname()
	return resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceName(cfg.ServiceName),
		semconv.ServiceVersion(cfg.ServiceVersion),
		semconv.DeploymentEnvironmentName(cfg.Environment),
		attribute.String("service.instance.id", fmt.Sprintf("%s-%d", hostname, time.Now().Unix())),
	), nil
}

func initializeTracing(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.TraceExporter {
	case "none", "":
		return nil
	case "stdout":
	default:
		return fmt.Errorf("unsupported trace exporter: %s", cfg.TraceExporter)
	}

	exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
	if err != nil {
		return fmt.Errorf("failed to create trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRatio))),
	)

	providers.TracerProvider = tp
	providers.Tracer = tp.Tracer(MeterName, trace.WithInstrumentationVersion(cfg.ServiceVersion))
	otel.SetTracerProvider(tp)

	providers.Logger.InfoContext(ctx, "Tracing initialized",
		slog.String("exporter", cfg.TraceExporter),
		slog.Float64("sample_ratio", cfg.SampleRatio))
	return nil
}

func initializeMetrics(ctx context.Context, cfg *OTelConfig, res *resource.Resource, providers *OTelProviders) error {
	switch cfg.MetricExporter {
	case "none", "":
		return nil
	case "prometheus":
	default:
		return fmt.Errorf("unsupported metric exporter: %s", cfg.MetricExporter)
	}

	// Dedicated registry shared by the exporter and the runtime collectors
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	providers.MeterProvider = mp
	providers.Meter = mp.Meter(MeterName, metric.WithInstrumentationVersion(cfg.ServiceVersion))
	providers.Registry = registry
	providers.PrometheusHTTP = promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry})
	otel.SetMeterProvider(mp)

	providers.Logger.InfoContext(ctx, "Metrics initialized", slog.String("exporter", cfg.MetricExporter))
	return nil
}

// Shutdown flushes and stops the SDK providers
func (p *OTelProviders) Shutdown(ctx context.Context) error {
	var errs []error

	if p.TracerProvider != nil {
		if err := p.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}

	if p.MeterProvider != nil {
		if err := p.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}

	p.Logger.InfoContext(ctx, "OpenTelemetry shutdown complete")
	return nil
}

// BusinessMetrics holds all application-specific metrics
type BusinessMetrics struct {
	// HTTP metrics
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram
	HTTPActiveRequests  metric.Int64UpDownCounter

	// Ingestion metrics
	UploadsTotal     metric.Int64Counter
	UploadBytes      metric.Int64Histogram
	RecordsParsed    metric.Int64Counter
	MalformedRows    metric.Int64Counter
	AmountsDefaulted metric.Int64Counter
	InvalidDates     metric.Int64Counter

	// Query metrics
	FilterRequests metric.Int64Counter
	FilterDuration metric.Float64Histogram
	ExportsTotal   metric.Int64Counter

	// Push metrics
	WebSocketClients metric.Int64UpDownCounter
	EventsPublished  metric.Int64Counter
}

// CreateBusinessMetrics creates application-specific metrics
func CreateBusinessMetrics(meter metric.Meter) (*BusinessMetrics, error) {
	var (
		m    BusinessMetrics
		errs []error
	)

	counter := func(name, desc string, opts ...metric.Int64CounterOption) metric.Int64Counter {
		c, err := meter.Int64Counter(name, append(opts, metric.WithDescription(desc))...)
		errs = append(errs, err)
		return c
	}

	m.HTTPRequestsTotal = counter("http_requests_total", "Total number of HTTP requests")
	m.HTTPRequestDuration, _ = recordHistogram(meter, &errs, "http_request_duration_seconds", "HTTP request duration in seconds")
	m.HTTPActiveRequests, _ = recordUpDown(meter, &errs, "http_active_requests", "Number of active HTTP requests")

	m.UploadsTotal = counter("contest_uploads_total", "Total number of contest history uploads")
	uploadBytes, err := meter.Int64Histogram("contest_upload_size_bytes",
		metric.WithDescription("Size of uploaded contest history files"),
		metric.WithUnit("By"))
	errs = append(errs, err)
	m.UploadBytes = uploadBytes
	m.RecordsParsed = counter("contest_records_parsed_total", "Total number of contest records parsed")
	m.MalformedRows = counter("contest_malformed_rows_total", "Total number of rows dropped as malformed")
	m.AmountsDefaulted = counter("contest_amounts_defaulted_total", "Total number of unparsable amounts read as zero")
	m.InvalidDates = counter("contest_invalid_dates_total", "Total number of records without a usable contest date")

	m.FilterRequests = counter("contest_filter_requests_total", "Total number of record table queries")
	m.FilterDuration, _ = recordHistogram(meter, &errs, "contest_filter_duration_seconds", "Record table query duration in seconds")
	m.ExportsTotal = counter("contest_exports_total", "Total number of exports")

	m.WebSocketClients, _ = recordUpDown(meter, &errs, "websocket_clients", "Number of connected websocket clients")
	m.EventsPublished = counter("websocket_events_published_total", "Total number of events broadcast to clients")

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return &m, nil
}

func recordHistogram(meter metric.Meter, errs *[]error, name, desc string) (metric.Float64Histogram, error) {
	h, err := meter.Float64Histogram(name, metric.WithDescription(desc), metric.WithUnit("s"))
	*errs = append(*errs, err)
	return h, err
}

func recordUpDown(meter metric.Meter, errs *[]error, name, desc string) (metric.Int64UpDownCounter, error) {
	c, err := meter.Int64UpDownCounter(name, metric.WithDescription(desc))
	*errs = append(*errs, err)
	return c, err
}

// NoopBusinessMetrics returns metrics that record nothing.
func NoopBusinessMetrics() *BusinessMetrics {
	m, _ := CreateBusinessMetrics(metricnoop.NewMeterProvider().Meter(MeterName))
	return m
}

func statusAttr(err error) attribute.KeyValue {
	if err != nil {
		return attribute.String("status", "failure")
	}
	return attribute.String("status", "success")
}

// RecordHTTPRequest records one finished HTTP request
func RecordHTTPRequest(ctx context.Context, metrics *BusinessMetrics, method, route string, status int, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(
		semconv.HTTPRequestMethodKey.String(method),
		semconv.HTTPRouteKey.String(route),
		semconv.HTTPResponseStatusCode(status),
	)
	metrics.HTTPRequestsTotal.Add(ctx, 1, attrs)
	metrics.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordUpload records the outcome of one ingestion
func RecordUpload(ctx context.Context, metrics *BusinessMetrics, format domain.FileFormat, size int64, stats domain.ParseStats, err error) {
	if metrics == nil {
		return
	}
	formatAttr := attribute.String("format", string(format))
	metrics.UploadsTotal.Add(ctx, 1, metric.WithAttributes(formatAttr, statusAttr(err)))
	if size > 0 {
		metrics.UploadBytes.Record(ctx, size, metric.WithAttributes(formatAttr))
	}
	if err != nil {
		return
	}
	metrics.RecordsParsed.Add(ctx, int64(stats.RowsRead), metric.WithAttributes(formatAttr))
	metrics.MalformedRows.Add(ctx, int64(stats.MalformedRows), metric.WithAttributes(formatAttr))
	metrics.AmountsDefaulted.Add(ctx, int64(stats.AmountsDefaulted), metric.WithAttributes(formatAttr))
	metrics.InvalidDates.Add(ctx, int64(stats.InvalidDates), metric.WithAttributes(formatAttr))
}

// RecordFilter records one record table query
func RecordFilter(ctx context.Context, metrics *BusinessMetrics, filtered bool, duration time.Duration) {
	if metrics == nil {
		return
	}
	attrs := metric.WithAttributes(attribute.Bool("filtered", filtered))
	metrics.FilterRequests.Add(ctx, 1, attrs)
	metrics.FilterDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordExport records one export
func RecordExport(ctx context.Context, metrics *BusinessMetrics, kind, format string, err error) {
	if metrics == nil {
		return
	}
	metrics.ExportsTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("format", format),
		statusAttr(err),
	))
}

// StartSpan starts a span on tracer, falling back to the global provider.
func StartSpan(ctx context.Context, tracer trace.Tracer, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	if tracer == nil {
		tracer = otel.Tracer(MeterName)
	}
	return tracer.Start(ctx, name, trace.WithAttributes(attrs...))
}

// RecordError records an error on the current span
func RecordError(ctx context.Context, err error, options ...trace.EventOption) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}

	span.RecordError(err, options...)
	span.SetStatus(codes.Error, err.Error())
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() {
		return
	}
	span.AddEvent(name, trace.WithAttributes(attrs...))
}
