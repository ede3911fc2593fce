package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/cascade-run/cascade/core"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.17.0"
	"go.opentelemetry.io/otel/trace"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// OTelProvider implements core.Telemetry on top of OpenTelemetry. The cascade
// executor starts one span per Execute call and one span per tier attempt
// through it (the attempt spans are not parented to the Execute span), and
// records the cascade.* metrics declared in metrics.go.
type OTelProvider struct {
	tracer         trace.Tracer
	traceProvider  *sdktrace.TracerProvider
	metricProvider *sdkmetric.MeterProvider
	metrics        *MetricInstruments
	logger         core.Logger

	shutdownOnce sync.Once
	mu           sync.RWMutex
	shutdown     bool
}

// ProviderOptions configures NewOTelProvider.
type ProviderOptions struct {
	ServiceName string
	// CollectorEndpoint is an OTLP/gRPC endpoint, e.g. "localhost:4317". When
	// empty the provider exports to stdout, which is the right default for
	// local development and the cascade-demo command.
	CollectorEndpoint string
	Logger            core.Logger
}

// NewOTelProvider builds a tracer and meter pair exporting either to an
// OTLP/gRPC collector (CollectorEndpoint set) or to stdout.
func NewOTelProvider(ctx context.Context, opts ProviderOptions) (*OTelProvider, error) {
	if opts.ServiceName == "" {
		return nil, fmt.Errorf("telemetry: service name is required")
	}
	logger := opts.Logger
	if logger == nil {
		logger = &core.NoOpLogger{}
	}

	res := resource.NewWithAttributes(
		semconv.SchemaURL,
		semconv.ServiceNameKey.String(opts.ServiceName),
	)

	var traceOpt sdktrace.TracerProviderOption
	var metricOpt sdkmetric.Option

	if opts.CollectorEndpoint != "" {
		traceExporter, err := otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(opts.CollectorEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: create OTLP trace exporter: %w", err)
		}
		metricExporter, err := otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(opts.CollectorEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return nil, fmt.Errorf("telemetry: create OTLP metric exporter: %w", err)
		}
		traceOpt = sdktrace.WithBatcher(traceExporter)
		metricOpt = sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second)))
		logger.Info("telemetry provider using OTLP/gRPC collector", map[string]interface{}{
			"endpoint": opts.CollectorEndpoint,
		})
	} else {
		traceExporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return nil, fmt.Errorf("telemetry: create stdout trace exporter: %w", err)
		}
		metricExporter, err := stdoutmetric.New()
		if err != nil {
			return nil, fmt.Errorf("telemetry: create stdout metric exporter: %w", err)
		}
		traceOpt = sdktrace.WithBatcher(traceExporter)
		metricOpt = sdkmetric.WithReader(sdkmetric.NewPeriodicReader(metricExporter, sdkmetric.WithInterval(15*time.Second)))
		logger.Info("telemetry provider using stdout exporters", nil)
	}

	tp := sdktrace.NewTracerProvider(traceOpt, sdktrace.WithResource(res))
	mp := sdkmetric.NewMeterProvider(metricOpt, sdkmetric.WithResource(res))

	return &OTelProvider{
		tracer:         tp.Tracer("cascade"),
		traceProvider:  tp,
		metricProvider: mp,
		metrics:        newMetricInstruments(mp.Meter("cascade")),
		logger:         logger,
	}, nil
}

// StartSpan implements core.Telemetry.
func (o *OTelProvider) StartSpan(ctx context.Context, name string) (context.Context, core.Span) {
	o.mu.RLock()
	closed := o.shutdown
	o.mu.RUnlock()
	if closed || o.tracer == nil {
		return ctx, &core.NoOpSpan{}
	}
	ctx, span := o.tracer.Start(ctx, name)
	return ctx, &otelSpan{span: span}
}

// RecordMetric implements core.Telemetry, routing by name suffix to the
// appropriate OTel instrument kind. "duration" metrics become histograms,
// everything else a counter.
func (o *OTelProvider) RecordMetric(name string, value float64, labels map[string]string) {
	o.mu.RLock()
	closed := o.shutdown
	o.mu.RUnlock()
	if closed || o.metrics == nil {
		return
	}

	ctx := context.Background()
	attrs := make([]attribute.KeyValue, 0, len(labels))
	for k, v := range labels {
		attrs = append(attrs, attribute.String(k, v))
	}

	if isDurationMetric(name) {
		_ = o.metrics.RecordHistogram(ctx, name, value, metric.WithAttributes(attrs...))
		return
	}
	_ = o.metrics.RecordCounter(ctx, name, int64(value), metric.WithAttributes(attrs...))
}

func isDurationMetric(name string) bool {
	for _, suffix := range []string{"duration", "latency"} {
		if len(name) >= len(suffix) && name[len(name)-len(suffix):] == suffix {
			return true
		}
	}
	return false
}

// Shutdown flushes and closes the trace and metric providers. Safe to call
// more than once.
func (o *OTelProvider) Shutdown(ctx context.Context) error {
	var shutdownErr error
	o.shutdownOnce.Do(func() {
		o.mu.Lock()
		o.shutdown = true
		o.mu.Unlock()

		var errs []error
		if o.metricProvider != nil {
			if err := o.metricProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if o.traceProvider != nil {
			if err := o.traceProvider.Shutdown(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		if len(errs) > 0 {
			shutdownErr = fmt.Errorf("telemetry: shutdown errors: %v", errs)
		}
	})
	return shutdownErr
}

// otelSpan adapts trace.Span to core.Span.
type otelSpan struct {
	span trace.Span
}

func (s *otelSpan) End() { s.span.End() }

func (s *otelSpan) SetAttribute(key string, value interface{}) {
	switch v := value.(type) {
	case string:
		s.span.SetAttributes(attribute.String(key, v))
	case int:
		s.span.SetAttributes(attribute.Int(key, v))
	case int64:
		s.span.SetAttributes(attribute.Int64(key, v))
	case float64:
		s.span.SetAttributes(attribute.Float64(key, v))
	case bool:
		s.span.SetAttributes(attribute.Bool(key, v))
	default:
		s.span.SetAttributes(attribute.String(key, fmt.Sprintf("%v", v)))
	}
}

func (s *otelSpan) RecordError(err error) { s.span.RecordError(err) }
