package observability

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ISearcher/Rest4WebApi/logger"
)

// TracerConfig selects the trace exporter and sampling.
type TracerConfig struct {
	Identity
	Export
	// SampleRate is clamped to [0, 1]; 0 drops every trace.
	SampleRate float64
}

// DefaultTracerConfig samples everything and exports to a local collector.
func DefaultTracerConfig(serviceName string) TracerConfig {
	return TracerConfig{Identity: identityFor(serviceName), Export: localExport(), SampleRate: 1}
}

func (c TracerConfig) exporterOptions() []otlptracehttp.Option {
	opts := []otlptracehttp.Option{otlptracehttp.WithEndpoint(c.Endpoint)}
	if c.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}
	return opts
}

// InitTracer installs a batching OTLP tracer provider and the W3C trace
// context and baggage propagators as the process globals. Callers own the
// returned provider and must shut it down to flush pending spans.
func InitTracer(ctx context.Context, config TracerConfig) (*sdktrace.TracerProvider, error) {
	res, err := config.Resource()
	if err != nil {
		return nil, fmt.Errorf("observability: trace resource: %w", err)
	}
	exp, err := otlptracehttp.New(ctx, config.exporterOptions()...)
	if err != nil {
		return nil, fmt.Errorf("observability: trace exporter: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(config.SampleRate)),
		sdktrace.WithBatcher(exp),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("tracing enabled", logger.Fields(
		"service", config.ServiceName,
		"collector", config.Endpoint,
		"sample_rate", config.SampleRate,
	))
	return tp, nil
}

func samplerFor(rate float64) sdktrace.Sampler {
	if rate >= 1 {
		return sdktrace.AlwaysSample()
	}
	if rate <= 0 {
		return sdktrace.NeverSample()
	}
	return sdktrace.TraceIDRatioBased(rate)
}

// StartSpan starts a span on the module tracer of the global provider.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(InstrumentationName).Start(ctx, name, opts...)
}

// SetSpanError records err on the span carried by ctx, if it is recording.
func SetSpanError(ctx context.Context, err error) {
	if span := trace.SpanFromContext(ctx); span.IsRecording() {
		span.RecordError(err)
	}
}

// SpanHTTPRequest names the span of one HTTP exchange.
const SpanHTTPRequest = "http.request"

// Span attribute keys. The HTTP ones follow the OpenTelemetry semantic
// conventions.
const (
	AttrServiceName   = "service.name"
	AttrOperationName = "operation.name"
	AttrHTTPMethod    = "http.request.method"
	AttrURL           = "url.full"
	AttrHTTPStatus    = "http.response.status_code"
	AttrDurationMs    = "duration_ms"
	AttrStatus        = "status"
	AttrErrorMessage  = "error.message"
)
