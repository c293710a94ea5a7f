package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"

	"github.com/ISearcher/Rest4WebApi/logger"
)

// Instrument names.
const (
	MetricRequestTotal    = "request.total"
	MetricRequestDuration = "request.duration"
	MetricRequestActive   = "request.active"
	MetricErrorTotal      = "error.total"
)

// MeterConfig selects the metric exporter and its push interval.
type MeterConfig struct {
	Identity
	Export
	// Interval between pushes; zero keeps the SDK default of one minute.
	Interval time.Duration
}

// DefaultMeterConfig pushes to a local collector every 15 seconds.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{Identity: identityFor(serviceName), Export: localExport(), Interval: 15 * time.Second}
}

func (c MeterConfig) exporterOptions() []otlpmetrichttp.Option {
	opts := []otlpmetrichttp.Option{otlpmetrichttp.WithEndpoint(c.Endpoint)}
	if c.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}
	return opts
}

func (c MeterConfig) readerOptions() []sdkmetric.PeriodicReaderOption {
	if c.Interval <= 0 {
		return nil
	}
	return []sdkmetric.PeriodicReaderOption{sdkmetric.WithInterval(c.Interval)}
}

// InitMeter installs a periodic OTLP meter provider as the process global.
// Callers own the returned provider and must shut it down to flush.
func InitMeter(ctx context.Context, config MeterConfig) (*sdkmetric.MeterProvider, error) {
	res, err := config.Resource()
	if err != nil {
		return nil, fmt.Errorf("observability: metric resource: %w", err)
	}
	exp, err := otlpmetrichttp.New(ctx, config.exporterOptions()...)
	if err != nil {
		return nil, fmt.Errorf("observability: metric exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exp, config.readerOptions()...)),
	)
	otel.SetMeterProvider(mp)

	logger.Info("metrics enabled", logger.Fields(
		"service", config.ServiceName,
		"collector", config.Endpoint,
		"interval", config.Interval.String(),
	))
	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// Metrics records HTTP exchanges made by the client.
type Metrics struct {
	total    metric.Int64Counter
	duration metric.Float64Histogram
	active   metric.Int64UpDownCounter
	failures metric.Int64Counter
}

// NewMetrics registers the request instruments on meter.
func NewMetrics(meter metric.Meter) (*Metrics, error) {
	var (
		m   Metrics
		err error
	)
	if m.total, err = meter.Int64Counter(MetricRequestTotal,
		metric.WithDescription("Completed requests by service, method and status")); err != nil {
		return nil, fmt.Errorf("observability: %s: %w", MetricRequestTotal, err)
	}
	if m.duration, err = meter.Float64Histogram(MetricRequestDuration,
		metric.WithDescription("Request latency"), metric.WithUnit("s")); err != nil {
		return nil, fmt.Errorf("observability: %s: %w", MetricRequestDuration, err)
	}
	if m.active, err = meter.Int64UpDownCounter(MetricRequestActive,
		metric.WithDescription("Requests in flight")); err != nil {
		return nil, fmt.Errorf("observability: %s: %w", MetricRequestActive, err)
	}
	if m.failures, err = meter.Int64Counter(MetricErrorTotal,
		metric.WithDescription("Failed requests by error kind and component")); err != nil {
		return nil, fmt.Errorf("observability: %s: %w", MetricErrorTotal, err)
	}
	return &m, nil
}

// RecordRequestStart marks a request as in flight.
func (m *Metrics) RecordRequestStart(ctx context.Context) {
	m.active.Add(ctx, 1)
}

// RecordRequestEnd closes a request opened with RecordRequestStart.
func (m *Metrics) RecordRequestEnd(ctx context.Context, service, method, status string, duration time.Duration) {
	call := attribute.NewSet(attribute.String("service", service), attribute.String("method", method))
	m.active.Add(ctx, -1)
	m.duration.Record(ctx, duration.Seconds(), metric.WithAttributeSet(call))
	m.total.Add(ctx, 1, metric.WithAttributes(append(call.ToSlice(), attribute.String("status", status))...))
}

// RecordError counts one failure of the given kind.
func (m *Metrics) RecordError(ctx context.Context, kind, component string) {
	m.failures.Add(ctx, 1, metric.WithAttributes(
		attribute.String("kind", kind),
		attribute.String("component", component),
	))
}
