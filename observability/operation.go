package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Operation tracks a single traced and measured call.
type Operation struct {
	Service   string
	Name      string
	StartTime time.Time
	Metrics   *Metrics
	span      trace.Span
}

// StartOperation opens a span named spanName and records the request start.
// A nil metrics skips metric recording.
func StartOperation(ctx context.Context, spanName, service, name string, metrics *Metrics, attrs ...attribute.KeyValue) (context.Context, *Operation) {
	ctx, span := StartSpan(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	span.SetAttributes(
		attribute.String(AttrServiceName, service),
		attribute.String(AttrOperationName, name),
	)
	span.SetAttributes(attrs...)

	op := &Operation{
		Service:   service,
		Name:      name,
		StartTime: time.Now(),
		Metrics:   metrics,
		span:      span,
	}
	if metrics != nil {
		metrics.RecordRequestStart(ctx)
	}
	return ctx, op
}

// Span returns the operation span.
func (op *Operation) Span() trace.Span {
	return op.span
}

// End closes the span and records request-end metrics.
func (op *Operation) End(ctx context.Context, status string, err error) {
	duration := time.Since(op.StartTime)

	if err != nil {
		op.span.RecordError(err)
		op.span.SetStatus(codes.Error, err.Error())
		op.span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
	}
	op.span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	op.span.End()

	if op.Metrics != nil {
		op.Metrics.RecordRequestEnd(ctx, op.Service, op.Name, status, duration)
	}
}

// Duration returns the elapsed time since the operation started.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}
