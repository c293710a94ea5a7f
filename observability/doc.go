// Package observability provides OpenTelemetry tracing and request metrics
// for the WebApi client.
//
// Until InitTracer and InitMeter install real providers, the global no-op
// providers are used and recording costs nothing.
//
//	tp, err := observability.InitTracer(ctx, observability.DefaultTracerConfig("webapictl"))
//	defer tp.Shutdown(ctx)
//
//	ctx, op := observability.StartOperation(ctx, observability.SpanHTTPRequest, "webapi", "GET tasks", metrics)
//	defer op.End(ctx, "ok", nil)
//
// Connection health reports use ServiceHealth:
//
//	health := observability.NewServiceHealth("webapi", version)
//	health.AddComponent(observability.Health{Name: "tasks", Status: observability.HealthStatusUp})
package observability
