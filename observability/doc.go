// Package observability provides OpenTelemetry tracing and metrics for
// traversal execution.
//
// Tracing:
//
//	tp, err := observability.InitTracer(ctx, &cfg)
//	defer tp.Shutdown(ctx)
//
//	ctx, span := observability.StartSpan(ctx, observability.SpanSuperstep)
//	defer span.End()
//
// Metrics:
//
//	mp, err := observability.InitMeter(ctx, &cfg)
//	defer mp.Shutdown(ctx)
//
//	metrics, err := observability.NewTraversalMetrics(observability.Meter("graphstep"))
//	metrics.RecordSuperstep(ctx, 3, duration)
//
// A nil *TraversalMetrics is valid and records nothing.
package observability
