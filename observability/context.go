package observability

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	apperrors "github.com/kbukum/graphstep/errors"
)

// Operation tracks the span and timing of one traversal submission.
type Operation struct {
	ServiceName   string
	OperationName string
	Mode          string
	Workers       int
	StartTime     time.Time
	Metrics       *TraversalMetrics
}

// NewOperation creates a new operation. If metrics is nil, metric recording
// is skipped.
func NewOperation(serviceName, operationName, mode string, workers int, metrics *TraversalMetrics) *Operation {
	return &Operation{
		ServiceName:   serviceName,
		OperationName: operationName,
		Mode:          mode,
		Workers:       workers,
		StartTime:     time.Now(),
		Metrics:       metrics,
	}
}

type operationKey struct{}

// WithOperation stores an Operation in the context.
func WithOperation(ctx context.Context, op *Operation) context.Context {
	return context.WithValue(ctx, operationKey{}, op)
}

// OperationFromContext retrieves the Operation from context, or nil.
func OperationFromContext(ctx context.Context) *Operation {
	if op, ok := ctx.Value(operationKey{}).(*Operation); ok {
		return op
	}
	return nil
}

// Start starts a span for the operation and stores the operation in the
// returned context.
func (op *Operation) Start(ctx context.Context, spanName string) (context.Context, trace.Span) {
	ctx, span := StartSpan(WithOperation(ctx, op), spanName)
	span.SetAttributes(
		attribute.String(AttrServiceName, op.ServiceName),
		attribute.String(AttrOperationName, op.OperationName),
		attribute.String(AttrMode, op.Mode),
		attribute.Int(AttrWorkers, op.Workers),
	)
	return ctx, span
}

// End ends the span. A non-nil err is recorded on the span and counted.
func (op *Operation) End(ctx context.Context, span trace.Span, err error) {
	duration := time.Since(op.StartTime)
	status := "ok"
	if err != nil {
		status = "error"
		span.RecordError(err)
		span.SetAttributes(attribute.String(AttrErrorMessage, err.Error()))
		op.Metrics.RecordError(ctx, errorCode(err), op.OperationName)
	}

	span.SetAttributes(
		attribute.String(AttrStatus, status),
		attribute.Int64(AttrDurationMs, duration.Milliseconds()),
	)
	span.End()
}

// Duration returns the elapsed time since operation start.
func (op *Operation) Duration() time.Duration {
	return time.Since(op.StartTime)
}

func errorCode(err error) string {
	if appErr, ok := apperrors.AsAppError(err); ok {
		return string(appErr.Code)
	}
	return string(apperrors.ErrCodeInternal)
}
