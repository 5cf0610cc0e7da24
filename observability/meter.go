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

	"github.com/kbukum/graphstep/logger"
)

// MeterConfig configures the OpenTelemetry meter provider.
type MeterConfig struct {
	// ServiceName is the name of the service.
	ServiceName string
	// ServiceVersion is the version of the service.
	ServiceVersion string
	// Environment is the deployment environment (dev, staging, prod).
	Environment string
	// Endpoint is the OTLP HTTP endpoint host:port (e.g., "localhost:4318").
	Endpoint string
	// Insecure allows insecure connections (for development).
	Insecure bool
	// Interval is the metric export interval.
	Interval time.Duration
}

// DefaultMeterConfig returns sensible defaults for development.
func DefaultMeterConfig(serviceName string) MeterConfig {
	return MeterConfig{
		ServiceName:    serviceName,
		ServiceVersion: "1.0.0",
		Environment:    "development",
		Endpoint:       "localhost:4318",
		Insecure:       true,
		Interval:       15 * time.Second,
	}
}

// InitMeter initializes the OpenTelemetry meter provider.
// Returns a MeterProvider that should be shut down on application exit.
func InitMeter(ctx context.Context, config *MeterConfig) (*sdkmetric.MeterProvider, error) {
	opts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpoint(config.Endpoint),
	}
	if config.Insecure {
		opts = append(opts, otlpmetrichttp.WithInsecure())
	}

	exporter, err := otlpmetrichttp.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating metric exporter: %w", err)
	}

	res, err := newResource(config.ServiceName, config.ServiceVersion, config.Environment)
	if err != nil {
		return nil, fmt.Errorf("creating resource: %w", err)
	}

	readerOpts := []sdkmetric.PeriodicReaderOption{}
	if config.Interval > 0 {
		readerOpts = append(readerOpts, sdkmetric.WithInterval(config.Interval))
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter, readerOpts...)),
		sdkmetric.WithResource(res),
	)

	otel.SetMeterProvider(mp)

	logger.Info("meter initialized", logger.Fields(
		"service", config.ServiceName,
		"endpoint", config.Endpoint,
		"interval", config.Interval.String(),
	))

	return mp, nil
}

// Meter returns a named meter from the global provider.
func Meter(name string) metric.Meter {
	return otel.Meter(name)
}

// TraversalMetrics holds the instruments recorded by the traversal executors.
// A nil *TraversalMetrics records nothing.
type TraversalMetrics struct {
	traverserProcessed metric.Int64Counter
	superstepDuration  metric.Float64Histogram
	mapreduceDuration  metric.Float64Histogram
	errorTotal         metric.Int64Counter
}

// NewTraversalMetrics creates metric instruments on the given meter.
func NewTraversalMetrics(meter metric.Meter) (*TraversalMetrics, error) {
	traverserProcessed, err := meter.Int64Counter("traverser.processed",
		metric.WithDescription("Traversers processed by a step, by worker"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating traverser.processed counter: %w", err)
	}

	superstepDuration, err := meter.Float64Histogram("superstep.duration",
		metric.WithDescription("Duration of supersteps in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating superstep.duration histogram: %w", err)
	}

	mapreduceDuration, err := meter.Float64Histogram("mapreduce.duration",
		metric.WithDescription("Duration of side-effect map/reduce jobs in seconds"),
		metric.WithUnit("s"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating mapreduce.duration histogram: %w", err)
	}

	errorTotal, err := meter.Int64Counter("error.total",
		metric.WithDescription("Total errors by code and component"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating error.total counter: %w", err)
	}

	return &TraversalMetrics{
		traverserProcessed: traverserProcessed,
		superstepDuration:  superstepDuration,
		mapreduceDuration:  mapreduceDuration,
		errorTotal:         errorTotal,
	}, nil
}

// RecordProcessed adds n processed traversers for a worker.
func (m *TraversalMetrics) RecordProcessed(ctx context.Context, worker int, n int64) {
	if m == nil {
		return
	}
	m.traverserProcessed.Add(ctx, n, metric.WithAttributes(
		attribute.Int("worker", worker),
	))
}

// RecordSuperstep records the duration of one superstep.
func (m *TraversalMetrics) RecordSuperstep(ctx context.Context, superstep int, duration time.Duration) {
	if m == nil {
		return
	}
	m.superstepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.Int("superstep", superstep),
	))
}

// RecordMapReduce records the duration of the job merging one side effect.
func (m *TraversalMetrics) RecordMapReduce(ctx context.Context, sideEffect string, duration time.Duration) {
	if m == nil {
		return
	}
	m.mapreduceDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("side_effect", sideEffect),
	))
}

// RecordError records an error by code and component.
func (m *TraversalMetrics) RecordError(ctx context.Context, code, component string) {
	if m == nil {
		return
	}
	m.errorTotal.Add(ctx, 1, metric.WithAttributes(
		attribute.String("code", code),
		attribute.String("component", component),
	))
}
