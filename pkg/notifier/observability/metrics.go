package observability

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// MetricsRecorder records notifier metrics.
// Use NewMetricsRecorder() for OTel metrics or NoopMetrics{} when disabled.
type MetricsRecorder interface {
	// RecordAdd records a new registration on the named registry.
	RecordAdd(ctx context.Context, registry string)

	// RecordRemove records an explicit removal that found its handle.
	RecordRemove(ctx context.Context, registry string)

	// RecordNotify records one notification: synchronous deliveries,
	// submissions to dispatch targets, and expired entries pruned.
	RecordNotify(ctx context.Context, registry string, delivered, dispatched, pruned int, duration time.Duration)
}

// otelMetrics implements MetricsRecorder using OpenTelemetry.
type otelMetrics struct {
	registrations metric.Int64Counter
	removals      metric.Int64Counter
	notifications metric.Int64Counter
	deliveries    metric.Int64Counter
	dispatches    metric.Int64Counter
	pruned        metric.Int64Counter
	latency       metric.Float64Histogram
}

var (
	defaultMetrics     *otelMetrics
	defaultMetricsOnce sync.Once
	defaultMetricsErr  error
)

func getDefaultMetrics() (*otelMetrics, error) {
	defaultMetricsOnce.Do(func() {
		defaultMetrics, defaultMetricsErr = newOtelMetrics()
	})
	return defaultMetrics, defaultMetricsErr
}

func newOtelMetrics() (*otelMetrics, error) {
	meter := otel.Meter("notifier")

	registrations, err := meter.Int64Counter("notifier.registrations",
		metric.WithDescription("Number of observers added"),
	)
	if err != nil {
		return nil, err
	}

	removals, err := meter.Int64Counter("notifier.removals",
		metric.WithDescription("Number of observers explicitly removed"),
	)
	if err != nil {
		return nil, err
	}

	notifications, err := meter.Int64Counter("notifier.notifications",
		metric.WithDescription("Number of notify calls"),
	)
	if err != nil {
		return nil, err
	}

	deliveries, err := meter.Int64Counter("notifier.deliveries",
		metric.WithDescription("Observers invoked synchronously"),
	)
	if err != nil {
		return nil, err
	}

	dispatches, err := meter.Int64Counter("notifier.dispatches",
		metric.WithDescription("Observer invocations submitted to dispatch targets"),
	)
	if err != nil {
		return nil, err
	}

	pruned, err := meter.Int64Counter("notifier.pruned",
		metric.WithDescription("Entries dropped because their observer was collected"),
	)
	if err != nil {
		return nil, err
	}

	latency, err := meter.Float64Histogram("notifier.notify.latency_ms",
		metric.WithDescription("Notify latency in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	return &otelMetrics{
		registrations: registrations,
		removals:      removals,
		notifications: notifications,
		deliveries:    deliveries,
		dispatches:    dispatches,
		pruned:        pruned,
		latency:       latency,
	}, nil
}

// NewMetricsRecorder returns a MetricsRecorder that uses OpenTelemetry.
// If metrics initialization fails, returns a no-op recorder.
//
// The recorder uses the global OTel meter provider. Configure the provider
// before calling this function:
//
//	otel.SetMeterProvider(yourProvider)
func NewMetricsRecorder() MetricsRecorder {
	m, err := getDefaultMetrics()
	if err != nil {
		slog.Warn("metrics initialization failed, using no-op recorder",
			slog.String("error", err.Error()))
		return NoopMetrics{}
	}
	return m
}

func (m *otelMetrics) RecordAdd(ctx context.Context, registry string) {
	m.registrations.Add(ctx, 1, metric.WithAttributes(attribute.String("registry", registry)))
}

func (m *otelMetrics) RecordRemove(ctx context.Context, registry string) {
	m.removals.Add(ctx, 1, metric.WithAttributes(attribute.String("registry", registry)))
}

func (m *otelMetrics) RecordNotify(ctx context.Context, registry string, delivered, dispatched, pruned int, duration time.Duration) {
	attrs := metric.WithAttributes(attribute.String("registry", registry))

	m.notifications.Add(ctx, 1, attrs)
	m.deliveries.Add(ctx, int64(delivered), attrs)
	m.dispatches.Add(ctx, int64(dispatched), attrs)
	if pruned > 0 {
		m.pruned.Add(ctx, int64(pruned), attrs)
	}
	m.latency.Record(ctx, float64(duration.Microseconds())/1000, attrs)
}
