package observability

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// setupMetricsTest installs a manual-reader meter provider for the test.
func setupMetricsTest(t *testing.T) *sdkmetric.ManualReader {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	original := otel.GetMeterProvider()
	otel.SetMeterProvider(provider)

	t.Cleanup(func() {
		otel.SetMeterProvider(original)
		if err := provider.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down meter provider: %v", err)
		}
	})
	return reader
}

func collectMetrics(t *testing.T, reader *sdkmetric.ManualReader) *metricdata.ResourceMetrics {
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return &rm
}

func findMetric(rm *metricdata.ResourceMetrics, name string) *metricdata.Metrics {
	for _, sm := range rm.ScopeMetrics {
		for i := range sm.Metrics {
			if sm.Metrics[i].Name == name {
				return &sm.Metrics[i]
			}
		}
	}
	return nil
}

func sumValue(t *testing.T, m *metricdata.Metrics) int64 {
	t.Helper()
	require.NotNil(t, m)
	sum, ok := m.Data.(metricdata.Sum[int64])
	require.True(t, ok, "expected Sum[int64], got %T", m.Data)

	var total int64
	for _, dp := range sum.DataPoints {
		total += dp.Value
	}
	return total
}

func TestNewMetricsRecorder(t *testing.T) {
	setupMetricsTest(t)

	recorder := NewMetricsRecorder()
	require.NotNil(t, recorder)

	_, isNoop := recorder.(NoopMetrics)
	assert.False(t, isNoop, "Expected real metrics recorder, got noop")
}

func TestRecordAddAndRemove(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordAdd(ctx, "settings")
	m.RecordAdd(ctx, "settings")
	m.RecordRemove(ctx, "settings")

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "notifier.registrations")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "notifier.removals")))
}

func TestRecordNotify(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	ctx := context.Background()
	m.RecordNotify(ctx, "settings", 3, 2, 1, 4*time.Millisecond)
	m.RecordNotify(ctx, "settings", 1, 0, 0, time.Millisecond)

	rm := collectMetrics(t, reader)
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "notifier.notifications")))
	assert.Equal(t, int64(4), sumValue(t, findMetric(rm, "notifier.deliveries")))
	assert.Equal(t, int64(2), sumValue(t, findMetric(rm, "notifier.dispatches")))
	assert.Equal(t, int64(1), sumValue(t, findMetric(rm, "notifier.pruned")))

	latency := findMetric(rm, "notifier.notify.latency_ms")
	require.NotNil(t, latency)
	hist, ok := latency.Data.(metricdata.Histogram[float64])
	require.True(t, ok)
	require.Len(t, hist.DataPoints, 1)
	assert.Equal(t, uint64(2), hist.DataPoints[0].Count)
	assert.InDelta(t, 5.0, hist.DataPoints[0].Sum, 0.001)
}

func TestRecordNotify_AttributesCarryRegistry(t *testing.T) {
	reader := setupMetricsTest(t)

	m, err := newOtelMetrics()
	require.NoError(t, err)

	m.RecordNotify(context.Background(), "a", 1, 0, 0, 0)
	m.RecordNotify(context.Background(), "b", 1, 0, 0, 0)

	rm := collectMetrics(t, reader)
	notifications := findMetric(rm, "notifier.notifications")
	require.NotNil(t, notifications)

	sum := notifications.Data.(metricdata.Sum[int64])
	seen := map[string]bool{}
	for _, dp := range sum.DataPoints {
		v, ok := dp.Attributes.Value("registry")
		require.True(t, ok)
		seen[v.AsString()] = true
	}
	assert.Equal(t, map[string]bool{"a": true, "b": true}, seen)
}
