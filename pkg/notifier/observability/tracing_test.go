package observability

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

// setupTracingTest installs an in-memory span exporter for the test.
func setupTracingTest(t *testing.T) *tracetest.InMemoryExporter {
	exporter := tracetest.NewInMemoryExporter()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exporter))

	original := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	tracer = otel.Tracer("notifier")

	t.Cleanup(func() {
		otel.SetTracerProvider(original)
		tracer = otel.Tracer("notifier")
		if err := tp.Shutdown(context.Background()); err != nil {
			t.Logf("Error shutting down tracer provider: %v", err)
		}
	})
	return exporter
}

func attrMap(attrs []attribute.KeyValue) map[attribute.Key]attribute.Value {
	m := make(map[attribute.Key]attribute.Value, len(attrs))
	for _, a := range attrs {
		m[a.Key] = a.Value
	}
	return m
}

func TestStartNotifySpan(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	_, span := sm.StartNotifySpan(context.Background(), "settings")
	require.NotNil(t, span)
	sm.EndNotifySpan(span, 2, 1, 3)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)

	s := spans[0]
	assert.Equal(t, "notifier.notify", s.Name)
	assert.Equal(t, codes.Ok, s.Status.Code)

	attrs := attrMap(s.Attributes)
	assert.Equal(t, "settings", attrs["registry"].AsString())
	assert.Equal(t, int64(2), attrs["notify.delivered"].AsInt64())
	assert.Equal(t, int64(1), attrs["notify.dispatched"].AsInt64())
	assert.Equal(t, int64(3), attrs["notify.pruned"].AsInt64())
}

func TestEndNotifySpan_NilSpan(t *testing.T) {
	assert.NotPanics(t, func() {
		NewSpanManager().EndNotifySpan(nil, 0, 0, 0)
	})
}

func TestAddSpanEvent(t *testing.T) {
	exporter := setupTracingTest(t)
	sm := NewSpanManager()

	ctx, span := sm.StartNotifySpan(context.Background(), "settings")
	sm.AddSpanEvent(ctx, "observer.expired", attribute.String("handle_id", "h-1"))
	sm.EndNotifySpan(span, 0, 0, 1)

	spans := exporter.GetSpans()
	require.Len(t, spans, 1)
	require.Len(t, spans[0].Events, 1)
	assert.Equal(t, "observer.expired", spans[0].Events[0].Name)
}

func TestAddSpanEvent_NoSpanInContext(t *testing.T) {
	setupTracingTest(t)
	assert.NotPanics(t, func() {
		NewSpanManager().AddSpanEvent(context.Background(), "orphan")
	})
}
