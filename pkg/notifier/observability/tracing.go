package observability

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// tracer uses the global OTel tracer provider.
var tracer = otel.Tracer("notifier")

// SpanManager handles trace span lifecycle for notify calls.
// Use NewSpanManager() for OTel tracing or NoopSpanManager{} when disabled.
type SpanManager interface {
	// StartNotifySpan starts a span covering one notify call.
	StartNotifySpan(ctx context.Context, registry string) (context.Context, trace.Span)

	// EndNotifySpan records the delivery counts on span and ends it.
	EndNotifySpan(span trace.Span, delivered, dispatched, pruned int)

	// AddSpanEvent adds an event to the current span in context.
	AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue)
}

type otelSpanManager struct{}

// NewSpanManager returns a SpanManager that uses OpenTelemetry.
//
// The span manager uses the global OTel tracer provider. Configure the
// provider before calling this function:
//
//	otel.SetTracerProvider(yourProvider)
func NewSpanManager() SpanManager {
	return &otelSpanManager{}
}

func (m *otelSpanManager) StartNotifySpan(ctx context.Context, registry string) (context.Context, trace.Span) {
	return tracer.Start(ctx, "notifier.notify",
		trace.WithAttributes(attribute.String("registry", registry)),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
}

func (m *otelSpanManager) EndNotifySpan(span trace.Span, delivered, dispatched, pruned int) {
	if span == nil {
		return
	}
	span.SetAttributes(
		attribute.Int("notify.delivered", delivered),
		attribute.Int("notify.dispatched", dispatched),
		attribute.Int("notify.pruned", pruned),
	)
	span.SetStatus(codes.Ok, "")
	span.End()
}

func (m *otelSpanManager) AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
