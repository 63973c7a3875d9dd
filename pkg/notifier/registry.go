package notifier

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/randalmurphal/notifier/pkg/notifier/dispatch"
	"github.com/randalmurphal/notifier/pkg/notifier/observability"
	"go.opentelemetry.io/otel/attribute"
)

// Registry broadcasts payloads of type P to weakly held observers.
//
// All methods are safe for concurrent use, including from inside an
// observer callback: the lock is never held while observers run.
type Registry[P any] struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager

	mu      sync.Mutex
	entries []*Handle[P]
}

// delivery is one observer call captured by a notify snapshot.
type delivery[P any] struct {
	target dispatch.Target
	fn     func(P)
}

// New creates an empty registry.
func New[P any](opts ...Option) *Registry[P] {
	cfg := defaultRegistryConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Registry[P]{
		name:    cfg.name,
		logger:  observability.EnrichLogger(cfg.logger, cfg.name),
		metrics: cfg.metrics,
		spans:   cfg.spans,
	}
}

// AddFunc registers fn for every notification. There is no separate owner
// to track, so the registration is anchored to the registry itself: the
// registry holds fn strongly and the entry lasts until Remove is called.
// Package-level and zero-value registries are fine.
//
// A nil target runs fn synchronously inside Notify. A typed nil target
// counts as nil.
func (r *Registry[P]) AddFunc(target dispatch.Target, fn func(P)) *Handle[P] {
	if fn == nil {
		panic("notifier: AddFunc with nil callback")
	}
	h := newHandle(target, "func", bindStrong(fn))
	r.add(h)
	return h
}

func (r *Registry[P]) add(h *Handle[P]) {
	r.mu.Lock()
	r.entries = append(r.entries, h)
	r.mu.Unlock()

	observability.LogAdd(r.logger, h.id, h.desc, h.target != nil)
	r.recorder().RecordAdd(context.Background(), r.Name())
}

// Remove drops the registration identified by h. Removing a handle that
// is nil, already removed, already pruned, or from another registry does
// nothing.
//
// A notification that already captured h still delivers to it.
func (r *Registry[P]) Remove(h *Handle[P]) {
	if h == nil {
		return
	}

	r.mu.Lock()
	before := len(r.entries)
	r.entries = slices.DeleteFunc(r.entries, func(e *Handle[P]) bool { return e == h })
	removed := len(r.entries) < before
	r.mu.Unlock()

	observability.LogRemove(r.logger, h.id, removed)
	if removed {
		r.recorder().RecordRemove(context.Background(), r.Name())
	}
}

// Notify delivers payload to every live observer. See NotifyContext.
func (r *Registry[P]) Notify(payload P) {
	r.NotifyContext(context.Background(), payload)
}

// NotifyContext delivers payload to every live observer.
//
// The registered observers are snapshotted under the lock, and entries
// whose observer has been collected are pruned at the same time. The lock
// is then released and the snapshot is delivered in registration order:
// observers without a target run synchronously on the calling goroutine,
// one after another; observers with a target are submitted to it and not
// waited for.
//
// Observers added while delivery is in progress do not receive this
// payload. A panic in a synchronous observer propagates to the caller and
// skips the remaining observers.
//
// ctx only carries trace context; it never cancels delivery.
func (r *Registry[P]) NotifyContext(ctx context.Context, payload P) {
	start := time.Now()
	spans := r.tracer()
	ctx, span := spans.StartNotifySpan(ctx, r.Name())

	deliveries, expired := r.snapshot()
	for _, h := range expired {
		observability.LogPrune(r.logger, h.id, h.desc)
		spans.AddSpanEvent(ctx, "observer.expired", attribute.String("handle_id", h.id))
	}

	var delivered, dispatched int
	defer func() {
		duration := time.Since(start)
		spans.EndNotifySpan(span, delivered, dispatched, len(expired))
		r.recorder().RecordNotify(ctx, r.Name(), delivered, dispatched, len(expired), duration)
		observability.LogNotify(r.logger, delivered, dispatched, len(expired), duration)
	}()

	for _, d := range deliveries {
		if d.target != nil {
			fn := d.fn
			d.target.Submit(func() { fn(payload) })
			dispatched++
			continue
		}
		d.fn(payload)
		delivered++
	}
}

// snapshot binds every live entry and prunes the expired ones in place.
func (r *Registry[P]) snapshot() (deliveries []delivery[P], expired []*Handle[P]) {
	r.mu.Lock()
	defer r.mu.Unlock()

	deliveries = make([]delivery[P], 0, len(r.entries))
	kept := r.entries[:0]
	for _, h := range r.entries {
		fn, ok := h.bind()
		if !ok {
			expired = append(expired, h)
			continue
		}
		kept = append(kept, h)
		deliveries = append(deliveries, delivery[P]{target: h.target, fn: fn})
	}
	clear(r.entries[len(kept):])
	r.entries = kept

	return deliveries, expired
}

// Len returns the number of registrations held, including any whose
// observer has been collected but not yet pruned by a Notify.
func (r *Registry[P]) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Name returns the registry's label.
func (r *Registry[P]) Name() string {
	if r.name == "" {
		return defaultName
	}
	return r.name
}

// String lists the current registrations. The format is for humans and
// may change.
func (r *Registry[P]) String() string {
	r.mu.Lock()
	entries := slices.Clone(r.entries)
	r.mu.Unlock()

	var b strings.Builder
	b.WriteString("Registry[")
	b.WriteString(r.Name())
	b.WriteString("]{")
	for i, h := range entries {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(h.String())
	}
	b.WriteString("}")
	return b.String()
}

// recorder and tracer let a zero Registry work without New.
func (r *Registry[P]) recorder() observability.MetricsRecorder {
	if r.metrics == nil {
		return observability.NoopMetrics{}
	}
	return r.metrics
}

func (r *Registry[P]) tracer() observability.SpanManager {
	if r.spans == nil {
		return observability.NoopSpanManager{}
	}
	return r.spans
}
