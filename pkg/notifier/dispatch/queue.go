package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/randalmurphal/notifier/pkg/notifier/config"
	"github.com/randalmurphal/notifier/pkg/notifier/observability"
)

// ErrQueueClosed is returned by Drain once the queue no longer accepts work.
var ErrQueueClosed = errors.New("dispatch: queue closed")

// QueueConfig configures a Queue.
type QueueConfig struct {
	// Name labels the queue in logs and callbacks.
	// Default: "default"
	Name string

	// Logger receives panic and drop reports. Nil disables logging.
	Logger *slog.Logger

	// CloseTimeout bounds Shutdown. Zero waits indefinitely.
	CloseTimeout time.Duration

	// InitialCapacity preallocates room for that many pending units.
	// The queue still grows past it.
	InitialCapacity int

	// OnPanic is called with the recovered value when a unit panics.
	// The worker keeps running afterwards.
	OnPanic func(queue string, recovered any)

	// OnDrop is called when work is submitted after Close.
	OnDrop func(queue string)
}

// DefaultQueueConfig provides reasonable defaults.
var DefaultQueueConfig = QueueConfig{
	Name: "default",
}

// QueueConfigFromConfig reads a queue section:
//
//	name: ui
//	close_timeout: 5s
//	initial_capacity: 64
//	log_level: warn
func QueueConfigFromConfig(cfg config.Config) QueueConfig {
	return QueueConfig{
		Name:            cfg.String("name", DefaultQueueConfig.Name),
		Logger:          cfg.Logger("log_level"),
		CloseTimeout:    cfg.Duration("close_timeout", DefaultQueueConfig.CloseTimeout),
		InitialCapacity: cfg.Int("initial_capacity", DefaultQueueConfig.InitialCapacity),
	}
}

// Queue is a serial FIFO Target. Units run one at a time on a single
// goroutine owned by the queue, in the order they were submitted.
// Submit never blocks: pending work is held in an unbounded slice.
type Queue struct {
	config QueueConfig

	mu      sync.Mutex
	pending []func()
	closed  bool

	wake chan struct{}
	done chan struct{}
}

var (
	_ Target = (*Queue)(nil)
	_ Closer = (*Queue)(nil)
)

// NewQueue starts a queue and its worker goroutine.
func NewQueue(cfg QueueConfig) *Queue {
	if cfg.Name == "" {
		cfg.Name = DefaultQueueConfig.Name
	}

	q := &Queue{
		config:  cfg,
		pending: make([]func(), 0, max(cfg.InitialCapacity, 0)),
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
	}
	go q.process()
	return q
}

// Name returns the configured queue name.
func (q *Queue) Name() string {
	return q.config.Name
}

// Submit enqueues fn. After Close the work is dropped and reported
// through the logger and OnDrop.
func (q *Queue) Submit(fn func()) {
	if fn == nil {
		panic("dispatch: nil work submitted to queue " + q.config.Name)
	}
	if q.enqueue(fn) {
		return
	}
	observability.LogQueueDrop(q.config.Logger, q.config.Name)
	if q.config.OnDrop != nil {
		q.config.OnDrop(q.config.Name)
	}
}

// Len returns the number of units waiting to run.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Drain blocks until every unit submitted before the call has run.
// Calling Drain from a unit running on the same queue deadlocks until ctx ends.
func (q *Queue) Drain(ctx context.Context) error {
	barrier := make(chan struct{})
	if !q.enqueue(func() { close(barrier) }) {
		return fmt.Errorf("drain queue %q: %w", q.config.Name, ErrQueueClosed)
	}

	select {
	case <-barrier:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("drain queue %q: %w", q.config.Name, ctx.Err())
	}
}

// Close stops accepting work, lets the queued units run, and waits for
// the worker to exit. It is safe to call more than once.
func (q *Queue) Close(ctx context.Context) error {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()
	q.signal()

	select {
	case <-q.done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("close queue %q: %w", q.config.Name, ctx.Err())
	}
}

// Shutdown is Close bounded by the configured CloseTimeout.
func (q *Queue) Shutdown() error {
	ctx := context.Background()
	if q.config.CloseTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, q.config.CloseTimeout)
		defer cancel()
	}
	return q.Close(ctx)
}

func (q *Queue) enqueue(fn func()) bool {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false
	}
	q.pending = append(q.pending, fn)
	q.mu.Unlock()
	q.signal()
	return true
}

// signal wakes the worker without blocking; one buffered token is enough
// because the worker rechecks pending before sleeping again.
func (q *Queue) signal() {
	select {
	case q.wake <- struct{}{}:
	default:
	}
}

// next pops the oldest unit. It returns ok=false once the queue is closed
// and empty, and a nil fn when the worker should wait.
func (q *Queue) next() (fn func(), ok bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.pending) > 0 {
		fn = q.pending[0]
		q.pending[0] = nil
		q.pending = q.pending[1:]
		return fn, true
	}
	return nil, !q.closed
}

func (q *Queue) process() {
	defer close(q.done)
	for {
		fn, ok := q.next()
		if !ok {
			return
		}
		if fn == nil {
			<-q.wake
			continue
		}
		q.run(fn)
	}
}

func (q *Queue) run(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			observability.LogQueuePanic(q.config.Logger, q.config.Name, r)
			if q.config.OnPanic != nil {
				q.config.OnPanic(q.config.Name, r)
			}
		}
	}()
	fn()
}
