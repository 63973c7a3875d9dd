package notifier_test

import (
	"context"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/randalmurphal/notifier/pkg/notifier"
	"github.com/randalmurphal/notifier/pkg/notifier/dispatch"
	"github.com/stretchr/testify/require"
)

// callLog records observer calls from any goroutine.
type callLog struct {
	mu    sync.Mutex
	calls []string
}

func (l *callLog) add(s string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, s)
}

func (l *callLog) get() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func (l *callLog) reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = nil
}

// widget is an object-bound observer.
type widget struct {
	name string
	log  *callLog
}

func (w *widget) OnEvent(int) {
	w.log.add(w.name)
}

// addTransient registers a widget that nothing else references. The
// returned channel is closed once the widget has been collected.
//
//go:noinline
func addTransient(reg *notifier.Registry[int], log *callLog) (*notifier.Handle[int], <-chan struct{}) {
	collected := make(chan struct{})
	w := &widget{name: "transient", log: log}
	runtime.AddCleanup(w, func(ch chan struct{}) { close(ch) }, collected)
	return notifier.Add(reg, w, nil, (*widget).OnEvent), collected
}

// waitCollected forces collections until collected is closed.
func waitCollected(t *testing.T, collected <-chan struct{}) {
	t.Helper()
	require.Eventually(t, func() bool {
		runtime.GC()
		select {
		case <-collected:
			return true
		default:
			return false
		}
	}, 5*time.Second, 10*time.Millisecond, "observer was never collected")
}

func testContext(t *testing.T) context.Context {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

// newQueue starts a dispatch queue that is closed when the test ends.
func newQueue(t *testing.T, name string) *dispatch.Queue {
	t.Helper()
	q := dispatch.NewQueue(dispatch.QueueConfig{Name: name})
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = q.Close(ctx)
	})
	return q
}
