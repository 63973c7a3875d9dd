// Package dispatch provides the execution contexts a notifier registry can
// hand observer invocations to instead of running them on the notifying
// goroutine.
//
// A Target only has to accept a unit of work and run it later. Queue is the
// built-in Target: a serial FIFO executor with its own goroutine. Any other
// executor can be adapted with TargetFunc.
package dispatch

import (
	"context"

	"github.com/hashicorp/go-multierror"
)

// Target runs submitted work asynchronously.
//
// Submit must not block for the duration of fn. Work submitted to one
// Target is expected to start in submission order.
type Target interface {
	Submit(fn func())
}

// TargetFunc adapts an ordinary function to the Target interface.
//
//	pool := dispatch.TargetFunc(func(fn func()) { workers <- fn })
type TargetFunc func(fn func())

// Submit calls f(fn).
func (f TargetFunc) Submit(fn func()) {
	f(fn)
}

// Closer is a Target that can be shut down.
type Closer interface {
	Close(ctx context.Context) error
}

// CloseAll closes every closer, continuing past failures, and returns
// the failures combined. Nil closers are skipped.
func CloseAll(ctx context.Context, closers ...Closer) error {
	var result *multierror.Error
	for _, c := range closers {
		if c == nil {
			continue
		}
		if err := c.Close(ctx); err != nil {
			result = multierror.Append(result, err)
		}
	}
	return result.ErrorOrNil()
}
