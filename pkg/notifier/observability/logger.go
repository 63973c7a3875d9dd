// Package observability provides logging, metrics, and tracing for notifier
// registries and dispatch queues.
//
// Features:
//   - Structured logging via slog
//   - Metrics via OpenTelemetry
//   - Tracing via OpenTelemetry
//
// Everything is opt-in. A nil logger disables logging, and the no-op
// recorder and span manager are the defaults when nothing is configured.
package observability

import (
	"log/slog"
	"time"
)

// EnrichLogger returns logger with the registry name attached.
func EnrichLogger(logger *slog.Logger, registry string) *slog.Logger {
	if logger == nil {
		return nil
	}
	return logger.With(slog.String("registry", registry))
}

// LogAdd logs a new registration.
func LogAdd(logger *slog.Logger, handleID, observer string, async bool) {
	if logger == nil {
		return
	}
	logger.Debug("observer added",
		slog.String("handle_id", handleID),
		slog.String("observer", observer),
		slog.Bool("async", async),
	)
}

// LogRemove logs an explicit removal. removed is false when the handle
// was already gone.
func LogRemove(logger *slog.Logger, handleID string, removed bool) {
	if logger == nil {
		return
	}
	logger.Debug("observer removed",
		slog.String("handle_id", handleID),
		slog.Bool("found", removed),
	)
}

// LogPrune logs an entry dropped because its observer was collected.
func LogPrune(logger *slog.Logger, handleID, observer string) {
	if logger == nil {
		return
	}
	logger.Debug("observer expired",
		slog.String("handle_id", handleID),
		slog.String("observer", observer),
	)
}

// LogNotify logs the outcome of one notification.
func LogNotify(logger *slog.Logger, delivered, dispatched, pruned int, duration time.Duration) {
	if logger == nil {
		return
	}
	logger.Debug("notified",
		slog.Int("delivered", delivered),
		slog.Int("dispatched", dispatched),
		slog.Int("pruned", pruned),
		slog.Float64("duration_ms", float64(duration.Microseconds())/1000),
	)
}

// LogQueuePanic logs a work unit that panicked on a dispatch queue.
func LogQueuePanic(logger *slog.Logger, queue string, recovered any) {
	if logger == nil {
		return
	}
	logger.Error("dispatch unit panicked",
		slog.String("queue", queue),
		slog.Any("panic", recovered),
	)
}

// LogQueueDrop logs work submitted to a queue that is already closed.
func LogQueueDrop(logger *slog.Logger, queue string) {
	if logger == nil {
		return
	}
	logger.Warn("dispatch unit dropped",
		slog.String("queue", queue),
		slog.String("reason", "queue closed"),
	)
}
