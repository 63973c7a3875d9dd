package notifier

import (
	"log/slog"

	"github.com/randalmurphal/notifier/pkg/notifier/config"
	"github.com/randalmurphal/notifier/pkg/notifier/observability"
)

const defaultName = "notifier"

// registryConfig holds the options a Registry is built with.
type registryConfig struct {
	name    string
	logger  *slog.Logger
	metrics observability.MetricsRecorder
	spans   observability.SpanManager
}

func defaultRegistryConfig() registryConfig {
	return registryConfig{
		name:    defaultName,
		metrics: observability.NoopMetrics{},
		spans:   observability.NoopSpanManager{},
	}
}

// Option configures a Registry.
type Option func(*registryConfig)

// WithName labels the registry in logs, metrics, spans and String.
// Default: "notifier"
func WithName(name string) Option {
	return func(c *registryConfig) {
		if name != "" {
			c.name = name
		}
	}
}

// WithLogger enables debug logging of registrations, removals, pruning
// and notifications. Observer failures are never logged by the registry.
func WithLogger(logger *slog.Logger) Option {
	return func(c *registryConfig) {
		c.logger = logger
	}
}

// WithMetrics records registry activity. Nil restores the no-op recorder.
//
// Example:
//
//	reg := notifier.New[Event](notifier.WithMetrics(observability.NewMetricsRecorder()))
func WithMetrics(m observability.MetricsRecorder) Option {
	return func(c *registryConfig) {
		if m == nil {
			m = observability.NoopMetrics{}
		}
		c.metrics = m
	}
}

// WithTracing wraps every notify call in a span. Nil restores the no-op
// span manager.
func WithTracing(s observability.SpanManager) Option {
	return func(c *registryConfig) {
		if s == nil {
			s = observability.NoopSpanManager{}
		}
		c.spans = s
	}
}

// OptionsFromConfig builds options from a registry config section:
//
//	name: settings
//	metrics: true
//	tracing: true
//	log_level: debug
func OptionsFromConfig(cfg config.Config) []Option {
	opts := []Option{WithName(cfg.String("name", defaultName))}
	if logger := cfg.Logger("log_level"); logger != nil {
		opts = append(opts, WithLogger(logger))
	}
	if cfg.Bool("metrics", false) {
		opts = append(opts, WithMetrics(observability.NewMetricsRecorder()))
	}
	if cfg.Bool("tracing", false) {
		opts = append(opts, WithTracing(observability.NewSpanManager()))
	}
	return opts
}
