package gate

import (
	"log/slog"

	"github.com/ppiankov/auditgate/internal/alert"
	"github.com/ppiankov/auditgate/internal/metrics"
	"github.com/ppiankov/auditgate/internal/model"
)

// Transition is one step of a dispatch through the phase state machine.
type Transition struct {
	Operation string
	TaskID    string
	From      model.Phase
	To        model.Phase
}

// Option configures a Boundary at creation time.
type Option func(*options)

type options struct {
	name     string
	logger   *slog.Logger
	metrics  *metrics.Metrics
	alerts   *alert.Dispatcher
	observer func(Transition)
}

func defaultOptions() options {
	return options{
		name:   "perform",
		logger: slog.Default(),
	}
}

// WithName sets the operation name used in logs, metrics and alerts.
func WithName(name string) Option {
	return func(o *options) {
		if name != "" {
			o.name = name
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// WithMetrics records outcomes and latencies.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *options) { o.metrics = m }
}

// WithAlerts sends webhook alerts for blocked dispatches.
func WithAlerts(d *alert.Dispatcher) Option {
	return func(o *options) { o.alerts = d }
}

// WithObserver receives every phase transition synchronously. The function
// is called from concurrent dispatches and must be safe for that.
func WithObserver(fn func(Transition)) Option {
	return func(o *options) { o.observer = fn }
}
