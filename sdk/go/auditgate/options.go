package auditgate

import "log/slog"

// Option configures a Client at creation time.
type Option func(*clientConfig)

type clientConfig struct {
	policyPath string
	agentName  string
	logger     *slog.Logger
	principle  Principle
}

// WithPolicy sets the path to a policy YAML file. A missing file means
// built-in defaults.
func WithPolicy(path string) Option {
	return func(c *clientConfig) { c.policyPath = path }
}

// WithAgentName sets the name the bundled planner reports in results.
func WithAgentName(name string) Option {
	return func(c *clientConfig) { c.agentName = name }
}

// WithLogger sets the logger used for audit decisions.
func WithLogger(logger *slog.Logger) Option {
	return func(c *clientConfig) { c.logger = logger }
}

// WithPrinciple sets the principle Middleware audits requests under.
func WithPrinciple(p Principle) Option {
	return func(c *clientConfig) { c.principle = p }
}

// WrapOption configures a single Wrap call.
type WrapOption func(*wrapConfig)

type wrapConfig struct {
	name string
}

// WrapWithName sets the operation name used in logs, metrics and traces.
func WrapWithName(name string) WrapOption {
	return func(w *wrapConfig) { w.name = name }
}
