package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Reason classes used as the "reason" label. Policy rejection reasons are
// free text, so they are folded into a bounded set.
const (
	ReasonNone             = "none"
	ReasonPolicyViolation  = "policy_violation"
	ReasonAuditUnavailable = "audit_unavailable"
)

// Metrics provides observability for the interception boundary.
type Metrics struct {
	// Dispatch outcomes by operation, status and reason class
	Outcomes *prometheus.CounterVec

	// Audit latency by operation
	AuditLatency *prometheus.HistogramVec

	// Action latency by operation, approved path only
	ActionLatency *prometheus.HistogramVec

	// Action failures after approval by operation
	ActionFailures *prometheus.CounterVec
}

// New creates a Metrics instance registered with reg. A nil reg uses the
// default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		Outcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditgate_dispatch_outcomes_total",
			Help: "Total dispatch outcomes by operation, status and reason class",
		}, []string{"operation", "status", "reason"}),

		AuditLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auditgate_audit_duration_seconds",
			Help:    "Duration of the audit step of a dispatch",
			Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"operation"}),

		ActionLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "auditgate_action_duration_seconds",
			Help:    "Duration of approved action executions",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5, 30},
		}, []string{"operation"}),

		ActionFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "auditgate_action_failures_total",
			Help: "Approved actions that returned an error",
		}, []string{"operation"}),
	}
	reg.MustRegister(m.Outcomes, m.AuditLatency, m.ActionLatency, m.ActionFailures)
	return m
}

// IncOutcome records a dispatch outcome.
func (m *Metrics) IncOutcome(operation, status, reason string) {
	if m != nil {
		m.Outcomes.WithLabelValues(operation, status, reason).Inc()
	}
}

// ObserveAudit records the duration of an audit.
func (m *Metrics) ObserveAudit(operation string, d time.Duration) {
	if m != nil {
		m.AuditLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// ObserveAction records the duration of an approved action.
func (m *Metrics) ObserveAction(operation string, d time.Duration) {
	if m != nil {
		m.ActionLatency.WithLabelValues(operation).Observe(d.Seconds())
	}
}

// IncActionFailure records an approved action that failed.
func (m *Metrics) IncActionFailure(operation string) {
	if m != nil {
		m.ActionFailures.WithLabelValues(operation).Inc()
	}
}
