package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/auditgate/internal/agent"
	"github.com/ppiankov/auditgate/internal/alert"
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/metrics"
	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

// DefaultOperation runs when a dispatch names no operation.
const DefaultOperation = agent.OpExecuteTask

// Config selects the policy file and agent an Engine is built from.
type Config struct {
	PolicyPath string
	AgentName  string
	Logger     *slog.Logger
	Metrics    *metrics.Metrics
}

// Engine is one loaded policy with the agent operations it guards. It is
// immutable; reloading builds a new Engine.
type Engine struct {
	Policy     *policy.PolicyConfig
	PolicyHash string
	Auditor    policy.Auditor
	Alerts     *alert.Dispatcher
	Ops        *gate.Operations[string]

	logger *slog.Logger
}

// Load reads the policy file and wires the Planner behind it.
func Load(cfg Config) (*Engine, error) {
	policyCfg, hash, err := policy.LoadConfigWithHash(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load policy config: %w", err)
	}
	return FromConfig(cfg, policyCfg, hash)
}

// FromConfig wires an already loaded policy config.
func FromConfig(cfg Config, policyCfg *policy.PolicyConfig, hash string) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	auditor := policy.Build(policyCfg)
	alerts := alert.NewDispatcher(policyCfg.Alerts, logger)

	planner := &agent.Planner{Name: cfg.AgentName, Logger: logger}
	ops, err := planner.Operations(auditor,
		gate.WithLogger(logger),
		gate.WithMetrics(cfg.Metrics),
		gate.WithAlerts(alerts),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to wire agent operations: %w", err)
	}

	return &Engine{
		Policy:     policyCfg,
		PolicyHash: hash,
		Auditor:    auditor,
		Alerts:     alerts,
		Ops:        ops,
		logger:     logger,
	}, nil
}

// Check audits task without running anything. Audit failures, panics
// included, are reported as a non-compliant verdict with reason
// AUDIT_UNAVAILABLE, matching what Dispatch would do.
func (e *Engine) Check(ctx context.Context, task model.Task) model.Verdict {
	v, err := policy.SafeEvaluate(ctx, e.Auditor, task)
	if err != nil {
		logger := e.logger
		if logger == nil {
			logger = slog.Default()
		}
		logger.Error("audit unavailable, refusing task",
			"task_id", task.ID, "principle", task.Principle, "error", err)
		e.Alerts.Dispatch(alert.AlertEvent{
			Timestamp:   time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
			Event:       alert.EventAuditUnavailable,
			Operation:   "check",
			TaskID:      task.ID,
			Principle:   string(task.Principle),
			Description: task.Description,
			Reason:      model.ReasonAuditUnavailable,
			Detail:      err.Error(),
		})
		return model.Verdict{Compliant: false, Reason: model.ReasonAuditUnavailable, Principle: task.Principle}
	}
	if !v.Compliant && v.Reason == "" {
		v.Reason = fmt.Sprintf("%s: policy violation", v.Principle)
	}
	return v
}

// Dispatch runs the named operation through its boundary.
func (e *Engine) Dispatch(ctx context.Context, operation string, task model.Task) (model.Outcome[string], error) {
	if operation == "" {
		operation = DefaultOperation
	}
	return e.Ops.Dispatch(ctx, operation, task)
}
