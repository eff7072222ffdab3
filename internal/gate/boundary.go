package gate

import (
	"context"
	"fmt"
	"time"

	"github.com/ppiankov/auditgate/internal/alert"
	"github.com/ppiankov/auditgate/internal/metrics"
	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
	"github.com/ppiankov/auditgate/internal/tracing"
)

// Boundary routes every invocation of one Action through one Auditor.
// Both are fixed at construction. A Boundary is safe for concurrent use as
// long as its Action is.
type Boundary[T any] struct {
	action  Action[T]
	auditor policy.Auditor
	opts    options
}

// New binds action and auditor into a Boundary.
func New[T any](action Action[T], auditor policy.Auditor, opts ...Option) (*Boundary[T], error) {
	if action == nil {
		return nil, ErrNilAction
	}
	if auditor == nil {
		return nil, ErrNilAuditor
	}
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	return &Boundary[T]{action: action, auditor: auditor, opts: o}, nil
}

// Name returns the operation name the boundary reports under.
func (b *Boundary[T]) Name() string {
	return b.opts.name
}

// Dispatch audits task and, only on a compliant verdict, performs the
// action exactly once. The returned error is non-nil only when the approved
// action itself failed; it is the action's error, unwrapped.
func (b *Boundary[T]) Dispatch(ctx context.Context, task model.Task) (model.Outcome[T], error) {
	ctx, span := tracing.StartSpan(ctx, "auditgate.dispatch", map[string]string{
		"auditgate.operation": b.opts.name,
		"auditgate.task_id":   task.ID,
		"auditgate.principle": string(task.Principle),
	})

	p := &phases{ctx: ctx, observer: b.opts.observer, operation: b.opts.name, taskID: task.ID, cur: model.PhaseInvoked}
	p.to(model.PhaseAuditing)

	start := time.Now()
	auditCtx, auditSpan := tracing.StartSpan(ctx, "auditgate.audit", nil)
	verdict, auditErr := b.audit(auditCtx, task)
	tracing.EndSpan(auditSpan, auditErr)
	b.opts.metrics.ObserveAudit(b.opts.name, time.Since(start))

	if auditErr != nil {
		p.to(model.PhaseRejected)
		p.to(model.PhaseBlocked)
		b.opts.logger.Error("audit unavailable, blocking task",
			"operation", b.opts.name, "task_id", task.ID, "error", auditErr)
		out := model.BlockedOutcome[T](model.ReasonAuditUnavailable)
		out.Detail = auditErr.Error()
		b.blocked(task, alert.EventAuditUnavailable, metrics.ReasonAuditUnavailable, out)
		tracing.EndSpan(span, nil)
		return out, nil
	}

	if !verdict.Compliant {
		p.to(model.PhaseRejected)
		p.to(model.PhaseBlocked)
		reason := verdict.Reason
		if reason == "" {
			reason = fmt.Sprintf("%s: policy violation", verdict.Principle)
		}
		b.opts.logger.Warn("task blocked by policy",
			"operation", b.opts.name, "task_id", task.ID, "principle", task.Principle, "reason", reason)
		out := model.BlockedOutcome[T](reason)
		b.blocked(task, alert.EventBlocked, metrics.ReasonPolicyViolation, out)
		tracing.EndSpan(span, nil)
		return out, nil
	}

	p.to(model.PhaseApproved)
	b.opts.logger.Debug("task approved", "operation", b.opts.name, "task_id", task.ID)
	p.to(model.PhaseExecuting)

	start = time.Now()
	execCtx, execSpan := tracing.StartSpan(ctx, "auditgate.execute", nil)
	value, err := b.action.Perform(execCtx, task)
	tracing.EndSpan(execSpan, err)
	b.opts.metrics.ObserveAction(b.opts.name, time.Since(start))
	if err != nil {
		b.opts.metrics.IncActionFailure(b.opts.name)
		b.opts.logger.Info("approved action failed", "operation", b.opts.name, "task_id", task.ID, "error", err)
		tracing.EndSpan(span, err)
		var zero model.Outcome[T]
		return zero, err
	}

	p.to(model.PhaseCompleted)
	b.opts.metrics.IncOutcome(b.opts.name, string(model.Completed), metrics.ReasonNone)
	b.opts.logger.Info("task completed", "operation", b.opts.name, "task_id", task.ID)
	tracing.EndSpan(span, nil)
	return model.CompletedOutcome(value), nil
}

// Perform makes a Boundary usable wherever an Action is expected. A blocked
// dispatch is reported as a *BlockedError.
func (b *Boundary[T]) Perform(ctx context.Context, task model.Task) (T, error) {
	out, err := b.Dispatch(ctx, task)
	if err != nil {
		var zero T
		return zero, err
	}
	if out.IsBlocked() {
		var zero T
		return zero, &BlockedError{Task: task, Reason: out.Reason, Detail: out.Detail}
	}
	return out.Value, nil
}

// audit consults the auditor. Errors, panics and cancellation all surface
// as an error so the caller fails closed. A compliant verdict that arrives
// after ctx was cancelled is discarded.
func (b *Boundary[T]) audit(ctx context.Context, task model.Task) (model.Verdict, error) {
	if err := ctx.Err(); err != nil {
		return model.Verdict{}, fmt.Errorf("audit not started: %w", err)
	}

	v, err := policy.SafeEvaluate(ctx, b.auditor, task)
	if err != nil {
		return model.Verdict{}, err
	}
	if v.Compliant {
		if cerr := ctx.Err(); cerr != nil {
			return model.Verdict{}, fmt.Errorf("audit cancelled: %w", cerr)
		}
	}
	return v, nil
}

func (b *Boundary[T]) blocked(task model.Task, event, reasonClass string, out model.Outcome[T]) {
	b.opts.metrics.IncOutcome(b.opts.name, string(model.Blocked), reasonClass)
	b.opts.alerts.Dispatch(alert.AlertEvent{
		Timestamp:   time.Now().UTC().Format("2006-01-02T15:04:05.000Z"),
		Event:       event,
		Operation:   b.opts.name,
		TaskID:      task.ID,
		Principle:   string(task.Principle),
		Description: task.Description,
		Reason:      out.Reason,
		Detail:      out.Detail,
	})
}

// phases tracks one dispatch through the state machine and reports each
// step to the span and the observer.
type phases struct {
	ctx       context.Context
	observer  func(Transition)
	operation string
	taskID    string
	cur       model.Phase
}

func (p *phases) to(next model.Phase) {
	tracing.Event(p.ctx, "phase", map[string]string{"from": string(p.cur), "to": string(next)})
	if p.observer != nil {
		p.observer(Transition{Operation: p.operation, TaskID: p.taskID, From: p.cur, To: next})
	}
	p.cur = next
}
