package auditgate

import (
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
)

// Task describes what an agent intends to do.
type Task = model.Task

// Principle names the rule a task is governed by.
type Principle = model.Principle

const (
	NonHarm      = model.NonHarm
	Efficiency   = model.Efficiency
	Truthfulness = model.Truthfulness
)

// ReasonAuditUnavailable is the block reason when the audit itself failed.
const ReasonAuditUnavailable = model.ReasonAuditUnavailable

// BlockedError is returned by wrapped functions when the task was refused.
type BlockedError = gate.BlockedError

// ErrBlocked matches any *BlockedError with errors.Is.
var ErrBlocked = gate.ErrBlocked

// NewTask creates a Task with a fresh ID.
func NewTask(description string, principle Principle) Task {
	return model.NewTask(description, principle)
}

// ParsePrinciple converts a user-supplied name into a Principle.
func ParsePrinciple(s string) (Principle, error) {
	return model.ParsePrinciple(s)
}

// Result is an audit verdict.
type Result struct {
	TaskID    string
	Compliant bool
	Reason    string
	Principle Principle
}

// Outcome is the result of dispatching a named operation.
type Outcome struct {
	TaskID string
	Status string
	Value  string
	Reason string
	Detail string
}

// Blocked returns true if the task was prevented from running.
func (o Outcome) Blocked() bool {
	return o.Status == string(model.Blocked)
}

func toResult(task Task, v model.Verdict) Result {
	principle := v.Principle
	if principle == "" {
		principle = task.Principle
	}
	return Result{
		TaskID:    task.ID,
		Compliant: v.Compliant,
		Reason:    v.Reason,
		Principle: principle,
	}
}

func toOutcome(task Task, out model.Outcome[string]) Outcome {
	return Outcome{
		TaskID: task.ID,
		Status: string(out.Status),
		Value:  out.Value,
		Reason: out.Reason,
		Detail: out.Detail,
	}
}
