package model

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Principle tags the governing rule a task is framed under.
type Principle string

const (
	NonHarm      Principle = "non_harm"
	Efficiency   Principle = "efficiency"
	Truthfulness Principle = "truthfulness"
)

// Principles lists every valid principle in declaration order.
var Principles = []Principle{NonHarm, Efficiency, Truthfulness}

// Valid reports whether p is one of the known principles.
func (p Principle) Valid() bool {
	switch p {
	case NonHarm, Efficiency, Truthfulness:
		return true
	}
	return false
}

// ParsePrinciple converts a user-supplied string into a Principle.
// Matching is case-insensitive and accepts dashes in place of underscores.
func ParsePrinciple(s string) (Principle, error) {
	p := Principle(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !p.Valid() {
		return "", fmt.Errorf("unknown principle %q (valid: non_harm, efficiency, truthfulness)", s)
	}
	return p, nil
}

// Task describes one action an agent proposes. It is a value: copy it freely,
// never mutate it after dispatch.
type Task struct {
	ID          string    `json:"id"`
	Description string    `json:"description"`
	Principle   Principle `json:"principle"`
}

// NewTask creates a Task with a fresh random ID.
func NewTask(description string, principle Principle) Task {
	return Task{
		ID:          uuid.NewString(),
		Description: description,
		Principle:   principle,
	}
}

// Verdict is the result of auditing a Task.
type Verdict struct {
	Compliant bool      `json:"compliant"`
	Reason    string    `json:"reason,omitempty"`
	Principle Principle `json:"principle,omitempty"`
}

// Approve returns a compliant verdict.
func Approve() Verdict {
	return Verdict{Compliant: true}
}

// Reject returns a non-compliant verdict naming the violated principle.
func Reject(principle Principle, reason string) Verdict {
	return Verdict{Compliant: false, Reason: reason, Principle: principle}
}

// Status discriminates the two outcome variants.
type Status string

const (
	Completed Status = "COMPLETED"
	Blocked   Status = "BLOCKED"
)

// ReasonAuditUnavailable is the block reason used when the audit itself failed.
const ReasonAuditUnavailable = "AUDIT_UNAVAILABLE"

// Outcome is the result of a mediated invocation. Completed outcomes carry
// Value; blocked outcomes carry Reason (and Detail for audit failures).
type Outcome[T any] struct {
	Status Status `json:"status"`
	Value  T      `json:"value,omitempty"`
	Reason string `json:"reason,omitempty"`
	Detail string `json:"detail,omitempty"`
}

// CompletedOutcome wraps an action result.
func CompletedOutcome[T any](v T) Outcome[T] {
	return Outcome[T]{Status: Completed, Value: v}
}

// BlockedOutcome builds a blocked outcome with the given reason.
func BlockedOutcome[T any](reason string) Outcome[T] {
	return Outcome[T]{Status: Blocked, Reason: reason}
}

// IsBlocked reports whether the action was prevented from running.
func (o Outcome[T]) IsBlocked() bool {
	return o.Status == Blocked
}

// AuditUnavailable reports whether the block was caused by an audit failure
// rather than a policy violation.
func (o Outcome[T]) AuditUnavailable() bool {
	return o.Status == Blocked && o.Reason == ReasonAuditUnavailable
}
