package gate

import (
	"errors"
	"fmt"

	"github.com/ppiankov/auditgate/internal/model"
)

var (
	// ErrBlocked matches every *BlockedError via errors.Is.
	ErrBlocked = errors.New("gate: task blocked")

	ErrNilAction          = errors.New("gate: action is nil")
	ErrNilAuditor         = errors.New("gate: auditor is nil")
	ErrUnknownOperation   = errors.New("gate: unknown operation")
	ErrDuplicateOperation = errors.New("gate: operation already registered")
)

// BlockedError is returned by Perform when the boundary refused to run the
// action. Dispatch never returns it; it reports the same facts as an Outcome.
type BlockedError struct {
	Task   model.Task
	Reason string
	Detail string
}

func (e *BlockedError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("gate: task %s blocked: %s (%s)", e.Task.ID, e.Reason, e.Detail)
	}
	return fmt.Sprintf("gate: task %s blocked: %s", e.Task.ID, e.Reason)
}

// Is makes errors.Is(err, ErrBlocked) true for any BlockedError.
func (e *BlockedError) Is(target error) bool {
	return target == ErrBlocked
}

// AuditUnavailable reports whether the block came from a failed audit.
func (e *BlockedError) AuditUnavailable() bool {
	return e.Reason == model.ReasonAuditUnavailable
}
