package model

// Phase is a step of the per-invocation state machine:
//
//	INVOKED -> AUDITING -> APPROVED -> EXECUTING -> COMPLETED
//	INVOKED -> AUDITING -> REJECTED -> BLOCKED
type Phase string

const (
	PhaseInvoked   Phase = "INVOKED"
	PhaseAuditing  Phase = "AUDITING"
	PhaseApproved  Phase = "APPROVED"
	PhaseRejected  Phase = "REJECTED"
	PhaseExecuting Phase = "EXECUTING"
	PhaseCompleted Phase = "COMPLETED"
	PhaseBlocked   Phase = "BLOCKED"
)

var transitions = map[Phase][]Phase{
	PhaseInvoked:   {PhaseAuditing},
	PhaseAuditing:  {PhaseApproved, PhaseRejected},
	PhaseApproved:  {PhaseExecuting},
	PhaseRejected:  {PhaseBlocked},
	PhaseExecuting: {PhaseCompleted},
}

// CanTransition reports whether to is a legal successor of from.
func CanTransition(from, to Phase) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Terminal reports whether p ends an invocation.
func (p Phase) Terminal() bool {
	return p == PhaseCompleted || p == PhaseBlocked
}
