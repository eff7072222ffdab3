// Package gate is the interception boundary between callers and agent
// actions. A Boundary binds one Action and one policy.Auditor at
// construction; every call audits the task first and runs the action only
// on a compliant verdict.
//
// Rejections are outcomes, not errors: Dispatch returns a BLOCKED
// model.Outcome with the verdict's reason. An auditor that errors, panics or
// is cancelled blocks the task with model.ReasonAuditUnavailable. Errors
// returned by an approved action pass through unchanged.
//
//	b, err := gate.New(gate.ActionFunc[string](run), policy.NewKeyword(policy.DefaultTerms()))
//	out, err := b.Dispatch(ctx, model.NewTask("Optimize data structure", model.Efficiency))
//	if out.IsBlocked() {
//	    log.Println("blocked:", out.Reason)
//	}
package gate
