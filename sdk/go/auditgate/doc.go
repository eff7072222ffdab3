// Package auditgate provides in-process task auditing for Go agent code.
// It wraps functions so every call is audited against the configured
// principles before it runs, and fails closed when the audit cannot
// complete.
//
// Usage:
//
//	ag, err := auditgate.New(auditgate.WithPolicy("policy.yaml"))
//	send, err := auditgate.Wrap(ag, sendPayment, auditgate.WrapWithName("send_payment"))
//	receipt, err := send(ctx, auditgate.NewTask("pay invoice 42", auditgate.NonHarm))
//	if errors.Is(err, auditgate.ErrBlocked) {
//	    // the payment never ran
//	}
//
// The SDK links directly against internal packages for zero-subprocess
// overhead. External users import github.com/ppiankov/auditgate/sdk/go/auditgate.
package auditgate
