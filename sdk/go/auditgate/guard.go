package auditgate

import (
	"context"
	"errors"

	"github.com/ppiankov/auditgate/internal/gate"
)

// ErrNilClient is returned by Wrap when no Client is given.
var ErrNilClient = errors.New("auditgate: client is nil")

// Func is the function signature that Wrap guards.
type Func[T any] func(ctx context.Context, task Task) (T, error)

// Wrap returns a function that audits each task before calling fn. If the
// audit rejects the task or cannot complete, fn is not called and a
// *BlockedError is returned.
func Wrap[T any](c *Client, fn Func[T], opts ...WrapOption) (Func[T], error) {
	wcfg := wrapConfig{name: "wrapped"}
	for _, o := range opts {
		o(&wcfg)
	}
	if c == nil {
		return nil, ErrNilClient
	}
	if fn == nil {
		return nil, gate.ErrNilAction
	}

	guarded, err := gate.Guard(c.eng.Auditor, gate.ActionFunc[T](fn),
		gate.WithName(wcfg.name),
		gate.WithLogger(c.cfg.logger),
		gate.WithAlerts(c.eng.Alerts),
	)
	if err != nil {
		return nil, err
	}
	return Func[T](guarded), nil
}
