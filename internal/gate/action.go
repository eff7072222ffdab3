package gate

import (
	"context"

	"github.com/ppiankov/auditgate/internal/model"
)

// Action is the smallest unit of behavior an agent can perform.
type Action[T any] interface {
	Perform(ctx context.Context, task model.Task) (T, error)
}

// ActionFunc adapts a function to the Action interface.
type ActionFunc[T any] func(ctx context.Context, task model.Task) (T, error)

// Perform calls f.
func (f ActionFunc[T]) Perform(ctx context.Context, task model.Task) (T, error) {
	return f(ctx, task)
}
