package gate

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

// Guard wraps fn so that every call is audited first. The returned function
// reports blocked tasks as *BlockedError.
func Guard[T any](auditor policy.Auditor, fn ActionFunc[T], opts ...Option) (ActionFunc[T], error) {
	if fn == nil {
		return nil, ErrNilAction
	}
	b, err := New[T](fn, auditor, opts...)
	if err != nil {
		return nil, err
	}
	return b.Perform, nil
}

// Operations exposes a set of named actions, each behind its own Boundary
// sharing one auditor. Registered actions are reachable only through
// Dispatch.
type Operations[T any] struct {
	auditor policy.Auditor
	opts    []Option

	mu  sync.RWMutex
	ops map[string]*Boundary[T]
}

// NewOperations creates an empty operation set audited by auditor. opts are
// applied to every registered operation.
func NewOperations[T any](auditor policy.Auditor, opts ...Option) (*Operations[T], error) {
	if auditor == nil {
		return nil, ErrNilAuditor
	}
	return &Operations[T]{
		auditor: auditor,
		opts:    opts,
		ops:     make(map[string]*Boundary[T]),
	}, nil
}

// Register guards action under name.
func (o *Operations[T]) Register(name string, action Action[T]) error {
	if name == "" {
		return fmt.Errorf("gate: operation name is empty")
	}
	opts := append(append([]Option(nil), o.opts...), WithName(name))
	b, err := New(action, o.auditor, opts...)
	if err != nil {
		return fmt.Errorf("register %q: %w", name, err)
	}

	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.ops[name]; ok {
		return fmt.Errorf("%w: %s", ErrDuplicateOperation, name)
	}
	o.ops[name] = b
	return nil
}

// Dispatch audits and runs the named operation. Unknown names fail with
// ErrUnknownOperation before anything is audited or executed.
func (o *Operations[T]) Dispatch(ctx context.Context, name string, task model.Task) (model.Outcome[T], error) {
	o.mu.RLock()
	b, ok := o.ops[name]
	o.mu.RUnlock()
	if !ok {
		var zero model.Outcome[T]
		return zero, fmt.Errorf("%w: %s", ErrUnknownOperation, name)
	}
	return b.Dispatch(ctx, task)
}

// Names returns the registered operation names in sorted order.
func (o *Operations[T]) Names() []string {
	o.mu.RLock()
	defer o.mu.RUnlock()
	names := make([]string, 0, len(o.ops))
	for n := range o.ops {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Has reports whether name is registered.
func (o *Operations[T]) Has(name string) bool {
	o.mu.RLock()
	defer o.mu.RUnlock()
	_, ok := o.ops[name]
	return ok
}
