package policy

import (
	"context"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ppiankov/auditgate/internal/model"
)

// Auditor judges whether a task may run. Implementations must be safe for
// concurrent use, must not mutate the task, and must return (no blocking
// forever). An error means compliance could not be determined.
type Auditor interface {
	Evaluate(ctx context.Context, task model.Task) (model.Verdict, error)
}

// ErrPanic marks an evaluation that panicked.
var ErrPanic = errors.New("auditor panicked")

// SafeEvaluate calls a.Evaluate and reports a panic as an error wrapping
// ErrPanic. Every goroutine that runs an auditor goes through it.
func SafeEvaluate(ctx context.Context, a Auditor, task model.Task) (v model.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			v, err = model.Verdict{}, fmt.Errorf("%w: %v", ErrPanic, r)
		}
	}()
	return a.Evaluate(ctx, task)
}

// AuditorFunc adapts a function to the Auditor interface.
type AuditorFunc func(ctx context.Context, task model.Task) (model.Verdict, error)

// Evaluate calls f.
func (f AuditorFunc) Evaluate(ctx context.Context, task model.Task) (model.Verdict, error) {
	return f(ctx, task)
}

// All combines auditors. Members are evaluated concurrently; the first
// non-compliant verdict in declaration order wins. Any member error fails
// the whole evaluation.
func All(auditors ...Auditor) Auditor {
	return allOf(auditors)
}

type allOf []Auditor

func (a allOf) Evaluate(ctx context.Context, task model.Task) (model.Verdict, error) {
	switch len(a) {
	case 0:
		return model.Approve(), nil
	case 1:
		return SafeEvaluate(ctx, a[0], task)
	}

	verdicts := make([]model.Verdict, len(a))
	g, gctx := errgroup.WithContext(ctx)
	for i, auditor := range a {
		g.Go(func() error {
			v, err := SafeEvaluate(gctx, auditor, task)
			if err != nil {
				return err
			}
			verdicts[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return model.Verdict{}, err
	}

	for _, v := range verdicts {
		if !v.Compliant {
			return v, nil
		}
	}
	return model.Approve(), nil
}

// WithTimeout bounds the evaluation of a. A zero or negative d returns a
// unchanged.
func WithTimeout(a Auditor, d time.Duration) Auditor {
	if d <= 0 {
		return a
	}
	return &timeoutAuditor{inner: a, timeout: d}
}

type timeoutAuditor struct {
	inner   Auditor
	timeout time.Duration
}

func (t *timeoutAuditor) Evaluate(ctx context.Context, task model.Task) (model.Verdict, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		v   model.Verdict
		err error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := SafeEvaluate(ctx, t.inner, task)
		ch <- result{v, err}
	}()

	select {
	case r := <-ch:
		return r.v, r.err
	case <-ctx.Done():
		return model.Verdict{}, fmt.Errorf("audit timed out after %s: %w", t.timeout, ctx.Err())
	}
}
