package gate

import (
	"context"
	"errors"
	"reflect"
	"sync/atomic"
	"testing"

	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

func TestGuardAuditsEveryCall(t *testing.T) {
	var calls atomic.Int32
	fn := func(ctx context.Context, task model.Task) (int, error) {
		calls.Add(1)
		return len(task.Description), nil
	}

	guarded, err := Guard(defaultAuditor(), ActionFunc[int](fn), WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}

	n, err := guarded(context.Background(), model.NewTask("tidy", model.Efficiency))
	if err != nil || n != 4 {
		t.Fatalf("expected 4, got %d, %v", n, err)
	}

	_, err = guarded(context.Background(), model.NewTask("conflict resolution", model.Efficiency))
	if !errors.Is(err, ErrBlocked) {
		t.Fatalf("expected blocked, got %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("expected 1 call, got %d", calls.Load())
	}
}

func TestGuardNilInputs(t *testing.T) {
	if _, err := Guard[int](defaultAuditor(), nil); !errors.Is(err, ErrNilAction) {
		t.Errorf("expected ErrNilAction, got %v", err)
	}
	fn := ActionFunc[int](func(context.Context, model.Task) (int, error) { return 0, nil })
	if _, err := Guard(nil, fn); !errors.Is(err, ErrNilAuditor) {
		t.Errorf("expected ErrNilAuditor, got %v", err)
	}
}

func TestOperationsRouteEveryOperationThroughAudit(t *testing.T) {
	var audited atomic.Int32
	auditor := policy.AuditorFunc(func(ctx context.Context, task model.Task) (model.Verdict, error) {
		audited.Add(1)
		return policy.NewKeyword(policy.DefaultTerms()).Evaluate(ctx, task)
	})

	ops, err := NewOperations[string](auditor, WithLogger(quiet))
	if err != nil {
		t.Fatal(err)
	}
	execute := &countingAction{value: "exec"}
	plan := &countingAction{value: "plan"}
	if err := ops.Register("execute_task", execute); err != nil {
		t.Fatal(err)
	}
	if err := ops.Register("plan", plan); err != nil {
		t.Fatal(err)
	}

	for _, name := range ops.Names() {
		out, err := ops.Dispatch(context.Background(), name, model.NewTask("avoid harm", model.NonHarm))
		if err != nil {
			t.Fatal(err)
		}
		if !out.IsBlocked() {
			t.Errorf("%s: expected blocked", name)
		}
	}
	if execute.calls.Load() != 0 || plan.calls.Load() != 0 {
		t.Error("a blocked operation ran")
	}

	out, err := ops.Dispatch(context.Background(), "plan", model.NewTask("Optimize", model.Efficiency))
	if err != nil || out.IsBlocked() {
		t.Fatalf("expected plan to complete, got %+v, %v", out, err)
	}
	if audited.Load() != 3 {
		t.Errorf("expected 3 audits, got %d", audited.Load())
	}
}

func TestOperationsUnknownAndDuplicate(t *testing.T) {
	var audited atomic.Int32
	auditor := policy.AuditorFunc(func(context.Context, model.Task) (model.Verdict, error) {
		audited.Add(1)
		return model.Approve(), nil
	})
	ops, _ := NewOperations[string](auditor, WithLogger(quiet))
	ops.Register("execute_task", &countingAction{})

	_, err := ops.Dispatch(context.Background(), "delete_everything", model.NewTask("x", model.NonHarm))
	if !errors.Is(err, ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
	if audited.Load() != 0 {
		t.Error("unknown operation should not be audited")
	}

	if err := ops.Register("execute_task", &countingAction{}); !errors.Is(err, ErrDuplicateOperation) {
		t.Errorf("expected ErrDuplicateOperation, got %v", err)
	}
	if err := ops.Register("", &countingAction{}); err == nil {
		t.Error("expected error for empty name")
	}
	if err := ops.Register("nil", nil); !errors.Is(err, ErrNilAction) {
		t.Errorf("expected ErrNilAction, got %v", err)
	}

	if !reflect.DeepEqual(ops.Names(), []string{"execute_task"}) {
		t.Errorf("unexpected names %v", ops.Names())
	}
	if !ops.Has("execute_task") || ops.Has("nil") {
		t.Error("Has reports wrong membership")
	}
}

func TestNewOperationsNilAuditor(t *testing.T) {
	if _, err := NewOperations[string](nil); !errors.Is(err, ErrNilAuditor) {
		t.Errorf("expected ErrNilAuditor, got %v", err)
	}
}
