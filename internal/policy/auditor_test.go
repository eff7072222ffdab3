package policy

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/auditgate/internal/model"
)

func fixed(v model.Verdict) Auditor {
	return AuditorFunc(func(context.Context, model.Task) (model.Verdict, error) {
		return v, nil
	})
}

func TestAllEmptyApproves(t *testing.T) {
	v, err := All().Evaluate(context.Background(), model.NewTask("x", model.NonHarm))
	if err != nil || !v.Compliant {
		t.Fatalf("expected approve, got %+v, %v", v, err)
	}
}

func TestAllFirstRejectionInOrderWins(t *testing.T) {
	first := model.Reject(model.NonHarm, "first")
	second := model.Reject(model.Efficiency, "second")

	// Make the first auditor slower so declaration order, not completion
	// order, has to decide.
	slow := AuditorFunc(func(ctx context.Context, _ model.Task) (model.Verdict, error) {
		time.Sleep(20 * time.Millisecond)
		return first, nil
	})

	v, err := All(fixed(model.Approve()), slow, fixed(second)).Evaluate(context.Background(), model.NewTask("x", model.NonHarm))
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != "first" {
		t.Errorf("expected first rejection, got %q", v.Reason)
	}
}

func TestAllApprovesWhenEveryMemberApproves(t *testing.T) {
	var calls atomic.Int32
	counting := AuditorFunc(func(context.Context, model.Task) (model.Verdict, error) {
		calls.Add(1)
		return model.Approve(), nil
	})

	v, err := All(counting, counting, counting).Evaluate(context.Background(), model.NewTask("x", model.NonHarm))
	if err != nil || !v.Compliant {
		t.Fatalf("expected approve, got %+v, %v", v, err)
	}
	if calls.Load() != 3 {
		t.Errorf("expected 3 evaluations, got %d", calls.Load())
	}
}

func TestAllMemberErrorFails(t *testing.T) {
	boom := errors.New("judge offline")
	failing := AuditorFunc(func(context.Context, model.Task) (model.Verdict, error) {
		return model.Verdict{}, boom
	})

	_, err := All(fixed(model.Approve()), failing).Evaluate(context.Background(), model.NewTask("x", model.NonHarm))
	if !errors.Is(err, boom) {
		t.Fatalf("expected member error, got %v", err)
	}
}

func TestWithTimeoutExpires(t *testing.T) {
	// The inner auditor ignores its context; the wrapper must still return.
	release := make(chan struct{})
	defer close(release)
	hang := AuditorFunc(func(ctx context.Context, _ model.Task) (model.Verdict, error) {
		<-release
		return model.Approve(), nil
	})

	_, err := WithTimeout(hang, 10*time.Millisecond).Evaluate(context.Background(), model.NewTask("x", model.NonHarm))
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}
}

func TestWithTimeoutPassesThrough(t *testing.T) {
	inner := fixed(model.Reject(model.Efficiency, "waste"))
	v, err := WithTimeout(inner, time.Second).Evaluate(context.Background(), model.NewTask("x", model.NonHarm))
	if err != nil {
		t.Fatal(err)
	}
	if v.Reason != "waste" {
		t.Errorf("expected inner verdict, got %+v", v)
	}

	k := NewKeyword(nil)
	if WithTimeout(k, 0) != Auditor(k) {
		t.Error("zero timeout should return the inner auditor")
	}
}

func panicking(msg string) Auditor {
	return AuditorFunc(func(context.Context, model.Task) (model.Verdict, error) {
		panic(msg)
	})
}

func TestSafeEvaluateRecoversPanic(t *testing.T) {
	_, err := SafeEvaluate(context.Background(), panicking("nil map write"), model.NewTask("x", model.NonHarm))
	if !errors.Is(err, ErrPanic) {
		t.Fatalf("expected ErrPanic, got %v", err)
	}
	if !strings.Contains(err.Error(), "nil map write") {
		t.Errorf("expected panic value in error, got %q", err)
	}
}

func TestWrappersRecoverPanicInGoroutine(t *testing.T) {
	keyword := NewKeyword(DefaultTerms())
	tests := []struct {
		name    string
		auditor Auditor
	}{
		{"timeout", WithTimeout(panicking("auditor bug"), time.Second)},
		{"all", All(keyword, panicking("auditor bug"))},
		{"all single", All(panicking("auditor bug"))},
		{"timeout around all", WithTimeout(All(keyword, panicking("auditor bug")), time.Second)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.auditor.Evaluate(context.Background(), model.NewTask("tidy up", model.Efficiency))
			if !errors.Is(err, ErrPanic) {
				t.Fatalf("expected ErrPanic, got %v", err)
			}
		})
	}
}
