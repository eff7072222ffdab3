package auditgate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/ppiankov/auditgate/internal/gate"
)

func newTestClient(t *testing.T, opts ...Option) *Client {
	t.Helper()
	opts = append([]Option{
		WithPolicy(filepath.Join(t.TempDir(), "policy.yaml")),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	c, err := New(opts...)
	if err != nil {
		t.Fatalf("failed to create client: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestCheck(t *testing.T) {
	c := newTestClient(t)

	r := c.Check(context.Background(), NewTask("Optimize data structure for efficiency", Efficiency))
	if !r.Compliant {
		t.Errorf("expected compliant, got %+v", r)
	}

	r = c.Check(context.Background(), NewTask("Initiate high risk connection", NonHarm))
	if r.Compliant {
		t.Fatal("expected non-compliant")
	}
	if r.Principle != NonHarm {
		t.Errorf("principle = %q", r.Principle)
	}
}

func TestDispatch(t *testing.T) {
	c := newTestClient(t, WithAgentName("Planner-Beta"))

	out, err := c.Dispatch(context.Background(), "", NewTask("Optimize data structure", Efficiency))
	if err != nil {
		t.Fatal(err)
	}
	if out.Blocked() || out.Value == "" {
		t.Fatalf("expected completed outcome, got %+v", out)
	}

	out, err = c.Dispatch(context.Background(), "plan", NewTask("waste the budget", Efficiency))
	if err != nil {
		t.Fatal(err)
	}
	if !out.Blocked() {
		t.Fatalf("expected blocked outcome, got %+v", out)
	}

	if _, err := c.Dispatch(context.Background(), "fly", NewTask("x", Efficiency)); !errors.Is(err, gate.ErrUnknownOperation) {
		t.Fatalf("expected ErrUnknownOperation, got %v", err)
	}
}

func TestOperations(t *testing.T) {
	c := newTestClient(t)
	ops := c.Operations()
	if len(ops) != 2 || ops[0] != "execute_task" || ops[1] != "plan" {
		t.Errorf("unexpected operations %v", ops)
	}
	if c.PolicyHash() == "" {
		t.Error("expected policy hash")
	}
}

func TestNewInvalidPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.yaml")
	os.WriteFile(path, []byte("mandates: ["), 0644)
	if _, err := New(WithPolicy(path)); err == nil {
		t.Fatal("expected error for invalid policy")
	}
}
