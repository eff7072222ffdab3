package client

import (
	"context"
	"io"
	"log/slog"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/server"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// startTestServer creates a server and returns its address.
func startTestServer(t *testing.T) string {
	t.Helper()

	srv, err := server.New(server.Config{
		PolicyPath: filepath.Join(t.TempDir(), "policy.yaml"),
		Logger:     quietLogger(),
	})
	if err != nil {
		t.Fatalf("server.New: %v", err)
	}

	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	go srv.ServeOn(lis)
	t.Cleanup(srv.GracefulStop)

	return lis.Addr().String()
}

func newClient(t *testing.T, addr string) *Client {
	t.Helper()
	c, err := New(addr)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { c.Close() })
	return c
}

func TestClientEvaluate(t *testing.T) {
	c := newClient(t, startTestServer(t))

	v, err := c.Evaluate(context.Background(), model.NewTask("Optimize data structure", model.Efficiency))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if !v.Compliant {
		t.Errorf("expected compliant, got %+v", v)
	}

	v, err = c.Evaluate(context.Background(), model.NewTask("take a big risk", model.NonHarm))
	if err != nil {
		t.Fatalf("Evaluate: %v", err)
	}
	if v.Compliant || v.Principle != model.NonHarm {
		t.Errorf("expected non_harm rejection, got %+v", v)
	}
}

func TestClientDispatch(t *testing.T) {
	c := newClient(t, startTestServer(t))

	out, err := c.Dispatch(context.Background(), "plan", model.NewTask("fetch, then sort", model.Efficiency))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if out.Status != model.Completed {
		t.Errorf("expected completed, got %+v", out)
	}
}

func TestRemoteAuditorGuardsLocalBoundary(t *testing.T) {
	c := newClient(t, startTestServer(t))

	runs := 0
	b, err := gate.New[string](gate.ActionFunc[string](func(context.Context, model.Task) (string, error) {
		runs++
		return "done", nil
	}), c, gate.WithLogger(quietLogger()))
	if err != nil {
		t.Fatal(err)
	}

	out, _ := b.Dispatch(context.Background(), model.NewTask("archive old tickets", model.Efficiency))
	if out.Status != model.Completed || runs != 1 {
		t.Fatalf("expected one completed run, got %+v runs=%d", out, runs)
	}

	out, _ = b.Dispatch(context.Background(), model.NewTask("resolve the conflict", model.Efficiency))
	if !out.IsBlocked() || runs != 1 {
		t.Fatalf("expected block without run, got %+v runs=%d", out, runs)
	}
}

func TestClientFailClosed(t *testing.T) {
	// Reserve a port, then close it so nothing is listening.
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	addr := lis.Addr().String()
	lis.Close()

	c := newClient(t, addr)
	c.SetTimeout(500 * time.Millisecond)

	if _, err := c.Evaluate(context.Background(), model.NewTask("x", model.NonHarm)); err == nil {
		t.Fatal("expected error from unreachable server")
	}

	runs := 0
	b, _ := gate.New[int](gate.ActionFunc[int](func(context.Context, model.Task) (int, error) {
		runs++
		return 1, nil
	}), c, gate.WithLogger(quietLogger()))

	out, err := b.Dispatch(context.Background(), model.NewTask("tidy up", model.Efficiency))
	if err != nil {
		t.Fatalf("Dispatch: %v", err)
	}
	if !out.AuditUnavailable() {
		t.Errorf("expected AUDIT_UNAVAILABLE, got %+v", out)
	}
	if runs != 0 {
		t.Error("action ran despite unreachable auditor")
	}
}
