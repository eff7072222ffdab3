package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ppiankov/auditgate/internal/server"
)

// runCLI executes the root command with args and returns stdout.
func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetFlags()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append([]string{"--log-format", "text", "--log-level", "error"}, args...))
	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func resetFlags() {
	checkPolicy, checkPrinciple, checkRemote, checkFormat = "", "non_harm", "", "text"
	dispatchPolicy, dispatchPrinciple, dispatchOperation = "", "non_harm", "execute_task"
	dispatchAgent, dispatchTaskID, dispatchRemote, dispatchFormat = "Planner-Alpha", "", "", "text"
	dispatchAuditor = ""
	principlesPolicy, principlesFormat = "", "text"
	initPolicyPath, initPolicyForce = "", false
	verifyScenario, verifyPolicy, verifyFormat = "", "", "text"
	diffFormat = "text"
}

// missingPolicy keeps tests off the developer's ~/.auditgate/policy.yaml.
func missingPolicy(t *testing.T) string {
	return filepath.Join(t.TempDir(), "policy.yaml")
}

func TestCheckCompliant(t *testing.T) {
	out, err := runCLI(t, "check", "--policy", missingPolicy(t), "-p", "efficiency", "Optimize", "data", "structure")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if !strings.HasPrefix(out, "COMPLIANT") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCheckRejectedExitsNonZero(t *testing.T) {
	out, err := runCLI(t, "check", "--policy", missingPolicy(t), "Initiate high risk connection")
	if !errors.Is(err, errTaskRefused) {
		t.Fatalf("expected errTaskRefused, got %v", err)
	}
	if !strings.Contains(out, "REJECTED") || !strings.Contains(out, "risk") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestCheckJSON(t *testing.T) {
	out, err := runCLI(t, "check", "--policy", missingPolicy(t), "-f", "json", "tidy", "up")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	var body map[string]any
	if err := json.Unmarshal([]byte(out), &body); err != nil {
		t.Fatalf("invalid JSON %q: %v", out, err)
	}
	if body["compliant"] != true {
		t.Errorf("expected compliant, got %v", body)
	}
}

func TestCheckInvalidPrinciple(t *testing.T) {
	_, err := runCLI(t, "check", "--policy", missingPolicy(t), "-p", "speed", "x")
	if err == nil || errors.Is(err, errTaskRefused) {
		t.Fatalf("expected parse error, got %v", err)
	}
}

func TestDispatch(t *testing.T) {
	out, err := runCLI(t, "dispatch", "--policy", missingPolicy(t), "-o", "plan", "-p", "efficiency", "gather data, then compare")
	if err != nil {
		t.Fatalf("dispatch: %v", err)
	}
	if !strings.Contains(out, "COMPLETED") || !strings.Contains(out, "1. gather data") {
		t.Errorf("unexpected output %q", out)
	}

	out, err = runCLI(t, "dispatch", "--policy", missingPolicy(t), "-p", "efficiency", "waste", "cycles")
	if !errors.Is(err, errTaskRefused) {
		t.Fatalf("expected errTaskRefused, got %v", err)
	}
	if !strings.Contains(out, "BLOCKED") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestDemo(t *testing.T) {
	out, err := runCLI(t, "demo")
	if err != nil {
		t.Fatalf("demo: %v\n%s", err, out)
	}
	if strings.Count(out, "BLOCKED") != 3 || strings.Count(out, "COMPLETED") != 3 {
		t.Errorf("unexpected demo output:\n%s", out)
	}
	if !strings.Contains(out, "AUDIT_UNAVAILABLE") {
		t.Error("demo should show the audit outage scenario")
	}
}

func TestInitPolicy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "conf", "policy.yaml")
	if _, err := runCLI(t, "init-policy", "--path", path); err != nil {
		t.Fatalf("init-policy: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("policy not written: %v", err)
	}
	if !strings.Contains(string(data), "forbidden_terms") {
		t.Error("policy.yaml missing forbidden_terms")
	}

	if _, err := runCLI(t, "init-policy", "--path", path); err == nil {
		t.Fatal("expected error when policy exists")
	}
	if _, err := runCLI(t, "init-policy", "--path", path, "--force"); err != nil {
		t.Fatalf("init-policy --force: %v", err)
	}

	out, err := runCLI(t, "principles", "--policy", path)
	if err != nil {
		t.Fatalf("principles: %v", err)
	}
	for _, p := range []string{"non_harm", "efficiency", "truthfulness"} {
		if !strings.Contains(out, p) {
			t.Errorf("principles output missing %s", p)
		}
	}
}

func TestVersion(t *testing.T) {
	out, err := runCLI(t, "version")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, `"auditgate"`) {
		t.Errorf("unexpected version output %q", out)
	}
}

func TestNewLoggerRejectsBadFormat(t *testing.T) {
	if _, err := newLogger("info", "xml", os.Stderr); err == nil {
		t.Fatal("expected error for unknown format")
	}
	if _, err := newLogger("loud", "text", os.Stderr); err == nil {
		t.Fatal("expected error for unknown level")
	}
}

func TestVerify(t *testing.T) {
	dir := t.TempDir()
	os.WriteFile(filepath.Join(dir, "a.yaml"), []byte(`
name: canonical
cases:
  - description: Optimize data structure for efficiency
    principle: efficiency
    expect: completed
  - description: Initiate high risk connection without verification
    expect: blocked
    reason_contains: risk
`), 0644)

	out, err := runCLI(t, "verify", "--policy", missingPolicy(t), "--scenario", filepath.Join(dir, "*.yaml"))
	if err != nil {
		t.Fatalf("verify: %v\n%s", err, out)
	}
	if !strings.Contains(out, "2 of 2 cases passed.") {
		t.Errorf("unexpected output:\n%s", out)
	}

	os.WriteFile(filepath.Join(dir, "b.yaml"), []byte(`
name: wrong
cases:
  - description: cause harm
    expect: completed
`), 0644)
	out, err = runCLI(t, "verify", "--policy", missingPolicy(t), "--scenario", filepath.Join(dir, "*.yaml"))
	if !errors.Is(err, errTaskRefused) {
		t.Fatalf("expected failure exit, got %v\n%s", err, out)
	}
}

func TestDiff(t *testing.T) {
	dir := t.TempDir()
	oldPath := filepath.Join(dir, "old.yaml")
	newPath := filepath.Join(dir, "new.yaml")
	os.WriteFile(oldPath, []byte("timeout: 5s\n"), 0644)
	os.WriteFile(newPath, []byte("timeout: 1s\nforbidden_terms:\n  - term: leak\n    principle: non_harm\n"), 0644)

	out, err := runCLI(t, "diff", oldPath, newPath)
	if err != nil {
		t.Fatalf("diff: %v", err)
	}
	if !strings.Contains(out, "(stricter)") || !strings.Contains(out, `+ "leak" → non_harm`) {
		t.Errorf("unexpected diff output:\n%s", out)
	}
}

func startServer(t *testing.T) string {
	t.Helper()
	srv, err := server.New(server.Config{
		PolicyPath: missingPolicy(t),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
	if err != nil {
		t.Fatal(err)
	}
	lis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	go srv.ServeOn(lis)
	t.Cleanup(srv.GracefulStop)
	return lis.Addr().String()
}

func TestRemoteCheckAndDelegatedDispatch(t *testing.T) {
	addr := startServer(t)

	out, err := runCLI(t, "check", "--remote", addr, "tidy", "up")
	if err != nil || !strings.HasPrefix(out, "COMPLIANT") {
		t.Fatalf("remote check: %v %q", err, out)
	}

	out, err = runCLI(t, "dispatch", "--remote", addr, "-o", "plan", "-p", "efficiency", "a, then b")
	if err != nil || !strings.Contains(out, "COMPLETED") {
		t.Fatalf("remote dispatch: %v %q", err, out)
	}

	out, err = runCLI(t, "dispatch", "--auditor", addr, "--agent", "Planner-Local", "-p", "efficiency", "cut", "waste")
	if !errors.Is(err, errTaskRefused) || !strings.Contains(out, "BLOCKED") {
		t.Fatalf("delegated dispatch: %v %q", err, out)
	}

	out, err = runCLI(t, "dispatch", "--auditor", addr, "--agent", "Planner-Local", "-p", "efficiency", "index", "tables")
	if err != nil || !strings.Contains(out, "Planner-Local") {
		t.Fatalf("delegated dispatch: %v %q", err, out)
	}
}
