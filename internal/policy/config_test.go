package policy

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/auditgate/internal/model"
)

func writePolicy(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "policy.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultConfigValues(t *testing.T) {
	cfg := DefaultConfig()

	if len(cfg.ForbiddenTerms) != 4 {
		t.Fatalf("expected 4 forbidden terms, got %d", len(cfg.ForbiddenTerms))
	}
	if cfg.Timeout != 5*time.Second {
		t.Errorf("expected timeout=5s, got %s", cfg.Timeout)
	}
	if cfg.Judge.Enabled() {
		t.Error("judge should be disabled by default")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	cfg, err := LoadConfig("/nonexistent/path/policy.yaml")
	if err != nil {
		t.Fatalf("expected no error for missing file, got %v", err)
	}
	if len(cfg.ForbiddenTerms) != 4 {
		t.Errorf("expected default terms, got %d", len(cfg.ForbiddenTerms))
	}
}

func TestLoadConfigOverridesTerms(t *testing.T) {
	path := writePolicy(t, `
forbidden_terms:
  - term: delete
    principle: non_harm
timeout: 250ms
`)
	cfg, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if len(cfg.ForbiddenTerms) != 1 || cfg.ForbiddenTerms[0].Term != "delete" {
		t.Fatalf("expected terms replaced by file, got %+v", cfg.ForbiddenTerms)
	}
	if cfg.Timeout != 250*time.Millisecond {
		t.Errorf("expected timeout=250ms, got %s", cfg.Timeout)
	}
	// Mandates were not in the file, defaults stay.
	if cfg.Mandates.For(model.Efficiency) == "" {
		t.Error("expected default mandate for efficiency")
	}
}

func TestLoadConfigInvalidYAML(t *testing.T) {
	path := writePolicy(t, "forbidden_terms: [unclosed")
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for invalid YAML")
	}
}

func TestLoadConfigUnknownPrinciple(t *testing.T) {
	path := writePolicy(t, `
forbidden_terms:
  - term: chaos
    principle: entropy
`)
	_, err := LoadConfig(path)
	if err == nil || !strings.Contains(err.Error(), "entropy") {
		t.Fatalf("expected unknown principle error, got %v", err)
	}
}

func TestLoadConfigJudgeNeedsModel(t *testing.T) {
	path := writePolicy(t, `
judge:
  api_url: http://localhost:9/v1/chat/completions
`)
	if _, err := LoadConfig(path); err == nil {
		t.Fatal("expected error for judge without model")
	}
}

func TestLoadConfigWithHashStable(t *testing.T) {
	path := writePolicy(t, "timeout: 1s\n")

	_, h1, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	_, h2, err := LoadConfigWithHash(path)
	if err != nil {
		t.Fatal(err)
	}
	if h1 != h2 {
		t.Errorf("hash not stable: %s vs %s", h1, h2)
	}
	if !strings.HasPrefix(h1, "sha256:") {
		t.Errorf("expected sha256: prefix, got %s", h1)
	}

	_, missing, err := LoadConfigWithHash(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if missing == h1 {
		t.Error("missing file should hash differently from a real file")
	}
}

func TestDefaultConfigYAMLRoundTrip(t *testing.T) {
	cfg := &PolicyConfig{}
	if err := yaml.Unmarshal([]byte(DefaultConfigYAML()), cfg); err != nil {
		t.Fatalf("default YAML does not parse: %v", err)
	}
	if len(cfg.ForbiddenTerms) != len(DefaultTerms()) {
		t.Errorf("default YAML has %d terms, built-in has %d", len(cfg.ForbiddenTerms), len(DefaultTerms()))
	}
	if cfg.Timeout != DefaultConfig().Timeout {
		t.Errorf("default YAML timeout %s differs from built-in %s", cfg.Timeout, DefaultConfig().Timeout)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default YAML should validate: %v", err)
	}
}

func TestBuildDefaultBlocksRisk(t *testing.T) {
	auditor := Build(DefaultConfig())
	v, err := auditor.Evaluate(context.Background(), model.NewTask("Initiate high risk connection without verification", model.NonHarm))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v.Compliant {
		t.Fatal("expected non-compliant verdict")
	}
	if !strings.Contains(v.Reason, "risk") {
		t.Errorf("expected reason to mention risk, got %q", v.Reason)
	}
}

func TestPrinciplesSummary(t *testing.T) {
	infos := DefaultConfig().Principles()
	if len(infos) != 3 {
		t.Fatalf("expected 3 principles, got %d", len(infos))
	}
	if infos[0].Principle != model.NonHarm {
		t.Errorf("expected non_harm first, got %s", infos[0].Principle)
	}
	if len(infos[0].Terms) != 2 {
		t.Errorf("expected 2 non_harm terms, got %v", infos[0].Terms)
	}
	if len(infos[2].Terms) != 0 {
		t.Errorf("expected no truthfulness terms, got %v", infos[2].Terms)
	}
}
