package policy

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/auditgate/internal/alert"
	"github.com/ppiankov/auditgate/internal/model"
)

// PolicyConfig holds all configurable audit parameters.
type PolicyConfig struct {
	ForbiddenTerms []TermRule          `yaml:"forbidden_terms"`
	Mandates       Mandates            `yaml:"mandates"`
	Timeout        time.Duration       `yaml:"timeout"`
	Judge          JudgeConfig         `yaml:"judge"`
	Alerts         []alert.AlertConfig `yaml:"alerts"`
}

// DefaultConfig returns the built-in policy config.
func DefaultConfig() *PolicyConfig {
	return &PolicyConfig{
		ForbiddenTerms: DefaultTerms(),
		Mandates:       DefaultMandates(),
		Timeout:        5 * time.Second,
	}
}

// DefaultPath returns ~/.auditgate/policy.yaml, or "" when the home
// directory cannot be determined.
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".auditgate", "policy.yaml")
}

// LoadConfig loads policy configuration from a YAML file.
// Empty path falls back to ~/.auditgate/policy.yaml.
// Missing file returns defaults. Invalid YAML returns an error.
func LoadConfig(path string) (*PolicyConfig, error) {
	cfg, _, err := LoadConfigWithHash(path)
	return cfg, err
}

// LoadConfigWithHash loads policy configuration and returns its SHA-256 hash.
// The hash is computed over the raw YAML bytes on disk.
// When no file exists (defaults used), the hash is the SHA-256 of empty input.
func LoadConfigWithHash(path string) (*PolicyConfig, string, error) {
	if path == "" {
		path = DefaultPath()
	}

	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil && !os.IsNotExist(err) {
			return nil, "", fmt.Errorf("failed to read policy config: %w", err)
		}
	}

	h := sha256.Sum256(data)
	hash := "sha256:" + hex.EncodeToString(h[:])

	// Start with defaults, YAML overwrites only specified fields
	cfg := DefaultConfig()
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, "", fmt.Errorf("failed to parse policy config: %w", err)
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", err
	}

	return cfg, hash, nil
}

// Validate rejects unknown principles and incomplete judge settings.
func (c *PolicyConfig) Validate() error {
	for i, r := range c.ForbiddenTerms {
		if r.Principle != "" && !r.Principle.Valid() {
			return fmt.Errorf("forbidden_terms[%d]: unknown principle %q", i, r.Principle)
		}
	}
	for p := range c.Mandates {
		if !p.Valid() {
			return fmt.Errorf("mandates: unknown principle %q", p)
		}
	}
	if c.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", c.Timeout)
	}
	if c.Judge.Enabled() && c.Judge.Model == "" {
		return fmt.Errorf("judge: model is required when api_url is set")
	}
	for i, a := range c.Alerts {
		if a.URL == "" {
			return fmt.Errorf("alerts[%d]: url is required", i)
		}
	}
	return nil
}

// Build assembles the auditor described by the config: the keyword check,
// plus the judge when configured, bounded by the timeout.
func Build(cfg *PolicyConfig) Auditor {
	var auditor Auditor = NewKeyword(cfg.ForbiddenTerms)
	if cfg.Judge.Enabled() {
		jc := cfg.Judge
		if jc.APIKey == "" && jc.APIKeyEnv != "" {
			jc.APIKey = os.Getenv(jc.APIKeyEnv)
		}
		auditor = All(auditor, NewJudge(jc, cfg.Mandates))
	}
	return WithTimeout(auditor, cfg.Timeout)
}

// Principles returns the principles in declaration order with their mandates.
func (c *PolicyConfig) Principles() []PrincipleInfo {
	out := make([]PrincipleInfo, 0, len(model.Principles))
	for _, p := range model.Principles {
		info := PrincipleInfo{Principle: p, Mandate: c.Mandates.For(p)}
		for _, r := range c.ForbiddenTerms {
			if r.Principle == p {
				info.Terms = append(info.Terms, r.Term)
			}
		}
		out = append(out, info)
	}
	return out
}

// PrincipleInfo summarizes one principle for display.
type PrincipleInfo struct {
	Principle model.Principle `json:"principle"`
	Mandate   string          `json:"mandate"`
	Terms     []string        `json:"forbidden_terms,omitempty"`
}

// DefaultConfigYAML returns the default policy as commented YAML.
func DefaultConfigYAML() string {
	return `# auditgate policy configuration
# Generated by: auditgate init-policy
#
# Every task is audited before it runs. A task is blocked when its
# description contains a forbidden term (case-insensitive), or when the
# optional judge service rejects it. If the audit cannot complete, the
# task is blocked with reason AUDIT_UNAVAILABLE.

# Forbidden terms, checked in order. First match decides the reason.
# principle: non_harm | efficiency | truthfulness
forbidden_terms:
  - term: conflict
    principle: efficiency
  - term: waste
    principle: efficiency
  - term: risk
    principle: non_harm
  - term: harm
    principle: non_harm

# Wording of each principle, sent to the judge service.
mandates:
  non_harm: "Protect self and collective system. Reject risky transactions."
  efficiency: "Optimal resource utilization. No high-fidelity waste."
  truthfulness: "Adhere to verifiable ground truth. Resolve ambiguity by this config."

# Upper bound on a single audit. Exceeding it blocks the task.
timeout: 5s

# Optional external judgment service (OpenAI-compatible chat completions).
# judge:
#   api_url: http://localhost:11434/v1/chat/completions
#   api_key_env: AUDITGATE_JUDGE_KEY
#   model: llama3.2
#   max_tokens: 200
#   timeout: 30s

# Optional webhooks for blocked tasks.
# events: blocked | audit_unavailable
# alerts:
#   - url: https://hooks.slack.com/services/XXX
#     format: slack
#     events: [blocked, audit_unavailable]
`
}
