package scenario

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/auditgate/internal/agent"
	"github.com/ppiankov/auditgate/internal/engine"
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

// Run dispatches every case in s through the Planner guarded by auditor.
// Cases are independent; each gets a fresh task ID.
func Run(ctx context.Context, s *Scenario, auditor policy.Auditor) (*RunResult, error) {
	quiet := slog.New(slog.NewTextHandler(io.Discard, nil))
	planner := &agent.Planner{Logger: quiet}
	ops, err := planner.Operations(auditor, gate.WithLogger(quiet))
	if err != nil {
		return nil, err
	}

	result := &RunResult{
		Name:  s.Name,
		Total: len(s.Cases),
	}

	for i, c := range s.Cases {
		cr := runCase(ctx, ops, s, c)
		cr.Index = i + 1
		if cr.Passed {
			result.Passed++
		} else {
			result.Failed++
		}
		result.Cases = append(result.Cases, cr)
	}
	return result, nil
}

func runCase(ctx context.Context, ops *gate.Operations[string], s *Scenario, c Case) CaseResult {
	name := c.Principle
	if name == "" {
		name = s.Principle
	}
	if name == "" {
		name = string(model.NonHarm)
	}

	cr := CaseResult{
		Description: c.Description,
		Principle:   name,
		Expected:    strings.ToUpper(c.Expect),
	}

	principle, err := model.ParsePrinciple(name)
	if err != nil {
		cr.Error = err.Error()
		return cr
	}
	operation := c.Operation
	if operation == "" {
		operation = engine.DefaultOperation
	}

	out, err := ops.Dispatch(ctx, operation, model.NewTask(c.Description, principle))
	if err != nil {
		cr.Error = err.Error()
		return cr
	}

	cr.Actual = string(out.Status)
	cr.Reason = out.Reason
	cr.Passed = cr.Actual == cr.Expected &&
		(c.ReasonContains == "" || strings.Contains(strings.ToLower(out.Reason), strings.ToLower(c.ReasonContains)))
	return cr
}

// Load parses a scenario YAML file.
func Load(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}

	var s Scenario
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	for i, c := range s.Cases {
		switch strings.ToUpper(c.Expect) {
		case string(model.Completed), string(model.Blocked):
		default:
			return nil, fmt.Errorf("scenario %s case %d: expect must be completed or blocked, got %q", path, i+1, c.Expect)
		}
	}
	return &s, nil
}

// LoadAndRun loads a scenario YAML file and the policy, and runs.
func LoadAndRun(ctx context.Context, path, policyPath string) (*RunResult, error) {
	s, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg, err := policy.LoadConfig(policyPath)
	if err != nil {
		return nil, fmt.Errorf("load policy: %w", err)
	}

	result, err := Run(ctx, s, policy.Build(cfg))
	if err != nil {
		return nil, err
	}
	result.File = path
	return result, nil
}
