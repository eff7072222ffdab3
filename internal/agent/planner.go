package agent

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

// Operation names exposed by the Planner.
const (
	OpExecuteTask = "execute_task"
	OpPlan        = "plan"
)

// DefaultName is the agent name used when none is configured.
const DefaultName = "Planner-Alpha"

// Planner is the cognition side of an agent: it is free to plan, but every
// action it takes goes through the gate.
type Planner struct {
	Name   string
	Logger *slog.Logger
}

// ExecuteTask carries out the task and reports what was done.
func (p *Planner) ExecuteTask(ctx context.Context, task model.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.logger().Info("executing task", "agent", p.name(), "task_id", task.ID, "principle", task.Principle)
	return fmt.Sprintf("%s executed task %s: %s", p.name(), task.ID, task.Description), nil
}

// Plan breaks the task description into ordered steps, one per clause.
func (p *Planner) Plan(ctx context.Context, task model.Task) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	steps := splitSteps(task.Description)
	if len(steps) == 0 {
		return fmt.Sprintf("%s has nothing to plan for task %s", p.name(), task.ID), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s plan for task %s:", p.name(), task.ID)
	for i, s := range steps {
		fmt.Fprintf(&b, "\n  %d. %s", i+1, s)
	}
	return b.String(), nil
}

// Operations returns the Planner's operations, each behind the auditor.
func (p *Planner) Operations(auditor policy.Auditor, opts ...gate.Option) (*gate.Operations[string], error) {
	ops, err := gate.NewOperations[string](auditor, opts...)
	if err != nil {
		return nil, err
	}
	if err := ops.Register(OpExecuteTask, gate.ActionFunc[string](p.ExecuteTask)); err != nil {
		return nil, err
	}
	if err := ops.Register(OpPlan, gate.ActionFunc[string](p.Plan)); err != nil {
		return nil, err
	}
	return ops, nil
}

func (p *Planner) name() string {
	if p.Name == "" {
		return DefaultName
	}
	return p.Name
}

func (p *Planner) logger() *slog.Logger {
	if p.Logger == nil {
		return slog.Default()
	}
	return p.Logger
}

func splitSteps(desc string) []string {
	fields := strings.FieldsFunc(desc, func(r rune) bool {
		return r == ',' || r == ';' || r == '.' || r == '\n'
	})
	var steps []string
	for _, f := range fields {
		for _, part := range strings.Split(f, " then ") {
			if s := strings.TrimSpace(part); s != "" {
				steps = append(steps, s)
			}
		}
	}
	return steps
}
