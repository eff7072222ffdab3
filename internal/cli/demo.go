package cli

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ppiankov/auditgate/internal/agent"
	"github.com/ppiankov/auditgate/internal/gate"
	"github.com/ppiankov/auditgate/internal/model"
	"github.com/ppiankov/auditgate/internal/policy"
)

func init() {
	rootCmd.AddCommand(demoCmd)
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run demonstration scenarios",
	Long: "Dispatches a fixed set of tasks to Planner-Alpha under the built-in policy\n" +
		"and shows which complete and which are blocked, including a task\n" +
		"whose audit fails.",
	RunE: runDemo,
}

type demoScenario struct {
	name      string
	task      model.Task
	auditor   policy.Auditor
	wantBlock bool
}

func demoScenarios() []demoScenario {
	keyword := policy.Build(policy.DefaultConfig())
	outage := policy.AuditorFunc(func(context.Context, model.Task) (model.Verdict, error) {
		return model.Verdict{}, errors.New("judge endpoint unreachable")
	})
	return []demoScenario{
		{"valid action", model.NewTask("optimize_database_query", model.Efficiency), keyword, false},
		{"harmful action", model.NewTask("execute_risky_economic_transaction_with_harm", model.NonHarm), keyword, true},
		{"efficient structure", model.NewTask("Optimize data structure for efficiency", model.Efficiency), keyword, false},
		{"unverified connection", model.NewTask("Initiate high risk connection without verification", model.NonHarm), keyword, true},
		{"empty description", model.NewTask("", model.Truthfulness), keyword, false},
		{"audit outage", model.NewTask("Optimize data structure for efficiency", model.Efficiency), outage, true},
	}
}

func runDemo(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, "=== auditgate demo ===")
	fmt.Fprintln(w, "Every task is audited before Planner-Alpha may run it.")
	fmt.Fprintln(w)

	mismatches := 0
	for i, sc := range demoScenarios() {
		blocked, err := runDemoScenario(cmd.Context(), w, i+1, sc)
		if err != nil {
			return err
		}
		if blocked != sc.wantBlock {
			mismatches++
		}
	}

	fmt.Fprintln(w)
	if mismatches > 0 {
		return fmt.Errorf("%d scenario(s) did not behave as expected", mismatches)
	}
	fmt.Fprintln(w, "All scenarios behaved as expected.")
	return nil
}

func runDemoScenario(ctx context.Context, w io.Writer, n int, sc demoScenario) (bool, error) {
	planner := &agent.Planner{Name: agent.DefaultName, Logger: logger}
	ops, err := planner.Operations(sc.auditor, gate.WithLogger(logger))
	if err != nil {
		return false, err
	}

	fmt.Fprintf(w, "[%d] %s\n    task: %q (%s)\n", n, sc.name, sc.task.Description, sc.task.Principle)
	out, err := ops.Dispatch(ctx, agent.OpExecuteTask, sc.task)
	if err != nil {
		return false, fmt.Errorf("scenario %q: %w", sc.name, err)
	}
	if out.IsBlocked() {
		fmt.Fprintf(w, "    BLOCKED: %s\n", out.Reason)
		if out.Detail != "" {
			fmt.Fprintf(w, "    detail:  %s\n", out.Detail)
		}
		return true, nil
	}
	fmt.Fprintf(w, "    COMPLETED: %s\n", out.Value)
	return false, nil
}
