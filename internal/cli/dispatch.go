package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ppiankov/auditgate/internal/agent"
	"github.com/ppiankov/auditgate/internal/engine"
)

var (
	dispatchPolicy    string
	dispatchPrinciple string
	dispatchOperation string
	dispatchAgent     string
	dispatchTaskID    string
	dispatchRemote    string
	dispatchAuditor   string
	dispatchFormat    string
)

func init() {
	rootCmd.AddCommand(dispatchCmd)
	dispatchCmd.Flags().StringVar(&dispatchPolicy, "policy", "", "Path to policy YAML")
	dispatchCmd.Flags().StringVarP(&dispatchPrinciple, "principle", "p", "non_harm", "Governing principle (non_harm|efficiency|truthfulness)")
	dispatchCmd.Flags().StringVarP(&dispatchOperation, "operation", "o", engine.DefaultOperation, "Planner operation (execute_task|plan)")
	dispatchCmd.Flags().StringVar(&dispatchAgent, "agent", agent.DefaultName, "Planner name")
	dispatchCmd.Flags().StringVar(&dispatchTaskID, "id", "", "Task ID (generated when omitted)")
	dispatchCmd.Flags().StringVar(&dispatchRemote, "remote", "", "Dispatch through an auditgate gRPC server at host:port")
	dispatchCmd.Flags().StringVar(&dispatchAuditor, "auditor", "", "Run the planner locally but audit on the gRPC server at host:port")
	dispatchCmd.Flags().StringVarP(&dispatchFormat, "format", "f", "text", "Output format (text|json)")
}

var dispatchCmd = &cobra.Command{
	Use:   "dispatch <description>",
	Short: "Run a task through the audited planner",
	Long: "Audits the task and, only when compliant, runs it on the planner.\n\n" +
		"Exit code 0 if the task completed, 1 if it was blocked or failed.",
	Args: cobra.MinimumNArgs(1),
	RunE: runDispatch,
}

func runDispatch(cmd *cobra.Command, args []string) error {
	task, err := taskFromArgs(args, dispatchPrinciple, dispatchTaskID)
	if err != nil {
		return err
	}
	var target auditTarget
	switch {
	case dispatchRemote != "" && dispatchAuditor != "":
		return fmt.Errorf("--remote and --auditor are mutually exclusive")
	case dispatchAuditor != "":
		target, err = openDelegated(dispatchAuditor, dispatchAgent)
	default:
		target, err = openTarget(dispatchRemote, dispatchPolicy, dispatchAgent)
	}
	if err != nil {
		return err
	}
	defer target.Close()

	out, err := target.Dispatch(cmd.Context(), dispatchOperation, task)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch dispatchFormat {
	case "json":
		data, err := json.MarshalIndent(map[string]any{
			"task_id":   task.ID,
			"operation": dispatchOperation,
			"status":    out.Status,
			"value":     out.Value,
			"reason":    out.Reason,
			"detail":    out.Detail,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(data))
	default:
		if out.IsBlocked() {
			fmt.Fprintf(w, "BLOCKED    %s\n  reason: %s\n", task.Description, out.Reason)
			if out.Detail != "" {
				fmt.Fprintf(w, "  detail: %s\n", out.Detail)
			}
		} else {
			fmt.Fprintf(w, "COMPLETED  %s\n", out.Value)
		}
	}

	if out.IsBlocked() {
		return errTaskRefused
	}
	return nil
}
