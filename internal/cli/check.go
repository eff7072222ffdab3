package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	checkPolicy    string
	checkPrinciple string
	checkRemote    string
	checkFormat    string
)

func init() {
	rootCmd.AddCommand(checkCmd)
	checkCmd.Flags().StringVar(&checkPolicy, "policy", "", "Path to policy YAML")
	checkCmd.Flags().StringVarP(&checkPrinciple, "principle", "p", "non_harm", "Governing principle (non_harm|efficiency|truthfulness)")
	checkCmd.Flags().StringVar(&checkRemote, "remote", "", "Audit through an auditgate gRPC server at host:port")
	checkCmd.Flags().StringVarP(&checkFormat, "format", "f", "text", "Output format (text|json)")
}

var checkCmd = &cobra.Command{
	Use:   "check <description>",
	Short: "Audit a task without running it",
	Long: "Audits the task description against the policy and prints the verdict.\n\n" +
		"Exit code 0 if the task is compliant, 1 otherwise.\n" +
		"Use in scripts to gate agent actions.",
	Args: cobra.MinimumNArgs(1),
	RunE: runCheck,
}

func runCheck(cmd *cobra.Command, args []string) error {
	task, err := taskFromArgs(args, checkPrinciple, "")
	if err != nil {
		return err
	}
	target, err := openTarget(checkRemote, checkPolicy, "")
	if err != nil {
		return err
	}
	defer target.Close()

	v, err := target.Check(cmd.Context(), task)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	switch checkFormat {
	case "json":
		out, err := json.MarshalIndent(map[string]any{
			"task_id":   task.ID,
			"compliant": v.Compliant,
			"reason":    v.Reason,
			"principle": task.Principle,
		}, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
	default:
		if v.Compliant {
			fmt.Fprintf(w, "COMPLIANT  %s\n", task.Description)
		} else {
			fmt.Fprintf(w, "REJECTED   %s\n  reason: %s\n", task.Description, v.Reason)
		}
	}

	if !v.Compliant {
		return errTaskRefused
	}
	return nil
}
