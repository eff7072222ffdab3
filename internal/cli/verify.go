package cli

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ppiankov/auditgate/internal/scenario"
)

var (
	verifyScenario string
	verifyPolicy   string
	verifyFormat   string
)

func init() {
	rootCmd.AddCommand(verifyCmd)
	verifyCmd.Flags().StringVar(&verifyScenario, "scenario", "", "Glob pattern for scenario YAML files (required)")
	verifyCmd.Flags().StringVar(&verifyPolicy, "policy", "", "Path to policy YAML (optional)")
	verifyCmd.Flags().StringVarP(&verifyFormat, "format", "f", "text", "Output format (text|json)")
	verifyCmd.MarkFlagRequired("scenario")
}

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Run audit assertions from scenario files",
	Long: "Loads scenario YAML files matching a glob pattern, dispatches each\n" +
		"case through the audited planner, and reports pass/fail.\n\n" +
		"Exit code 0 if all cases pass, 1 if any fail.\n" +
		"Use in CI to gate policy changes.",
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	matches, err := filepath.Glob(verifyScenario)
	if err != nil {
		return fmt.Errorf("invalid glob pattern: %w", err)
	}
	if len(matches) == 0 {
		return fmt.Errorf("no scenario files match pattern: %s", verifyScenario)
	}

	var results []*scenario.RunResult
	for _, path := range matches {
		r, err := scenario.LoadAndRun(cmd.Context(), path, verifyPolicy)
		if err != nil {
			return err
		}
		results = append(results, r)
	}

	w := cmd.OutOrStdout()
	switch verifyFormat {
	case "json":
		out, err := scenario.FormatJSON(results)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, out)
	default:
		fmt.Fprint(w, scenario.FormatText(results))
	}

	for _, r := range results {
		if r.Failed > 0 {
			return errTaskRefused
		}
	}
	return nil
}
