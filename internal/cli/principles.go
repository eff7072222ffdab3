package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ppiankov/auditgate/internal/policy"
)

var (
	principlesPolicy string
	principlesFormat string
)

func init() {
	rootCmd.AddCommand(principlesCmd)
	principlesCmd.Flags().StringVar(&principlesPolicy, "policy", "", "Path to policy YAML")
	principlesCmd.Flags().StringVarP(&principlesFormat, "format", "f", "text", "Output format (text|json)")
}

var principlesCmd = &cobra.Command{
	Use:   "principles",
	Short: "List principles with their mandates and forbidden terms",
	RunE:  runPrinciples,
}

func runPrinciples(cmd *cobra.Command, args []string) error {
	cfg, err := policy.LoadConfig(principlesPolicy)
	if err != nil {
		return err
	}
	infos := cfg.Principles()
	w := cmd.OutOrStdout()

	if principlesFormat == "json" {
		out, err := json.MarshalIndent(infos, "", "  ")
		if err != nil {
			return err
		}
		fmt.Fprintln(w, string(out))
		return nil
	}

	for _, p := range infos {
		fmt.Fprintf(w, "%s\n  mandate: %s\n", p.Principle, p.Mandate)
		if len(p.Terms) > 0 {
			fmt.Fprintf(w, "  forbidden: %s\n", strings.Join(p.Terms, ", "))
		}
	}
	return nil
}
