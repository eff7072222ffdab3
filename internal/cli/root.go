package cli

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	logLevel  string
	logFormat string
	logger    = slog.Default()
)

// errTaskRefused makes the process exit 1 without printing usage when a
// task was found non-compliant or was blocked.
var errTaskRefused = errors.New("task refused")

var rootCmd = &cobra.Command{
	Use:   "auditgate",
	Short: "Audit agent tasks before they run",
	Long: "Every task an agent proposes is audited against its governing principle\n" +
		"before the action runs. Non-compliant tasks are blocked; if the audit\n" +
		"cannot complete, the task is blocked too.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(logLevel, logFormat, os.Stderr)
		if err != nil {
			return err
		}
		logger = l
		slog.SetDefault(l)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "auto", "Log format (auto|text|json)")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errTaskRefused) {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
		}
		os.Exit(1)
	}
}
