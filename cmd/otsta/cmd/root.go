package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "otsta",
	Short: "OpenTraceSTA - Static timing report analysis tools",
	Long: `OpenTraceSTA (otsta) analyzes static timing analysis report dumps:
  - Parse report_timing text output into structured paths
  - Compare launch/capture clock networks (generated-clock trace, split point, cell types)
  - Break paths into tagged latency/crosstalk segments

Examples:
  otsta ts timing.rpt                       # Parse the first path and summarize
  otsta ts -c chip.setup -r 1+20 timing.rpt # Parse 20 paths with a configuration
  otsta ts -k -d timing.rpt.gz              # Clock check with dump files`,
	Version: "0.9.0",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		lvl := slog.LevelWarn
		if verbose {
			lvl = slog.LevelDebug
		}
		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr,
			&slog.HandlerOptions{Level: lvl})))
	},
}

// Execute runs the root command
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}
