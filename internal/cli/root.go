// Package cli implements the Stride command-line interface using Cobra.
// Each subcommand maps to one core operation (serve, complete, stats, …).
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stride",
	Short: "Stride — habit tracking engine",
	Long: `Stride tracks recurring commitments, records completions, and derives
streaks, consistency scores, and an XP/level economy from the history.

Run 'stride serve' to start the API server with the daily forgiveness
scheduler, or use the subcommands to work against the local store.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command. Called from main.go.
func Execute(version string) {
	rootCmd.Version = version

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
