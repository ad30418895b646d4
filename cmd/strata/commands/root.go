package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	verbose      bool
	jsonOutput   bool
	traceEnabled bool
)

// Execute runs the root command
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "strata",
		Short: "Strata - Layered Settings Resolution Engine",
		Long: `Strata resolves configuration settings through layered inheritance.

Layers declare explicit values for some settings and inherit the rest from
an ordered list of parent layers, falling back to compiled defaults when no
layer in the chain speaks. Nullable settings can be explicitly set to null,
which terminates the lookup instead of falling through.

Features:
  - Typed settings documents via CUE and YAML
  - Depth-first parent-chain resolution with origin reporting
  - Live reload of settings files
  - SQLite-backed document storage`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	// Persistent flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&traceEnabled, "trace", false, "emit operation traces to stdout")

	// Add subcommands
	rootCmd.AddCommand(newInitCommand())
	rootCmd.AddCommand(newValidateCommand())
	rootCmd.AddCommand(newResolveCommand())
	rootCmd.AddCommand(newExplainCommand())
	rootCmd.AddCommand(newWatchCommand())
	rootCmd.AddCommand(newStoreCommand())

	return rootCmd
}
