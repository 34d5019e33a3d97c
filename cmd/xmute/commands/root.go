package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var (
	// Global flags
	pluginPath string
	verbose    bool
	jsonOutput bool
)

// Execute runs the root command.
func Execute(ctx context.Context, version, commit, buildDate string) error {
	rootCmd := newRootCommand(version, commit, buildDate)
	return rootCmd.ExecuteContext(ctx)
}

func newRootCommand(version, commit, buildDate string) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "xmute",
		Short: "xmute - converter plug-in pipeline engine",
		Long: `xmute plans and executes chains of converter plug-ins over a
property-graph model: given a starting set of properties and a target
pattern, it searches a registry of converters (built-in, WASM, or
subprocess-IPC) for a sequence of conversions that reaches the target, then
runs that plan against concrete bytes.

Features:
  - Property-graph planning over a pluggable converter registry
  - WASM and subprocess plug-in backends behind one stable ABI
  - Sequential, bounded, and parallel execution strategies
  - Rego-based scope-boundary policy enforcement on conversion options
  - SQLite-backed job/step history`,
		Version: fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, buildDate),
	}

	rootCmd.PersistentFlags().StringVar(&pluginPath, "plugin-path", "", "colon-separated list of plug-in bundle directories")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")

	rootCmd.AddCommand(newPluginsCommand())
	rootCmd.AddCommand(newPlanCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newValidateCommand())

	return rootCmd
}
