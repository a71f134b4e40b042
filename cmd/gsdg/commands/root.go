package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gsdg",
	Short: "go-sdg - Interprocedural dependence analysis for Java programs",
	Long: `go-sdg resolves interprocedural variable actions: which variables each
method reads and writes across call boundaries, materialized as formal-in,
formal-out, actual-in and actual-out nodes of a dependence graph.

Commands:
  analyze     Run the finders and emit the dependence graph
  actions     List the variable actions discovered per callable
  init        Initialize gsdg configuration interactively

Use "gsdg [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}

func init() {
	RootCmd.AddCommand(analyzeCmd)
	RootCmd.AddCommand(actionsCmd)
}
