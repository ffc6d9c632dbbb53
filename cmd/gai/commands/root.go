package commands

import (
	"github.com/spf13/cobra"
)

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "gai",
	Short: "go-abstract-interp - Backward abstract interpretation for Python functions",
	Long: `go-abstract-interp runs a backward abstract interpretation over the control
flow graph of a Python function: starting from a postcondition at the exit,
it computes for every program point the states that can still reach it.

Commands:
  analyze     Run the backward analysis on a function
  cfg         Extract and print the control flow graph of a function
  report      Print a previously saved analysis report
  init        Initialize gai configuration interactively

Use "gai [command] --help" for more information about a command.`,
}

// Execute adds all child commands to the root command and sets flags appropriately
func Execute() error {
	return RootCmd.Execute()
}
