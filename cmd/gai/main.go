// Package main implements the go-abstract-interp CLI (gai).
// It provides commands for running backward abstract interpretation over
// Python functions and inspecting the resulting control flow graphs.
package main

import (
	"os"

	"github.com/l3aro/go-abstract-interp/cmd/gai/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Flags().BoolP("version", "v", false, "Print version information")
	commands.RootCmd.SetVersionTemplate(`gai version {{.Version}}
`)
	commands.RootCmd.Version = version

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
