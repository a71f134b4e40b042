// Package main implements the go-sdg CLI (gsdg).
// It provides commands for running the interprocedural action finders over a
// program and inspecting the resulting dependence graph.
package main

import (
	"os"

	"github.com/l3aro/go-sdg/cmd/gsdg/commands"
)

var version = "dev"

func main() {
	commands.RootCmd.Version = version
	commands.RootCmd.SetVersionTemplate(`gsdg version {{.Version}}
`)

	if err := commands.RootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
