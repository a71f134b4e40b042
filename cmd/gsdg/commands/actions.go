package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-sdg/internal/config"
)

// actionsCmd represents the actions command
var actionsCmd = &cobra.Command{
	Use:   "actions [path...]",
	Short: "List the variable actions discovered per callable",
	Long: `Runs the configured finders and prints, for every callable, the
interprocedural variable actions the fixed point discovered for it, with the
object-tree fields each action touches.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		verbose, _ := cmd.Flags().GetBool("verbose")
		return runActions(args, verbose)
	},
}

func init() {
	actionsCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
}

func runActions(paths []string, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	logger := setupLogger(cfg, verbose)

	inputs, err := collectInputs(paths)
	if err != nil {
		return err
	}
	p, err := buildProgram(inputs, cfg.Language)
	if err != nil {
		return err
	}

	for _, name := range cfg.Finders {
		f, err := newFinder(name, p, logger)
		if err != nil {
			return err
		}
		if err := f.Save(); err != nil {
			return fmt.Errorf("running %s finder: %w", name, err)
		}

		fmt.Printf("=== %s ===\n", name)
		for _, v := range p.CallGraph.Vertices() {
			tracked := f.Actions(v)
			if len(tracked) == 0 {
				continue
			}
			fmt.Printf("%s\n", v.Callable.Signature)
			for _, t := range tracked {
				line := "  " + t.Action.String()
				if fields := t.Tree.Fields(); len(fields) > 0 {
					line += " fields=" + strings.Join(fields, ",")
				}
				fmt.Println(line)
			}
		}
	}
	return nil
}
