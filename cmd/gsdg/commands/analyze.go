package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/l3aro/go-sdg/internal/config"
	"github.com/l3aro/go-sdg/internal/log"
	"github.com/l3aro/go-sdg/pkg/cache"
	"github.com/l3aro/go-sdg/pkg/finder"
	"github.com/l3aro/go-sdg/pkg/frontend"
	"github.com/l3aro/go-sdg/pkg/program"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [path...]",
	Short: "Run the finders and emit the dependence graph",
	Long: `Analyzes a program and prints the resulting dependence graph.

The input is either a YAML program description (a single .yaml/.yml file) or
Java sources (files or directories containing .java files). Reports are cached
by a digest of the input unless caching is disabled.`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		output, _ := cmd.Flags().GetString("output")
		noCache, _ := cmd.Flags().GetBool("no-cache")
		verbose, _ := cmd.Flags().GetBool("verbose")
		return runAnalyze(args, output, noCache, verbose)
	},
}

func init() {
	analyzeCmd.Flags().StringP("output", "o", "", "Output format: json or yaml (default from config)")
	analyzeCmd.Flags().Bool("no-cache", false, "Skip the report cache")
	analyzeCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
}

func runAnalyze(paths []string, output string, noCache, verbose bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if output == "" {
		output = cfg.Output
	}
	logger := setupLogger(cfg, verbose)

	inputs, err := collectInputs(paths)
	if err != nil {
		return err
	}
	key := cacheKey(inputs)

	var store *cache.Store
	if cfg.CacheEnabled && !noCache {
		store, err = cache.NewStore(cfg.CacheDir)
		if err != nil {
			return err
		}
		if report, err := store.Get(key); err == nil {
			logger.Debug("report served from cache", "key", key)
			return printReport(report, output)
		} else if err != cache.ErrKeyNotFound {
			return err
		}
	}

	p, err := buildProgram(inputs, cfg.Language)
	if err != nil {
		return err
	}

	if err := runFinders(p, cfg.Finders, logger); err != nil {
		return err
	}
	if err := p.Graph.RelocateMovables(); err != nil {
		return err
	}

	report := program.BuildReport(p.Graph)
	if store != nil {
		if err := store.Put(key, report); err != nil {
			logger.Warn("failed to cache report", "error", err)
		}
	}
	return printReport(report, output)
}

// runFinders runs the configured finders in order over a shared graph.
func runFinders(p *program.Program, names []config.FinderName, logger log.Logger) error {
	for _, name := range names {
		f, err := newFinder(name, p, logger)
		if err != nil {
			return err
		}
		if err := f.Save(); err != nil {
			return fmt.Errorf("running %s finder: %w", name, err)
		}
	}
	return nil
}

func newFinder(name config.FinderName, p *program.Program, logger log.Logger) (*finder.Finder, error) {
	switch name {
	case config.FinderDefinitions:
		return finder.NewDefinitionFinder(p.CallGraph, p.CFGs, p.Graph, logger), nil
	case config.FinderUsages:
		return finder.NewUsageFinder(p.CallGraph, p.CFGs, p.Graph, logger), nil
	default:
		return nil, fmt.Errorf("unknown finder %q", name)
	}
}

// setupLogger applies config and flags to the default logger.
func setupLogger(cfg *config.Config, verbose bool) log.Logger {
	logger := log.Default()
	if cfg.Verbose || verbose {
		logger.SetLevel(log.DebugLevel)
	}
	logger.SetJSONOutput(cfg.LogJSON)
	return logger
}

// input is one named source, file order kept stable for cache keys.
type input struct {
	name string
	data []byte
}

// collectInputs reads the given files and directories. Directories contribute
// their .java files recursively.
func collectInputs(paths []string) ([]input, error) {
	var inputs []input
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("reading input %s: %w", path, err)
		}
		if !info.IsDir() {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("reading input %s: %w", path, err)
			}
			inputs = append(inputs, input{name: path, data: data})
			continue
		}
		err = filepath.Walk(path, func(p string, fi os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if fi.IsDir() || !strings.HasSuffix(p, ".java") {
				return nil
			}
			data, err := os.ReadFile(p)
			if err != nil {
				return err
			}
			inputs = append(inputs, input{name: p, data: data})
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("walking %s: %w", path, err)
		}
	}
	if len(inputs) == 0 {
		return nil, fmt.Errorf("no inputs found")
	}
	sort.Slice(inputs, func(i, j int) bool { return inputs[i].name < inputs[j].name })
	return inputs, nil
}

func cacheKey(inputs []input) string {
	var all []byte
	for _, in := range inputs {
		all = append(all, in.name...)
		all = append(all, 0)
		all = append(all, in.data...)
	}
	return cache.Key(all)
}

// buildProgram assembles the analysis inputs: a lone YAML file is a program
// description, anything else is treated as sources of the configured language.
func buildProgram(inputs []input, language string) (*program.Program, error) {
	if len(inputs) == 1 {
		ext := filepath.Ext(inputs[0].name)
		if ext == ".yaml" || ext == ".yml" {
			return program.Parse(inputs[0].data)
		}
	}
	switch language {
	case "java":
		sources := make(map[string][]byte, len(inputs))
		for _, in := range inputs {
			sources[in.name] = in.data
		}
		return frontend.ExtractJava(sources)
	default:
		return nil, fmt.Errorf("unsupported language %q", language)
	}
}

func printReport(r *program.Report, output string) error {
	switch output {
	case "yaml":
		data, err := yaml.Marshal(r)
		if err != nil {
			return err
		}
		fmt.Print(string(data))
		return nil
	default:
		data, err := json.MarshalIndent(r, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(data))
		return nil
	}
}
