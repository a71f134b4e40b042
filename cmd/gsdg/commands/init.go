package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-sdg/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gsdg configuration interactively",
	Long: `Guides you through setting up gsdg configuration step by step.
Creates a config file with the analyzed language, the finders to run, the
output format and the report cache settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	cfg := config.DefaultConfig()

	// === SECTION 1: Analysis ===
	language := cfg.Language
	output := cfg.Output
	var finderChoices []string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Language of the analyzed sources").
				Options(
					huh.NewOption("Java", "java"),
				).
				Value(&language),
			huh.NewSelect[string]().
				Title("Report output format").
				Options(
					huh.NewOption("JSON", "json"),
					huh.NewOption("YAML", "yaml"),
				).
				Value(&output),
			huh.NewMultiSelect[string]().
				Title("Finders to run").
				Description("Definitions resolve writes, usages resolve reads").
				Options(
					huh.NewOption("Definitions (formal-out/actual-out)", "definitions").Selected(true),
					huh.NewOption("Usages (formal-in/actual-in)", "usages").Selected(true),
				).
				Value(&finderChoices),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Cache ===
	cacheEnabled := cfg.CacheEnabled
	cacheDir := cfg.CacheDir
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Cache analysis reports?").
				Description("Cached reports are keyed by a digest of the input").
				Affirmative("Yes").
				Negative("No").
				Value(&cacheEnabled),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	if cacheEnabled {
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewInput().
					Title("Cache directory").
					Placeholder(cacheDir).
					Value(&cacheDir),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
	}

	// === SECTION 3: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.gsdg/config.yaml)", "global"),
					huh.NewOption("Project (./.gsdg/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	if err := form.Run(); err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".gsdg", "config.yaml")
	} else {
		configPath = config.ProjectConfigPath()
	}

	// Check if config already exists
	if _, err := os.Stat(configPath); err == nil {
		var overwrite bool
		form = huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title("Config file exists").
					Description(fmt.Sprintf("Overwrite existing config at %s?", configPath)).
					Affirmative("Overwrite").
					Negative("Cancel").
					Value(&overwrite),
			),
		)
		if err := form.Run(); err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// === Build config struct ===
	cfg.Language = language
	cfg.Output = output
	if len(finderChoices) > 0 {
		cfg.Finders = nil
		for _, f := range finderChoices {
			cfg.Finders = append(cfg.Finders, config.FinderName(f))
		}
	}
	cfg.CacheEnabled = cacheEnabled
	cfg.CacheDir = cacheDir

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Language: %s\n", cfg.Language)
	fmt.Printf("Output: %s\n", cfg.Output)
	fmt.Printf("Finders: %v\n", cfg.Finders)
	fmt.Printf("Cache enabled: %v\n", cfg.CacheEnabled)
	if cfg.CacheEnabled {
		fmt.Printf("Cache dir: %s\n", cfg.CacheDir)
	}
	fmt.Println("================================")

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration saved to: %s\n", configPath)
	return nil
}

func init() {
	RootCmd.AddCommand(initCmd)
}
