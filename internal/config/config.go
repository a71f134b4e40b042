package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FinderName selects one of the interprocedural finders
type FinderName string

const (
	FinderUsages      FinderName = "usages"
	FinderDefinitions FinderName = "definitions"
)

// Config holds all configuration for go-sdg
type Config struct {
	// Language of the analyzed sources
	Language string `yaml:"language" env:"GSDG_LANGUAGE"`

	// Output format for analysis reports: json or yaml
	Output string `yaml:"output" env:"GSDG_OUTPUT"`

	// Finders to run, in order
	Finders []FinderName `yaml:"finders" env:"GSDG_FINDERS"`

	// Cache settings for analysis reports
	CacheEnabled bool   `yaml:"cache_enabled" env:"GSDG_CACHE_ENABLED"`
	CacheDir     string `yaml:"cache_dir" env:"GSDG_CACHE_DIR"`

	// Logging
	Verbose bool `yaml:"verbose" env:"GSDG_VERBOSE"`
	LogJSON bool `yaml:"log_json" env:"GSDG_LOG_JSON"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Language:     "java",
		Output:       "json",
		Finders:      []FinderName{FinderDefinitions, FinderUsages},
		CacheEnabled: true,
		CacheDir:     defaultCacheDir(),
		Verbose:      false,
		LogJSON:      false,
	}
}

// defaultCacheDir returns the default cache directory (~/.gsdg/cache)
func defaultCacheDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gsdg/cache"
	}
	return filepath.Join(home, ".gsdg", "cache")
}

// globalConfigFilePath returns the global config file path (~/.gsdg/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gsdg/config.yaml"
	}
	return filepath.Join(home, ".gsdg", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.gsdg/config.yaml)
func projectConfigFilePath() string {
	return ".gsdg/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Project-level config (./.gsdg/config.yaml)
// 2. Environment variables
// 3. Global config (~/.gsdg/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromFile reads configuration from a specific YAML file path
func LoadFromFile(path string) (*Config, error) {
	cfg := DefaultConfig()

	if data, err := os.ReadFile(path); err != nil {
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	} else if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration to the specified YAML file path.
// It creates parent directories if they don't exist.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config to YAML: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// ProjectConfigPath returns the path Save should use for a project config.
func ProjectConfigPath() string {
	return projectConfigFilePath()
}

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GSDG_LANGUAGE"); v != "" {
		cfg.Language = v
	}
	if v := os.Getenv("GSDG_OUTPUT"); v != "" {
		cfg.Output = v
	}
	if v := os.Getenv("GSDG_FINDERS"); v != "" {
		cfg.Finders = parseFinders(v)
	}
	if v := os.Getenv("GSDG_CACHE_ENABLED"); v != "" {
		cfg.CacheEnabled = parseBool(v)
	}
	if v := os.Getenv("GSDG_CACHE_DIR"); v != "" {
		cfg.CacheDir = v
	}
	if v := os.Getenv("GSDG_VERBOSE"); v != "" {
		cfg.Verbose = parseBool(v)
	}
	if v := os.Getenv("GSDG_LOG_JSON"); v != "" {
		cfg.LogJSON = parseBool(v)
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	switch c.Language {
	case "java":
		// Valid
	default:
		return fmt.Errorf("invalid language: %s (only 'java' is supported)", c.Language)
	}

	switch c.Output {
	case "json", "yaml":
		// Valid
	default:
		return fmt.Errorf("invalid output: %s (must be 'json' or 'yaml')", c.Output)
	}

	if len(c.Finders) == 0 {
		return fmt.Errorf("at least one finder must be enabled")
	}
	for _, f := range c.Finders {
		switch f {
		case FinderUsages, FinderDefinitions:
			// Valid
		default:
			return fmt.Errorf("invalid finder: %s (must be 'usages' or 'definitions')", f)
		}
	}

	if c.CacheEnabled && c.CacheDir == "" {
		return fmt.Errorf("cache_dir is required when cache_enabled is true")
	}

	return nil
}

// parseFinders splits a comma-separated finder list
func parseFinders(s string) []FinderName {
	var out []FinderName
	start := 0
	for i := 0; i <= len(s); i++ {
		if i == len(s) || s[i] == ',' {
			if part := s[start:i]; part != "" {
				out = append(out, FinderName(part))
			}
			start = i + 1
		}
	}
	return out
}

// parseBool interprets the usual truthy spellings
func parseBool(s string) bool {
	return s == "true" || s == "1" || s == "yes"
}
