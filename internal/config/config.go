package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// DomainType names an abstract domain the analyzer can run.
type DomainType string

const (
	DomainInterval DomainType = "interval"
	DomainSign     DomainType = "sign"
)

// Config holds all configuration for go-abstract-interp
type Config struct {
	// Domain selects the abstract domain used by the analysis
	Domain DomainType `yaml:"domain" env:"GAI_DOMAIN"`

	// Widening is the number of unwidened passes around a loop head
	// before widening kicks in
	Widening int `yaml:"widening" env:"GAI_WIDENING"`

	// FunctionName is the default function analyzed when none is given
	// on the command line
	FunctionName string `yaml:"function_name" env:"GAI_FUNCTION_NAME"`

	// JSONOutput switches command output to JSON
	JSONOutput bool `yaml:"json_output" env:"GAI_JSON_OUTPUT"`

	// ReportDir is where saved analysis reports are written
	ReportDir string `yaml:"report_dir" env:"GAI_REPORT_DIR"`

	// Logging
	Verbose bool `yaml:"verbose" env:"GAI_VERBOSE"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Domain:       DomainInterval,
		Widening:     3,
		FunctionName: "main",
		JSONOutput:   false,
		ReportDir:    ".gai/reports",
		Verbose:      false,
	}
}

// globalConfigFilePath returns the global config file path (~/.gai/config.yaml)
func globalConfigFilePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".gai/config.yaml"
	}
	return filepath.Join(home, ".gai", "config.yaml")
}

// projectConfigFilePath returns the project-level config file path (./.gai/config.yaml)
func projectConfigFilePath() string {
	return ".gai/config.yaml"
}

// Load reads configuration with the following priority (highest to lowest):
// 1. Environment variables
// 2. Project-level config (./.gai/config.yaml)
// 3. Global config (~/.gai/config.yaml)
// 4. Defaults
func Load() (*Config, error) {
	cfg := DefaultConfig()

	// 1. Load global config (~/.gai/config.yaml)
	globalConfigPath := globalConfigFilePath()
	if data, err := os.ReadFile(globalConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", globalConfigPath, err)
		}
	}

	// 2. Load project-level config (./.gai/config.yaml) - overrides global
	projectConfigPath := projectConfigFilePath()
	if data, err := os.ReadFile(projectConfigPath); err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", projectConfigPath, err)
		}
	}

	// 3. Override with environment variables
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

// applyEnvOverrides applies environment variable overrides to the config
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("GAI_DOMAIN"); v != "" {
		cfg.Domain = DomainType(v)
	}
	if v := os.Getenv("GAI_WIDENING"); v != "" {
		// Zero is a valid threshold, so a parse failure is distinguished
		// from the value itself.
		if i, ok := parseInt(v); ok {
			cfg.Widening = i
		}
	}
	if v := os.Getenv("GAI_FUNCTION_NAME"); v != "" {
		cfg.FunctionName = v
	}
	if v := os.Getenv("GAI_JSON_OUTPUT"); v != "" {
		cfg.JSONOutput = v == "true" || v == "1" || v == "yes"
	}
	if v := os.Getenv("GAI_REPORT_DIR"); v != "" {
		cfg.ReportDir = v
	}
	if v := os.Getenv("GAI_VERBOSE"); v != "" {
		cfg.Verbose = v == "true" || v == "1" || v == "yes"
	}
}

// Validate checks that the configuration has valid required fields
func (c *Config) Validate() error {
	switch c.Domain {
	case DomainInterval, DomainSign:
		// Valid
	default:
		return fmt.Errorf("invalid domain: %s (must be 'interval' or 'sign')", c.Domain)
	}

	if c.Widening < 0 {
		return fmt.Errorf("widening must be non-negative")
	}

	if c.FunctionName == "" {
		return fmt.Errorf("function_name must not be empty")
	}

	if c.ReportDir == "" {
		return fmt.Errorf("report_dir must not be empty")
	}

	return nil
}

// parseInt attempts to parse a string as int
func parseInt(s string) (int, bool) {
	var i int
	if _, err := fmt.Sscanf(s, "%d", &i); err != nil {
		return 0, false
	}
	return i, true
}
