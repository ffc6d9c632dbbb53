package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/l3aro/go-abstract-interp/internal/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize gai configuration interactively",
	Long: `Guides you through setting up gai configuration step by step.
Creates a config file with the abstract domain and widening settings.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runInit()
	},
}

func runInit() error {
	// === SECTION 1: Analysis Settings ===
	var domainChoice string
	form := huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Abstract Domain - The lattice states are drawn from").
				Description("Select the default abstract domain for analyses").
				Options(
					huh.NewOption("Interval (bounds on variables)", "interval"),
					huh.NewOption("Sign (negative, zero, positive)", "sign"),
				).
				Value(&domainChoice),
		),
	)
	err := form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	wideningInput := "3"
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Widening threshold").
				Description("Passes around a loop head before widening forces convergence").
				Placeholder("3").
				Validate(func(s string) error {
					n, err := strconv.Atoi(s)
					if err != nil {
						return fmt.Errorf("must be an integer")
					}
					if n < 0 {
						return fmt.Errorf("must be non-negative")
					}
					return nil
				}).
				Value(&wideningInput),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}
	widening, err := strconv.Atoi(wideningInput)
	if err != nil {
		return fmt.Errorf("invalid widening threshold: %w", err)
	}

	var jsonOutput bool
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewConfirm().
				Title("Output format").
				Description("Print analysis results as JSON by default?").
				Affirmative("JSON").
				Negative("Human-readable").
				Value(&jsonOutput),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	// === SECTION 2: Config Location ===
	var saveLocationChoice string
	form = huh.NewForm(
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Save Configuration").
				Description("Where to save the configuration file?").
				Options(
					huh.NewOption("Global (~/.gai/config.yaml)", "global"),
					huh.NewOption("Project (./.gai/config.yaml)", "project"),
				).
				Value(&saveLocationChoice),
		),
	)
	err = form.Run()
	if err != nil {
		return fmt.Errorf("interactive prompt failed: %w", err)
	}

	var configPath string
	if saveLocationChoice == "global" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("getting home directory: %w", err)
		}
		configPath = filepath.Join(home, ".gai", "config.yaml")
	} else {
		configPath = ".gai/config.yaml"
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
		err = form.Run()
		if err != nil {
			return fmt.Errorf("interactive prompt failed: %w", err)
		}
		if !overwrite {
			fmt.Println("Cancelled.")
			return nil
		}
	}

	// === Build config struct ===
	cfg := config.DefaultConfig()
	cfg.Domain = config.DomainType(domainChoice)
	cfg.Widening = widening
	cfg.JSONOutput = jsonOutput

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}

	// Show config preview
	fmt.Println("\n=== Configuration Preview ===")
	fmt.Printf("Config path: %s\n", configPath)
	fmt.Printf("Domain: %s\n", cfg.Domain)
	fmt.Printf("Widening: %d\n", cfg.Widening)
	if cfg.JSONOutput {
		fmt.Println("Output: JSON")
	} else {
		fmt.Println("Output: human-readable")
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
