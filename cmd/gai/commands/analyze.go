// Package commands provides the CLI commands for the go-abstract-interp tool.
package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-abstract-interp/internal/config"
	"github.com/l3aro/go-abstract-interp/internal/log"
	"github.com/l3aro/go-abstract-interp/pkg/domain"
	"github.com/l3aro/go-abstract-interp/pkg/engine"
	"github.com/l3aro/go-abstract-interp/pkg/frontend"
	"github.com/l3aro/go-abstract-interp/pkg/interval"
	"github.com/l3aro/go-abstract-interp/pkg/lang"
	"github.com/l3aro/go-abstract-interp/pkg/sign"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze <file> [function]",
	Short: "Run backward analysis on a function",
	Long: `Runs a backward abstract interpretation on a Python function. The analysis
starts from the exit node with an optional postcondition and computes, for
every program point, the abstract state required to reach the exit.

When no function is given, the configured default function name is used.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("loading config: %w", err)
		}

		if cmd.Flags().Changed("domain") {
			v, _ := cmd.Flags().GetString("domain")
			cfg.Domain = config.DomainType(v)
		}
		if cmd.Flags().Changed("widening") {
			cfg.Widening, _ = cmd.Flags().GetInt("widening")
		}
		if cmd.Flags().Changed("json") {
			cfg.JSONOutput, _ = cmd.Flags().GetBool("json")
		}
		if cmd.Flags().Changed("verbose") {
			cfg.Verbose, _ = cmd.Flags().GetBool("verbose")
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		logger := log.Default()
		if cfg.Verbose {
			logger.SetLevel(log.DebugLevel)
		}
		if cfg.JSONOutput {
			// Keep stderr machine-readable when the report goes out as JSON.
			logger.SetJSONOutput(true)
		}

		filePath := args[0]
		functionName := cfg.FunctionName
		if len(args) == 2 {
			functionName = args[1]
		}

		postcondition, _ := cmd.Flags().GetString("postcondition")
		save, _ := cmd.Flags().GetBool("save")

		report, err := runAnalyze(cfg, logger, filePath, functionName, postcondition)
		if err != nil {
			return err
		}

		if save {
			if err := os.MkdirAll(cfg.ReportDir, 0755); err != nil {
				return fmt.Errorf("creating report directory: %w", err)
			}
			path := filepath.Join(cfg.ReportDir, functionName+".gair")
			if err := engine.SaveReportFile(report, path); err != nil {
				return fmt.Errorf("saving report: %w", err)
			}
			logger.Info("report saved", "path", path)
		}

		if cfg.JSONOutput {
			data, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printReport(report)
		return nil
	},
}

func runAnalyze(cfg *config.Config, logger log.Logger, filePath, functionName, postcondition string) (*engine.Report, error) {
	info, err := os.Stat(filePath)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("path is a directory, expected a file: %s", filePath)
	}
	if !isPythonFile(filePath) {
		return nil, fmt.Errorf("unsupported file type: %s (only .py files supported)", filePath)
	}

	graph, err := frontend.BuildPythonCFG(filePath, functionName)
	if err != nil {
		return nil, fmt.Errorf("building CFG: %w", err)
	}
	logger.Debug("CFG built", "function", functionName, "nodes", len(graph.Nodes()), "edges", len(graph.Edges()))

	semantics, initial, err := newDomain(cfg.Domain)
	if err != nil {
		return nil, err
	}

	if postcondition != "" {
		cond, err := lang.ParseCondition(postcondition)
		if err != nil {
			return nil, fmt.Errorf("parsing postcondition: %w", err)
		}
		initial = semantics.Semantics(cond, initial).Filter()
		logger.Debug("postcondition applied", "condition", cond.String(), "state", fmt.Sprint(initial))
	}

	interp := engine.NewBackwardInterpreter(graph, semantics, cfg.Widening)
	result := interp.Analyze(initial)
	logger.Debug("analysis converged", "nodes", len(result.NodeIDs()))

	return engine.BuildReport(graph, result, functionName, string(cfg.Domain), cfg.Widening), nil
}

// newDomain maps a configured domain name onto its semantics and top state.
func newDomain(name config.DomainType) (domain.Semantics, domain.State, error) {
	switch name {
	case config.DomainInterval:
		return interval.Semantics{}, interval.NewState(), nil
	case config.DomainSign:
		return sign.Semantics{}, sign.NewState(), nil
	default:
		return nil, nil, fmt.Errorf("unknown domain: %s", name)
	}
}

// isPythonFile checks if the file has a .py extension.
func isPythonFile(filePath string) bool {
	return strings.HasSuffix(filePath, ".py")
}

// printReport prints an analysis report in human-readable format. For basic
// nodes, states and statements interleave: each statement sits between its
// pre-state and its post-state.
func printReport(report *engine.Report) {
	fmt.Printf("=== Analysis of function: %s ===\n", report.Function)
	fmt.Printf("Domain: %s\n", report.Domain)
	fmt.Printf("Widening: %d\n", report.Widening)
	fmt.Printf("\nNodes (%d):\n", len(report.Nodes))
	for _, node := range report.Nodes {
		fmt.Printf("  %s (%s)\n", node.ID, node.Kind)
		if len(node.States) == len(node.Statements)+1 {
			for i, stmt := range node.Statements {
				fmt.Printf("    %s\n", node.States[i])
				fmt.Printf("      | %s\n", stmt)
			}
			fmt.Printf("    %s\n", node.States[len(node.States)-1])
			continue
		}
		for _, state := range node.States {
			fmt.Printf("    %s\n", state)
		}
	}
}

func init() {
	analyzeCmd.Flags().String("domain", "", "Abstract domain (interval or sign)")
	analyzeCmd.Flags().Int("widening", 0, "Passes around a loop head before widening")
	analyzeCmd.Flags().String("postcondition", "", "Condition assumed at the exit node, e.g. 'x == 0'")
	analyzeCmd.Flags().Bool("save", false, "Save the report to the report directory")
	analyzeCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	analyzeCmd.Flags().BoolP("verbose", "v", false, "Verbose logging")
	RootCmd.AddCommand(analyzeCmd)
}
