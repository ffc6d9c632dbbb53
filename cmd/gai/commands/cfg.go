package commands

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-abstract-interp/pkg/cfg"
	"github.com/l3aro/go-abstract-interp/pkg/frontend"
)

// cfgCmd represents the cfg command
var cfgCmd = &cobra.Command{
	Use:   "cfg <file> <function>",
	Short: "Extract control flow graph for a function",
	Long: `Extracts the Control Flow Graph (CFG) for a specific function in a Python file,
with the scope edges the analysis traverses (if/loop entry and exit).`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		filePath := args[0]
		functionName := args[1]

		info, err := os.Stat(filePath)
		if err != nil {
			return fmt.Errorf("stat file: %w", err)
		}
		if info.IsDir() {
			return fmt.Errorf("path is a directory, expected a file: %s", filePath)
		}
		if !isPythonFile(filePath) {
			return fmt.Errorf("unsupported file type: %s (only .py files supported)", filePath)
		}

		graph, err := frontend.BuildPythonCFG(filePath, functionName)
		if err != nil {
			return fmt.Errorf("extracting CFG: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
			data, err := json.MarshalIndent(graph, "", "  ")
			if err != nil {
				return fmt.Errorf("marshaling JSON: %w", err)
			}
			fmt.Println(string(data))
			return nil
		}

		printGraph(functionName, graph)
		return nil
	},
}

// printGraph prints the graph in human-readable format.
func printGraph(functionName string, graph *cfg.ControlFlowGraph) {
	fmt.Printf("=== CFG for function: %s ===\n", functionName)
	fmt.Printf("Entry Node: %s\n", graph.InNode().ID)
	fmt.Printf("Exit Node: %s\n", graph.OutNode().ID)

	nodes := graph.Nodes()
	fmt.Printf("\nNodes (%d):\n", len(nodes))
	for _, node := range nodes {
		fmt.Printf("  %s (%s)\n", node.ID, node.Kind)
		for _, stmt := range node.Stmts {
			fmt.Printf("    %s\n", stmt)
		}
	}

	edges := graph.Edges()
	fmt.Printf("\nEdges (%d):\n", len(edges))
	for _, edge := range edges {
		if edge.Conditional() {
			fmt.Printf("  %s --%s[%s]--> %s\n", edge.SourceID, edge.Kind, edge.Condition, edge.TargetID)
		} else {
			fmt.Printf("  %s --%s--> %s\n", edge.SourceID, edge.Kind, edge.TargetID)
		}
	}
}

func init() {
	cfgCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(cfgCmd)
}
