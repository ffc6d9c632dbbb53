package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l3aro/go-abstract-interp/pkg/engine"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report <path>",
	Short: "Print a previously saved analysis report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := engine.LoadReportFile(args[0])
		if err != nil {
			return fmt.Errorf("loading report: %w", err)
		}

		jsonOutput, _ := cmd.Flags().GetBool("json")
		if jsonOutput {
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

func init() {
	reportCmd.Flags().BoolP("json", "j", false, "Output as JSON")
	RootCmd.AddCommand(reportCmd)
}
