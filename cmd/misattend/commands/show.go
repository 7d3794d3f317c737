package commands

import (
	"os"

	"misattend/lib/reportfmt"
	"misattend/lib/sink"

	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(showCmd)
}

var showCmd = &cobra.Command{
	Use:   "show <path/to/attendance.json>",
	Short: "Pretty prints a previously written report.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		report, err := sink.ReadFile(args[0])
		if err != nil {
			return err
		}
		reportfmt.Report(os.Stdout, report)
		return nil
	},
}
