package commands

import (
	"errors"
	"fmt"
	"os"

	"misattend/lib/reportfmt"
	"misattend/services/attendance"

	"github.com/spf13/cobra"
)

var (
	historyLimit   int
	historySubject string
)

func init() {
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 30, "The number of snapshots to list.")
	historyCmd.Flags().StringVarP(&historySubject, "subject", "s", "", "Show the history of a single subject instead.")
	rootCmd.AddCommand(historyCmd)
}

var historyCmd = &cobra.Command{
	Use:   "history [--limit N] [--subject name]",
	Short: "Lists previously recorded attendance snapshots.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		history, database, err := openHistory(ctx, cfg)
		if err != nil {
			return err
		}
		if history == nil {
			return errors.New("history is not configured, add a \"history\" section to the config")
		}
		defer database.Close()

		service := attendance.NewService(attendance.Params{History: history}, tel)

		if historySubject != "" {
			series, err := service.SubjectSeries(ctx, historySubject)
			if err != nil {
				return err
			}
			if series.Subject != historySubject {
				fmt.Fprintf(os.Stderr, "showing closest match %q\n", series.Subject)
			}
			reportfmt.Series(os.Stdout, series.Subject, series.Series)
			return nil
		}

		snapshots, err := service.History(ctx, historyLimit)
		if err != nil {
			return err
		}
		reportfmt.History(os.Stdout, snapshots)
		return nil
	},
}
