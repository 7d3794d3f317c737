package commands

import (
	"encoding/json"
	"os"

	"misattend/lib/reportfmt"
	"misattend/lib/scrapers/mis"
	"misattend/lib/sink"

	"github.com/spf13/cobra"
)

var (
	scrapeOut  string
	scrapeJson bool
)

func init() {
	scrapeCmd.Flags().StringVarP(&scrapeOut, "out", "o", "", "The file to write the report to (default attendance.json).")
	scrapeCmd.Flags().BoolVar(&scrapeJson, "json", false, "Print the result envelope as json instead of a table.")
	rootCmd.AddCommand(scrapeCmd)
}

var scrapeCmd = &cobra.Command{
	Use:   "scrape [--out <path/to/attendance.json>]",
	Short: "Logs into the portal once, scrapes attendance and writes it to every configured sink.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flush := setupTelemetry(ctx)
		defer flush()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		service, closeService, err := newService(ctx, cfg, scrapeOut)
		if err != nil {
			return err
		}
		defer closeService()

		result, err := service.Run(ctx)
		if scrapeJson {
			envelope := sink.OK(result.Report)
			if err != nil && result.Report == nil {
				envelope = sink.Fail(err)
			} else if err != nil {
				// the report exists but could not be delivered everywhere
				envelope.Error = err.Error()
			}
			encoder := json.NewEncoder(os.Stdout)
			encoder.SetIndent("", "  ")
			encodeErr := encoder.Encode(envelope)
			if encodeErr != nil {
				return encodeErr
			}
		} else if result.Report != nil {
			reportfmt.Report(os.Stdout, result.Report)
		}
		if err != nil {
			return exitError{code: mis.ExitCode(err), err: err}
		}
		return nil
	},
}
