package commands

import (
	"misattend/lib/chrono"
	"misattend/lib/serviceutil"
	"misattend/lib/telemetry"
	"misattend/services/attendance"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
)

var serveScrape bool

func init() {
	serveCmd.Flags().BoolVar(&serveScrape, "scrape", false, "Trigger a scrape immediately on start.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [--scrape]",
	Short: "Serves the attendance api and scrapes on the configured schedule.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		flush := setupTelemetry(ctx)
		defer flush()
		telemetry.InstrumentPerfStats(ctx)

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		service, closeService, err := newService(ctx, cfg, "")
		if err != nil {
			return err
		}
		defer closeService()

		if cfg.Serve.Schedule != "" {
			cron := chrono.NewStandardCron(tel)
			defer cron.Stop()
			err = service.Schedule(cron, cfg.Serve.Schedule)
			if err != nil {
				return err
			}
		}
		if serveScrape {
			go func() {
				_, err := service.Run(ctx)
				if err != nil {
					tel.ReportWarning("serve.initial-scrape", err)
				}
			}()
		}

		if !verbose {
			gin.SetMode(gin.ReleaseMode)
		}
		handler := attendance.NewHandler(service, attendance.ApiConfig{
			AccessToken:      cfg.Serve.AccessToken,
			ScrapesPerMinute: cfg.Serve.ScrapesPerMinute,
		})

		addr := cfg.Serve.Addr
		if addr == "" {
			addr = "0.0.0.0:8000"
		}
		return serviceutil.StartHttpServer(ctx, addr, handler.Router())
	},
}
