package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"pomotrack/internal/analytics"
	"pomotrack/internal/logging"
	"pomotrack/internal/report"
	"pomotrack/internal/session"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Generate an HTML analytics report",
	RunE: func(cmd *cobra.Command, args []string) error {
		outputFile, _ := cmd.Flags().GetString("output")
		openReport, _ := cmd.Flags().GetBool("open")
		limit, _ := cmd.Flags().GetInt("recent")
		log := logging.NewLogger("report")

		ctx, cancel := context.WithTimeout(context.Background(), cfg.Client.RequestTimeout())
		defer cancel()

		c := newClient()
		now := time.Now()
		d, loadErr := c.Analytics(ctx)
		var recent []session.Record
		if loadErr == nil {
			recent, loadErr = c.ListSessions(ctx)
		}
		if loadErr != nil {
			log.WithError(loadErr).Warn("Rendering report without backend data")
			d = analytics.Build(nil, now)
			recent = nil
		}

		if err := report.WriteFile(outputFile, report.NewData(d, recent, limit, now, loadErr)); err != nil {
			return err
		}
		fmt.Printf("Report successfully generated: %s\n", outputFile)

		if openReport {
			if err := report.OpenBrowser(outputFile); err != nil {
				log.WithError(err).Warn("Failed to open report in browser")
			}
		}
		return nil
	},
}

func init() {
	reportCmd.Flags().StringP("output", "o", "pomotrack_report.html", "Output HTML file name")
	reportCmd.Flags().BoolP("open", "O", false, "Open the generated report in the default browser")
	reportCmd.Flags().Int("recent", 20, "Number of recent sessions to list")
}
