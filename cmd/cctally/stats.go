package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cctally/cctally/internal/render"
)

func newStatsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool
	var days int

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print the styled usage report",
		RunE: func(_ *cobra.Command, _ []string) error {
			report, err := opts.buildReport()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(os.Stdout, report)
			}
			fmt.Println(render.Stats(report, opts.cfg.UI.Accent, defaultReportWidth, days))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON instead of styled text")
	cmd.Flags().IntVar(&days, "days", 30, "length of the daily activity window")
	return cmd
}
