package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cctally/cctally/internal/export"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a SQLite snapshot of the usage report",
		RunE: func(cmd *cobra.Command, _ []string) error {
			report, err := opts.buildReport()
			if err != nil {
				return err
			}
			if err := export.Snapshot(cmd.Context(), out, report); err != nil {
				return err
			}
			fmt.Printf("Exported %d projects and %d sessions to %s\n",
				report.Totals.Projects, report.Totals.Sessions, out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "cctally.sqlite", "snapshot file to write")
	return cmd
}
