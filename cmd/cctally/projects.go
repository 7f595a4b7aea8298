package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cctally/cctally/internal/render"
)

func newProjectsCommand(opts *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "projects",
		Short: "Print every project with its totals",
		RunE: func(_ *cobra.Command, _ []string) error {
			report, err := opts.buildReport()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(os.Stdout, report)
			}
			fmt.Println(render.Projects(report, defaultReportWidth))
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "emit the report as JSON instead of styled text")
	return cmd
}
