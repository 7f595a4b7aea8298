package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/cctally/cctally/internal/profile"
)

func newProfileCommand(opts *rootOptions) *cobra.Command {
	var out string

	cmd := &cobra.Command{
		Use:   "profile",
		Short: "Write a Markdown usage profile",
		Long:  "Builds a shareable Markdown profile from the usage report. Redaction from --redact and settings applies before anything is written.",
		RunE: func(_ *cobra.Command, _ []string) error {
			report, err := opts.buildReport()
			if err != nil {
				return err
			}
			if err := profile.Write(out, report); err != nil {
				return err
			}
			fmt.Printf("Wrote usage profile to %s\n", out)
			return nil
		},
	}

	cmd.Flags().StringVar(&out, "out", "claude-profile.md", "profile file to write")
	return cmd
}
