package main

import (
	"encoding/json"
	"io"
	"log"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/cctally/cctally/internal/config"
	"github.com/cctally/cctally/internal/lockfile"
	"github.com/cctally/cctally/internal/stats"
	"github.com/cctally/cctally/internal/tui"
	"github.com/cctally/cctally/internal/version"
)

// defaultReportWidth is the layout width for the static report commands.
const defaultReportWidth = 100

// rootOptions carries the persistent flags and loaded settings into every
// subcommand.
type rootOptions struct {
	cfg       config.Config
	claudeDir string
	redact    []string
}

func newRootCommand(cfg config.Config) *cobra.Command {
	opts := &rootOptions{cfg: cfg}

	cmd := &cobra.Command{
		Use:     "cctally",
		Short:   "cctally summarizes Claude Code usage from its local transcript logs.",
		Version: version.String(),
		RunE: func(_ *cobra.Command, _ []string) error {
			report, err := opts.buildReport()
			if err != nil {
				return err
			}
			return tui.Run(report, opts.cfg.UI.Accent)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.claudeDir, "claude-dir",
		"", "Claude data directory (default ~/.claude)")
	cmd.PersistentFlags().StringArrayVar(&opts.redact, "redact",
		nil, "project path or name to mask in output; repeatable")

	cmd.AddCommand(newStatsCommand(opts))
	cmd.AddCommand(newProjectsCommand(opts))
	cmd.AddCommand(newExportCommand(opts))
	cmd.AddCommand(newProfileCommand(opts))

	return cmd
}

// claudeRoot resolves the data directory: flag, then settings, then the
// standard ~/.claude location.
func (o *rootOptions) claudeRoot() (string, error) {
	if o.claudeDir != "" {
		return o.claudeDir, nil
	}
	if o.cfg.ClaudeDir != "" {
		return o.cfg.ClaudeDir, nil
	}
	return stats.DefaultRoot()
}

// redactSpecifiers merges the settings list with the repeatable flag.
func (o *rootOptions) redactSpecifiers() []string {
	merged := append([]string(nil), o.cfg.RedactProjects...)
	return append(merged, o.redact...)
}

// buildReport runs one full scan under the advisory lock and applies
// redaction. The lock covers only the scan; rendering and writing happen
// after release.
func (o *rootOptions) buildReport() (*stats.Report, error) {
	root, err := o.claudeRoot()
	if err != nil {
		return nil, err
	}

	lock, err := lockfile.Acquire(filepath.Join(config.ConfigDir(), "cctally.lock"))
	if err != nil {
		return nil, err
	}
	defer lock.Release()

	log.Printf("scanning %s", root)
	report, err := stats.NewEngine(root).Collect()
	if err != nil {
		return nil, err
	}
	return stats.Redact(report, o.redactSpecifiers()), nil
}

func printJSON(w io.Writer, report *stats.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}
