// Package profile writes a Markdown usage profile from a computed report.
// Callers hand in the already-redacted report; nothing here re-reads logs,
// so the document is safe to drop into a notes vault or share.
package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/cctally/cctally/internal/render"
	"github.com/cctally/cctally/internal/stats"
)

// Write renders the profile document and writes it to path.
func Write(path string, report *stats.Report) error {
	if report == nil {
		return fmt.Errorf("profile: nil report")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("profile: creating profile dir: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(Build(report, time.Now())), 0o644); err != nil {
		return fmt.Errorf("profile: writing profile: %w", err)
	}
	return nil
}

// Build renders the whole profile document as Markdown.
func Build(report *stats.Report, now time.Time) string {
	var sb strings.Builder

	sb.WriteString("---\n")
	sb.WriteString(fmt.Sprintf("date: \"%s\"\n", now.Format("2006-01-02")))
	sb.WriteString("type: usage-profile\n")
	sb.WriteString("auto_generated: true\n")
	if report.ClientVersion != "" {
		sb.WriteString(fmt.Sprintf("client_version: \"%s\"\n", report.ClientVersion))
	}
	sb.WriteString("---\n\n")

	sb.WriteString("# Claude Code Usage Profile\n\n")

	sb.WriteString("## Overview\n\n")
	sb.WriteString("| Metric | Value |\n|--------|-------|\n")
	sb.WriteString(fmt.Sprintf("| Projects | %d |\n", report.Totals.Projects))
	sb.WriteString(fmt.Sprintf("| Sessions | %d |\n", report.Totals.Sessions))
	sb.WriteString(fmt.Sprintf("| Total Time | %s |\n", render.FormatDuration(report.Totals.DurationMS)))
	sb.WriteString(fmt.Sprintf("| Tokens In | %s |\n", render.FormatTokens(report.Totals.Tokens.Input)))
	sb.WriteString(fmt.Sprintf("| Tokens Out | %s |\n", render.FormatTokens(report.Totals.Tokens.Output)))
	sb.WriteString(fmt.Sprintf("| Tokens Total | %s |\n", render.FormatTokens(report.Totals.Tokens.Total())))
	sb.WriteString("\n")

	if len(report.Projects) > 0 {
		sb.WriteString("## Projects\n\n")
		sb.WriteString("| Project | Sessions | Time | Tokens | Last Active |\n")
		sb.WriteString("|---------|----------|------|--------|-------------|\n")
		for _, p := range report.Projects {
			last := "-"
			if len(p.Sessions) > 0 {
				last = p.Sessions[0].Timestamp.Format("2006-01-02")
			}
			sb.WriteString(fmt.Sprintf("| %s | %d | %s | %s | %s |\n",
				p.Name,
				p.TotalSessions,
				render.FormatDuration(p.TotalDurationMS),
				render.FormatTokens(p.TotalTokens.Total()),
				last))
		}
		sb.WriteString("\n")
	}

	tools := toolUsage(report)
	if len(tools) > 0 {
		total := 0
		for _, t := range tools {
			total += t.Count
		}
		sb.WriteString("## Tool Usage\n\n")
		sb.WriteString("| Tool | Count | % |\n|------|-------|---|\n")
		for _, t := range tools {
			pct := float64(t.Count) / float64(total) * 100
			sb.WriteString(fmt.Sprintf("| %s | %d | %.0f%% |\n", t.Name, t.Count, pct))
		}
		sb.WriteString("\n")
	}

	if c := report.Cache; c != nil && len(c.ModelBreakdown) > 0 {
		sb.WriteString("## Models\n\n")
		sb.WriteString("| Model | Tokens |\n|-------|--------|\n")
		for _, m := range c.ModelBreakdown {
			sb.WriteString(fmt.Sprintf("| %s | %s |\n", m.Model, render.FormatTokens(m.Usage.Total())))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Rhythm\n\n")
	sb.WriteString(fmt.Sprintf("- **Active days**: %d\n", len(report.ActivityByDate)))
	if date, sessions := busiestDay(report.ActivityByDate); date != "" {
		sb.WriteString(fmt.Sprintf("- **Busiest day**: %s (%d sessions)\n", date, sessions))
	}
	if c := report.Cache; c != nil {
		if len(c.PeakHours) > 0 {
			h := c.PeakHours[0]
			sb.WriteString(fmt.Sprintf("- **Peak hour**: %d:00 (%d sessions)\n", h.Hour, h.Count))
		}
		unit := "days"
		if c.Streak == 1 {
			unit = "day"
		}
		sb.WriteString(fmt.Sprintf("- **Streak**: %d %s\n", c.Streak, unit))
	}
	sb.WriteString("\n")

	if len(report.ActivityByDate) > 0 {
		dates := make([]string, 0, len(report.ActivityByDate))
		for date := range report.ActivityByDate {
			dates = append(dates, date)
		}
		sort.Strings(dates)
		sb.WriteString("## Daily Breakdown\n\n")
		sb.WriteString("| Date | Sessions | Time |\n|------|----------|------|\n")
		for _, date := range dates {
			a := report.ActivityByDate[date]
			sb.WriteString(fmt.Sprintf("| %s | %d | %s |\n",
				date, a.Sessions, render.FormatDuration(a.DurationMS)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

type toolCount struct {
	Name  string
	Count int
}

// toolUsage folds tool counters across every session and subagent.
func toolUsage(report *stats.Report) []toolCount {
	counts := make(map[string]int)
	for _, p := range report.Projects {
		stack := append([]*stats.Session(nil), p.Sessions...)
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			for name, n := range s.Tools {
				counts[name] += n
			}
			stack = append(stack, s.Children...)
		}
	}
	var tools []toolCount
	for name, count := range counts {
		tools = append(tools, toolCount{name, count})
	}
	sort.Slice(tools, func(i, j int) bool {
		if tools[i].Count != tools[j].Count {
			return tools[i].Count > tools[j].Count
		}
		return tools[i].Name < tools[j].Name
	})
	return tools
}

func busiestDay(activity map[string]stats.DayActivity) (string, int) {
	bestDate := ""
	bestCount := 0
	for date, a := range activity {
		if a.Sessions > bestCount || (a.Sessions == bestCount && bestDate != "" && date < bestDate) {
			bestDate = date
			bestCount = a.Sessions
		}
	}
	return bestDate, bestCount
}
