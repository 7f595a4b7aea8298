package render

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/NimbleMarkets/ntcharts/barchart"
	"github.com/NimbleMarkets/ntcharts/sparkline"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/samber/lo"

	"github.com/cctally/cctally/internal/stats"
)

const (
	minReportWidth     = 60
	activityWindowDays = 30
	sparklineHeight    = 3
	hourChartHeight    = 6
	maxStatsProjects   = 10
	maxDetailSessions  = 20
	maxModelRows       = 8
)

// Stats renders the full usage report as a styled block: header, totals,
// daily-activity sparkline, top projects, and the cache-derived sections
// when a stats cache was present. days bounds the sparkline window; values
// outside 1..activityWindowDays fall back to the default.
func Stats(report *stats.Report, accent string, width, days int) string {
	return statsAt(report, accent, width, days, time.Now())
}

func statsAt(report *stats.Report, accent string, width, days int, now time.Time) string {
	if report == nil {
		return ""
	}
	if width < minReportWidth {
		width = minReportWidth
	}
	if days < 1 || days > activityWindowDays {
		days = activityWindowDays
	}
	accentCol := AccentColor(accent)

	var sb strings.Builder
	sb.WriteString(reportHeader(report.ClientVersion, accentCol, width))
	sb.WriteString("\n")
	sb.WriteString(totalsLine(report.Totals))
	sb.WriteString("\n")

	if len(report.Projects) == 0 {
		sb.WriteString("\n")
		sb.WriteString(dimStyle.Render("No Claude Code activity found."))
		sb.WriteString("\n")
		return sb.String()
	}

	if len(report.ActivityByDate) > 0 {
		sb.WriteString("\n")
		sb.WriteString(sectionHeaderStyle.Render("Daily activity"))
		sb.WriteString("\n")
		sb.WriteString(activityChart(report.ActivityByDate, accentCol, width, days, now))
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(sectionHeaderStyle.Render("Top projects"))
	sb.WriteString("\n")
	sb.WriteString(projectTable(report.Projects, width, maxStatsProjects))

	if c := report.Cache; c != nil {
		if len(c.Hours) > 0 {
			sb.WriteString("\n")
			sb.WriteString(sectionHeaderStyle.Render("Sessions by hour"))
			sb.WriteString("\n")
			sb.WriteString(hourChart(c.Hours, accentCol, width))
			sb.WriteString("\n")
		}
		if len(c.ModelBreakdown) > 0 {
			sb.WriteString("\n")
			sb.WriteString(sectionHeaderStyle.Render("Models"))
			sb.WriteString("\n")
			sb.WriteString(modelRows(c.ModelBreakdown, width))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
		sb.WriteString(cacheSummaryLine(c))
		sb.WriteString("\n")
	}
	return sb.String()
}

// Projects renders the whole project table, one row per project, with the
// report totals underneath.
func Projects(report *stats.Report, width int) string {
	if report == nil || len(report.Projects) == 0 {
		return dimStyle.Render("No projects found.")
	}
	if width < minReportWidth {
		width = minReportWidth
	}
	var sb strings.Builder
	sb.WriteString(projectTable(report.Projects, width, 0))
	sb.WriteString("\n")
	sb.WriteString(totalsLine(report.Totals))
	return sb.String()
}

// ProjectDetail renders one project with its session rows, newest first.
func ProjectDetail(p *stats.Project, width int) string {
	if p == nil {
		return ""
	}
	if width < minReportWidth {
		width = minReportWidth
	}
	var sb strings.Builder
	sb.WriteString(headerStyle.Render(p.Name))
	if p.Path != "" && p.Path != p.Name {
		sb.WriteString("  " + dimStyle.Render(p.Path))
	}
	sb.WriteString("\n")
	sb.WriteString(strings.Join([]string{
		labelStyle.Render("Sessions ") + metricValueStyle.Render(strconv.Itoa(p.TotalSessions)),
		labelStyle.Render("Time ") + metricValueStyle.Render(FormatDuration(p.TotalDurationMS)),
		labelStyle.Render("Tokens ") + metricValueStyle.Render(FormatTokens(p.TotalTokens.Total())),
	}, "   "))
	sb.WriteString("\n\n")

	shown := p.Sessions
	if len(shown) > maxDetailSessions {
		shown = shown[:maxDetailSessions]
	}
	const (
		dateW  = 7
		timeW  = 8
		tokW   = 9
		agentW = 4
	)
	titleW := width - dateW - timeW - tokW - agentW - 8
	if titleW < 16 {
		titleW = 16
	}
	for _, s := range shown {
		agents := FitWidth("", agentW)
		if s.SubagentCount > 0 {
			agents = tealStyle.Render(FitWidth("+"+strconv.Itoa(s.SubagentCount), agentW))
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
			dimStyle.Render(FitWidth(dateLabel(s.Timestamp.Format("2006-01-02")), dateW)),
			metricValueStyle.Render(FitWidth(FormatDuration(s.TotalDurationMS), timeW)),
			labelStyle.Render(FitWidth(FormatTokens(s.TotalTokens.Total()), tokW)),
			agents,
			valueStyle.Render(FitWidth(s.Title, titleW)),
		))
	}
	if len(p.Sessions) > len(shown) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("… and %d more", len(p.Sessions)-len(shown))))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

// ─── Sections ───────────────────────────────────────────────────────────────

func reportHeader(version string, accentCol lipgloss.Color, width int) string {
	brand := lipgloss.NewStyle().Bold(true).Foreground(accentCol).Render("cctally")
	left := brand + dimStyle.Render(" · Claude Code usage")
	right := ""
	if version != "" {
		right = dimStyle.Render("v" + version)
	}
	if pad := width - lipgloss.Width(left) - lipgloss.Width(right); pad > 0 {
		return left + strings.Repeat(" ", pad) + right
	}
	return strings.TrimRight(left+" "+right, " ")
}

func totalsLine(t stats.Totals) string {
	pair := func(label, value string) string {
		return labelStyle.Render(label+" ") + metricValueStyle.Render(value)
	}
	return strings.Join([]string{
		pair("Projects", strconv.Itoa(t.Projects)),
		pair("Sessions", strconv.Itoa(t.Sessions)),
		pair("Time", FormatDuration(t.DurationMS)),
		pair("Tokens", FormatTokens(t.Tokens.Total())),
	}, "   ")
}

func activityChart(activity map[string]stats.DayActivity, accentCol lipgloss.Color, width, days int, now time.Time) string {
	if days > width-2 {
		days = width - 2
	}
	if days < 1 {
		days = 1
	}
	series := dailySeries(activity, now, days)

	sl := sparkline.New(days, sparklineHeight,
		sparkline.WithStyle(lipgloss.NewStyle().Foreground(accentCol)))
	sl.PushAll(series)
	sl.Draw()

	from := chartAxisStyle.Render(dateLabel(now.AddDate(0, 0, 1-days).Format("2006-01-02")))
	to := chartAxisStyle.Render("today")
	axis := from
	if pad := days - lipgloss.Width(from) - lipgloss.Width(to); pad > 0 {
		axis += strings.Repeat(" ", pad) + to
	}
	return indentBlock(strings.TrimRight(sl.View(), "\n"), 2) + "\n  " + axis
}

// dailySeries gap-fills the activity map into one value per calendar day,
// oldest first, ending today. Values are minutes of session time.
func dailySeries(activity map[string]stats.DayActivity, now time.Time, days int) []float64 {
	series := make([]float64, days)
	for i := range series {
		date := now.AddDate(0, 0, i-days+1).Format("2006-01-02")
		if a, ok := activity[date]; ok {
			series[i] = float64(a.DurationMS) / 60_000
		}
	}
	return series
}

func projectTable(projects []*stats.Project, width, limit int) string {
	if limit <= 0 || limit > len(projects) {
		limit = len(projects)
	}
	const (
		timeW = 9
		sessW = 5
		tokW  = 9
		lastW = 7
	)
	nameW := width - timeW - sessW - tokW - lastW - 8
	if nameW < 12 {
		nameW = 12
	}
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
		labelStyle.Render(FitWidth("PROJECT", nameW)),
		labelStyle.Render(FitWidth("TIME", timeW)),
		labelStyle.Render(FitWidth("SESS", sessW)),
		labelStyle.Render(FitWidth("TOKENS", tokW)),
		labelStyle.Render(FitWidth("LAST", lastW)),
	))
	for _, p := range projects[:limit] {
		last := ""
		if len(p.Sessions) > 0 {
			last = dateLabel(p.Sessions[0].Timestamp.Format("2006-01-02"))
		}
		sb.WriteString(fmt.Sprintf("%s  %s  %s  %s  %s\n",
			valueStyle.Render(FitWidth(p.Name, nameW)),
			metricValueStyle.Render(FitWidth(FormatDuration(p.TotalDurationMS), timeW)),
			labelStyle.Render(FitWidth(strconv.Itoa(p.TotalSessions), sessW)),
			labelStyle.Render(FitWidth(FormatTokens(p.TotalTokens.Total()), tokW)),
			dimStyle.Render(FitWidth(last, lastW)),
		))
	}
	if limit < len(projects) {
		sb.WriteString(dimStyle.Render(fmt.Sprintf("… and %d more", len(projects)-limit)))
		sb.WriteString("\n")
	}
	return strings.TrimRight(sb.String(), "\n")
}

func hourChart(hours []stats.HourCount, accentCol lipgloss.Color, width int) string {
	counts := make(map[int]int, len(hours))
	for _, h := range hours {
		counts[h.Hour] = h.Count
	}
	barStyle := lipgloss.NewStyle().Foreground(accentCol)
	data := make([]barchart.BarData, 0, 24)
	for hour := 0; hour < 24; hour++ {
		data = append(data, barchart.BarData{
			Label: fmt.Sprintf("%02d", hour),
			Values: []barchart.BarValue{{
				Name:  "sessions",
				Value: float64(counts[hour]),
				Style: barStyle,
			}},
		})
	}
	w := width - 2
	if w > 72 {
		w = 72
	}
	bc := barchart.New(w, hourChartHeight)
	bc.PushAll(data)
	bc.Draw()
	return indentBlock(strings.TrimRight(bc.View(), "\n"), 2)
}

func modelRows(models []stats.ModelStat, width int) string {
	shown := models
	if len(shown) > maxModelRows {
		shown = shown[:maxModelRows]
	}
	var max int64
	nameW := 10
	for _, m := range shown {
		if t := m.Usage.Total(); t > max {
			max = t
		}
		if l := lipgloss.Width(m.Model); l > nameW {
			nameW = l
		}
	}
	if max == 0 {
		return ""
	}
	barW := width - nameW - 16
	if barW < 10 {
		barW = 10
	}
	var sb strings.Builder
	for i, m := range shown {
		total := m.Usage.Total()
		fill := int(float64(barW) * float64(total) / float64(max))
		if fill < 1 && total > 0 {
			fill = 1
		}
		if fill > barW {
			fill = barW
		}
		rowStyle := lipgloss.NewStyle().Foreground(ModelColor(i))
		sb.WriteString(fmt.Sprintf("%s  %s%s  %s\n",
			rowStyle.Width(nameW).Render(m.Model),
			rowStyle.Render(strings.Repeat("█", fill)),
			trackStyle.Render(strings.Repeat("░", barW-fill)),
			dimStyle.Render(FormatTokens(total)+" tok"),
		))
	}
	return strings.TrimRight(sb.String(), "\n")
}

func cacheSummaryLine(c *stats.CacheStats) string {
	parts := make([]string, 0, 2)
	if len(c.PeakHours) > 0 {
		peaks := lo.Map(c.PeakHours, func(h stats.HourCount, _ int) string {
			return fmt.Sprintf("%02d:00 ×%d", h.Hour, h.Count)
		})
		parts = append(parts, labelStyle.Render("Peak hours ")+tealStyle.Render(strings.Join(peaks, " · ")))
	}
	streak := dimStyle.Render("0 days")
	if c.Streak > 0 {
		streak = greenStyle.Render(pluralDays(c.Streak))
	}
	parts = append(parts, labelStyle.Render("Streak ")+streak)
	return strings.Join(parts, "   ")
}

// ─── Formatting Helpers ─────────────────────────────────────────────────────

// FitWidth cuts s to the given display width, ANSI sequences preserved,
// and pads with spaces up to that width.
func FitWidth(s string, width int) string {
	if width <= 0 {
		return ""
	}
	out := ansi.Cut(s, 0, width)
	if pad := width - lipgloss.Width(out); pad > 0 {
		out += strings.Repeat(" ", pad)
	}
	return out
}

// FormatDuration renders a millisecond count compactly, e.g. "5m12s".
func FormatDuration(ms int64) string {
	d := time.Duration(ms) * time.Millisecond
	if d < 0 {
		d = 0
	}
	switch {
	case d < time.Minute:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	case d < time.Hour:
		return fmt.Sprintf("%dm%ds", int(d.Minutes()), int(d.Seconds())%60)
	case d < 24*time.Hour:
		return fmt.Sprintf("%dh%dm", int(d.Hours()), int(d.Minutes())%60)
	default:
		return fmt.Sprintf("%dd%dh", int(d.Hours())/24, int(d.Hours())%24)
	}
}

// FormatTokens renders a token count compactly, "-" when zero.
func FormatTokens(n int64) string {
	if n == 0 {
		return "-"
	}
	return formatNumber(float64(n))
}

func formatNumber(n float64) string {
	if n == 0 {
		return "0"
	}
	abs := math.Abs(n)
	switch {
	case abs >= 1_000_000:
		return fmt.Sprintf("%.1fM", n/1_000_000)
	case abs >= 10_000:
		return fmt.Sprintf("%.1fK", n/1_000)
	case abs >= 1_000:
		return fmt.Sprintf("%.0f", n)
	case abs == math.Floor(abs):
		return fmt.Sprintf("%.0f", n)
	default:
		return fmt.Sprintf("%.2f", n)
	}
}

func dateLabel(date string) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return date
	}
	return t.Format("Jan 2")
}

func pluralDays(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}

func indentBlock(s string, indent int) string {
	pad := strings.Repeat(" ", indent)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if ln != "" {
			lines[i] = pad + ln
		}
	}
	return strings.Join(lines, "\n")
}
