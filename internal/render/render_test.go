package render

import (
	"strings"
	"testing"
	"time"

	"github.com/cctally/cctally/internal/stats"
)

func testReport(now time.Time) *stats.Report {
	s1 := &stats.Session{
		ID:              "s1",
		Title:           "Fix flaky watcher test",
		Timestamp:       now.Add(-2 * time.Hour),
		DurationMS:      5400000,
		TotalDurationMS: 7200000,
		TotalTokens:     stats.TokenUsage{Input: 9000, Output: 3500},
		SubagentCount:   2,
	}
	s2 := &stats.Session{
		ID:              "s2",
		Title:           "Refactor config loader",
		Timestamp:       now.Add(-26 * time.Hour),
		DurationMS:      1800000,
		TotalDurationMS: 1800000,
		TotalTokens:     stats.TokenUsage{Input: 2000, Output: 800},
	}
	webapp := &stats.Project{
		Name:            "webapp",
		Path:            "/home/dev/webapp",
		Sessions:        []*stats.Session{s1, s2},
		TotalSessions:   4,
		TotalDurationMS: 9000000,
		TotalTokens:     stats.TokenUsage{Input: 11000, Output: 4300},
	}
	api := &stats.Project{
		Name: "api",
		Path: "/home/dev/api",
		Sessions: []*stats.Session{{
			ID:              "s3",
			Title:           "Add rate limiter",
			Timestamp:       now.Add(-50 * time.Hour),
			DurationMS:      600000,
			TotalDurationMS: 600000,
		}},
		TotalSessions:   1,
		TotalDurationMS: 600000,
	}
	return &stats.Report{
		Projects: []*stats.Project{webapp, api},
		Totals: stats.Totals{
			Projects:   2,
			Sessions:   3,
			DurationMS: 9600000,
			Tokens:     stats.TokenUsage{Input: 11000, Output: 4300},
		},
		ActivityByDate: map[string]stats.DayActivity{
			now.Format("2006-01-02"):                   {Sessions: 1, DurationMS: 5400000},
			now.AddDate(0, 0, -2).Format("2006-01-02"): {Sessions: 2, DurationMS: 4200000},
		},
		ClientVersion: "2.0.14",
		Cache: &stats.CacheStats{
			Hours:     []stats.HourCount{{Hour: 9, Count: 3}, {Hour: 22, Count: 9}},
			PeakHours: []stats.HourCount{{Hour: 22, Count: 9}, {Hour: 9, Count: 3}},
			ModelBreakdown: []stats.ModelStat{
				{Model: "opus-4.1", Usage: stats.TokenUsage{Input: 60000, Output: 9000}},
				{Model: "sonnet-4.5", Usage: stats.TokenUsage{Input: 12000}},
			},
			Streak: 3,
		},
	}
}

func TestStatsAt_ContainsAllSections(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	out := statsAt(testReport(now), "mauve", 100, 0, now)

	for _, want := range []string{
		"cctally",
		"v2.0.14",
		"Daily activity",
		"Top projects",
		"webapp",
		"Sessions by hour",
		"Models",
		"opus-4.1",
		"22:00 ×9",
		"3 days",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("output should contain %q, got:\n%s", want, out)
		}
	}
}

func TestStatsAt_EmptyReport(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	out := statsAt(&stats.Report{}, "mauve", 80, 0, now)
	if !strings.Contains(out, "No Claude Code activity found.") {
		t.Fatalf("empty report should say so, got:\n%s", out)
	}
	if strings.Contains(out, "Top projects") {
		t.Fatal("empty report should not render a project table")
	}
	if got := statsAt(nil, "mauve", 80, 0, now); got != "" {
		t.Fatalf("statsAt(nil) = %q, want empty", got)
	}
}

func TestStatsAt_NoCacheSkipsCacheSections(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	report := testReport(now)
	report.Cache = nil
	out := statsAt(report, "blue", 100, 0, now)

	for _, absent := range []string{"Sessions by hour", "Models", "Streak"} {
		if strings.Contains(out, absent) {
			t.Fatalf("output should not contain %q without a cache, got:\n%s", absent, out)
		}
	}
}

func TestProjects_AllRows(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	out := Projects(testReport(now), 100)

	for _, want := range []string{"PROJECT", "webapp", "api"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output should contain %q, got:\n%s", want, out)
		}
	}
	if got := Projects(nil, 100); !strings.Contains(got, "No projects found.") {
		t.Fatalf("Projects(nil) = %q, want the empty notice", got)
	}
}

func TestProjectTable_LimitsRowCount(t *testing.T) {
	projects := make([]*stats.Project, 0, maxStatsProjects+2)
	for i := 0; i < maxStatsProjects+2; i++ {
		projects = append(projects, &stats.Project{
			Name:          "proj" + string(rune('a'+i)),
			TotalSessions: 1,
		})
	}
	out := projectTable(projects, 100, maxStatsProjects)
	if !strings.Contains(out, "and 2 more") {
		t.Fatalf("truncated table should count the hidden rows, got:\n%s", out)
	}
	if full := projectTable(projects, 100, 0); strings.Contains(full, "more") {
		t.Fatalf("unlimited table should show every row, got:\n%s", full)
	}
}

func TestProjectDetail_SessionRows(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	p := testReport(now).Projects[0]
	out := ProjectDetail(p, 100)

	for _, want := range []string{
		"webapp",
		"/home/dev/webapp",
		"Fix flaky watcher test",
		"Refactor config loader",
		"+2",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("detail should contain %q, got:\n%s", want, out)
		}
	}
	if got := ProjectDetail(nil, 100); got != "" {
		t.Fatalf("ProjectDetail(nil) = %q, want empty", got)
	}
}

func TestProjectDetail_TruncatesLongSessionLists(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	p := &stats.Project{Name: "big"}
	for i := 0; i < maxDetailSessions+5; i++ {
		p.Sessions = append(p.Sessions, &stats.Session{
			ID:        "s" + string(rune('a'+i)),
			Title:     "session",
			Timestamp: now.Add(-time.Duration(i) * time.Hour),
		})
	}
	out := ProjectDetail(p, 100)
	if !strings.Contains(out, "and 5 more") {
		t.Fatalf("detail should count the hidden sessions, got:\n%s", out)
	}
}

func TestDailySeries_GapFillsWindow(t *testing.T) {
	now := time.Date(2026, time.August, 25, 14, 0, 0, 0, time.UTC)
	activity := map[string]stats.DayActivity{
		now.Format("2006-01-02"):                   {DurationMS: 5400000},
		now.AddDate(0, 0, -2).Format("2006-01-02"): {DurationMS: 4200000},
	}
	series := dailySeries(activity, now, 5)
	if len(series) != 5 {
		t.Fatalf("series length = %d, want 5", len(series))
	}
	if series[4] != 90 {
		t.Fatalf("today = %v minutes, want 90", series[4])
	}
	if series[2] != 70 {
		t.Fatalf("two days back = %v minutes, want 70", series[2])
	}
	if series[0] != 0 || series[1] != 0 || series[3] != 0 {
		t.Fatalf("idle days should be zero, got %v", series)
	}
}

func TestFitWidth(t *testing.T) {
	if got := FitWidth("abcdef", 4); got != "abcd" {
		t.Fatalf("FitWidth cut = %q, want %q", got, "abcd")
	}
	if got := FitWidth("ab", 5); got != "ab   " {
		t.Fatalf("FitWidth pad = %q, want %q", got, "ab   ")
	}
	if got := FitWidth("anything", 0); got != "" {
		t.Fatalf("FitWidth zero = %q, want empty", got)
	}
}

func TestFormatDuration(t *testing.T) {
	cases := []struct {
		ms   int64
		want string
	}{
		{0, "0s"},
		{45000, "45s"},
		{300000, "5m0s"},
		{4980000, "1h23m"},
		{90000000, "1d1h"},
		{-5, "0s"},
	}
	for _, tc := range cases {
		if got := FormatDuration(tc.ms); got != tc.want {
			t.Errorf("FormatDuration(%d) = %q, want %q", tc.ms, got, tc.want)
		}
	}
}

func TestFormatTokens(t *testing.T) {
	cases := []struct {
		n    int64
		want string
	}{
		{0, "-"},
		{950, "950"},
		{1000, "1000"},
		{12500, "12.5K"},
		{1200000, "1.2M"},
	}
	for _, tc := range cases {
		if got := FormatTokens(tc.n); got != tc.want {
			t.Errorf("FormatTokens(%d) = %q, want %q", tc.n, got, tc.want)
		}
	}
}

func TestAccentColor(t *testing.T) {
	if got := AccentColor("blue"); got != colorBlue {
		t.Fatalf("AccentColor(blue) = %v, want %v", got, colorBlue)
	}
	if got := AccentColor("neon"); got != colorMauve {
		t.Fatalf("unknown accent = %v, want mauve fallback", got)
	}
}

func TestAccentNames_AllResolvable(t *testing.T) {
	names := AccentNames()
	if len(names) == 0 || names[0] != "mauve" {
		t.Fatalf("AccentNames = %v, want mauve first", names)
	}
	for _, name := range names {
		if _, ok := accentColors[name]; !ok {
			t.Fatalf("accent %q has no palette color", name)
		}
	}
}

func TestDateLabel(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"2026-08-25", "Aug 25"},
		{"2026-01-02", "Jan 2"},
		{"notadate", "notadate"},
	}
	for _, tc := range cases {
		if got := dateLabel(tc.in); got != tc.want {
			t.Errorf("dateLabel(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPluralDays(t *testing.T) {
	if got := pluralDays(1); got != "1 day" {
		t.Fatalf("pluralDays(1) = %q", got)
	}
	if got := pluralDays(4); got != "4 days" {
		t.Fatalf("pluralDays(4) = %q", got)
	}
}

func TestModelRows_BarsScaleToLargest(t *testing.T) {
	models := []stats.ModelStat{
		{Model: "opus-4.1", Usage: stats.TokenUsage{Input: 60000}},
		{Model: "sonnet-4.5", Usage: stats.TokenUsage{Input: 15000}},
	}
	out := modelRows(models, 80)
	lines := strings.Split(out, "\n")
	if len(lines) != 2 {
		t.Fatalf("rows = %d, want 2:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[0], "opus-4.1") || !strings.Contains(lines[1], "sonnet-4.5") {
		t.Fatalf("rows should carry model names:\n%s", out)
	}
	big := strings.Count(lines[0], "█")
	small := strings.Count(lines[1], "█")
	if big <= small {
		t.Fatalf("largest model should draw the longest bar: %d vs %d", big, small)
	}

	if got := modelRows([]stats.ModelStat{{Model: "opus-4.1"}}, 80); got != "" {
		t.Fatalf("all-zero usage should render nothing, got %q", got)
	}
}
