package stats

import (
	"encoding/json"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
)

// CacheStats are the derivations read from the CLI's own stats cache,
// plus the raw daily and hourly rows for rendering. The engine only
// ever reads that file.
type CacheStats struct {
	DailyActivity  []CacheDay  `json:"dailyActivity,omitempty"`
	Hours          []HourCount `json:"hours,omitempty"`
	ModelBreakdown []ModelStat `json:"modelBreakdown,omitempty"`
	PeakHours      []HourCount `json:"peakHours,omitempty"`
	Streak         int         `json:"streak"`
}

// CacheDay is one day of the CLI's precomputed activity counts.
type CacheDay struct {
	Date          string `json:"date"`
	MessageCount  int    `json:"messageCount"`
	SessionCount  int    `json:"sessionCount"`
	ToolCallCount int    `json:"toolCallCount"`
}

// ModelStat is one canonical model's token totals.
type ModelStat struct {
	Model string     `json:"model"`
	Usage TokenUsage `json:"tokens"`
}

// HourCount is one hour-of-day bucket of the activity histogram.
type HourCount struct {
	Hour  int `json:"hour"`
	Count int `json:"count"`
}

// statsCache mirrors the slice of stats-cache.json this reader
// consumes; everything else in the file is ignored.
type statsCache struct {
	Version       int                        `json:"version"`
	DailyActivity []CacheDay                 `json:"dailyActivity"`
	ModelUsage    map[string]cacheModelUsage `json:"modelUsage"`
	HourCounts    map[string]int             `json:"hourCounts"`
}

type cacheModelUsage struct {
	InputTokens              int64 `json:"inputTokens"`
	OutputTokens             int64 `json:"outputTokens"`
	CacheReadInputTokens     int64 `json:"cacheReadInputTokens"`
	CacheCreationInputTokens int64 `json:"cacheCreationInputTokens"`
}

// readStatsCache loads the global cache and computes its derivations. A
// missing or malformed cache means nil: the report simply goes without
// daily activity, model breakdown, peak hours, and streak.
func readStatsCache(path string, now time.Time) *CacheStats {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	var cache statsCache
	if err := json.Unmarshal(raw, &cache); err != nil {
		return nil
	}
	hours := hourBuckets(cache.HourCounts)
	return &CacheStats{
		DailyActivity:  cache.DailyActivity,
		Hours:          hours,
		ModelBreakdown: modelBreakdown(cache.ModelUsage),
		PeakHours:      peakHours(hours),
		Streak:         currentStreak(cache.DailyActivity, now),
	}
}

// hourBuckets parses the histogram's string keys into hour-of-day
// buckets, ascending. Keys outside 0..23 and empty buckets are dropped.
func hourBuckets(hourCounts map[string]int) []HourCount {
	var hours []HourCount
	for key, count := range hourCounts {
		hour, err := strconv.Atoi(key)
		if err != nil || hour < 0 || hour > 23 || count <= 0 {
			continue
		}
		hours = append(hours, HourCount{Hour: hour, Count: count})
	}
	sort.Slice(hours, func(i, j int) bool { return hours[i].Hour < hours[j].Hour })
	return hours
}

// peakHours returns the three busiest hours of day, counts descending,
// earlier hour first on ties.
func peakHours(buckets []HourCount) []HourCount {
	hours := append([]HourCount(nil), buckets...)
	sort.Slice(hours, func(i, j int) bool {
		if hours[i].Count != hours[j].Count {
			return hours[i].Count > hours[j].Count
		}
		return hours[i].Hour < hours[j].Hour
	})
	if len(hours) > 3 {
		hours = hours[:3]
	}
	return hours
}

// modelBreakdown folds the per-model totals under canonical names;
// distinct raw ids of the same release merge into one row.
func modelBreakdown(usage map[string]cacheModelUsage) []ModelStat {
	merged := make(map[string]TokenUsage, len(usage))
	for raw, u := range usage {
		if raw == "" || raw == syntheticModel {
			continue
		}
		name := canonicalModel(raw)
		merged[name] = merged[name].Add(TokenUsage{
			Input:         u.InputTokens,
			Output:        u.OutputTokens,
			CacheRead:     u.CacheReadInputTokens,
			CacheCreation: u.CacheCreationInputTokens,
		})
	}
	stats := lo.MapToSlice(merged, func(name string, u TokenUsage) ModelStat {
		return ModelStat{Model: name, Usage: u}
	})
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Usage.Total() != stats[j].Usage.Total() {
			return stats[i].Usage.Total() > stats[j].Usage.Total()
		}
		return stats[i].Model < stats[j].Model
	})
	return stats
}

// currentStreak counts the run of active days ending today or
// yesterday. Each step backwards tolerates one missed calendar day, so
// activity every other day sustains a streak indefinitely; a two-day gap
// breaks it. The boundary tests pin this behavior on purpose.
func currentStreak(days []CacheDay, now time.Time) int {
	seen := make(map[string]bool, len(days))
	var dates []time.Time
	for _, day := range days {
		if day.MessageCount <= 0 && day.SessionCount <= 0 && day.ToolCallCount <= 0 {
			continue
		}
		if seen[day.Date] {
			continue
		}
		ts, err := time.Parse("2006-01-02", day.Date)
		if err != nil {
			continue
		}
		seen[day.Date] = true
		dates = append(dates, ts)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].After(dates[j]) })

	today, _ := time.Parse("2006-01-02", now.Format("2006-01-02"))
	streak := 0
	expected := today
	for _, d := range dates {
		switch {
		case d.After(expected):
			// Future-dated rows cannot extend the run.
			continue
		case d.Equal(expected) || d.Equal(expected.AddDate(0, 0, -1)):
			streak++
			expected = d.AddDate(0, 0, -1)
		default:
			return streak
		}
	}
	return streak
}

var versionTokenRe = regexp.MustCompile(`^\d+(?:\.\d+)?$`)

var modelFamilies = []string{"opus", "sonnet", "haiku"}

// canonicalModel reduces a raw model identifier to "family-major.minor",
// e.g. "claude-opus-4-1-20250805" to "opus-4.1". Identifiers carrying no
// version keep the bare family; identifiers with no recognizable family
// fall back to substring detection and finally pass through unchanged.
func canonicalModel(raw string) string {
	tokens := splitModelTokens(raw)
	for i, tok := range tokens {
		for _, fam := range modelFamilies {
			if tok != fam {
				continue
			}
			if v := versionNear(tokens, i); v != "" {
				return fam + "-" + v
			}
			return fam
		}
	}
	lower := strings.ToLower(raw)
	for _, fam := range modelFamilies {
		if strings.Contains(lower, fam) {
			return fam
		}
	}
	return raw
}

// splitModelTokens lowercases an identifier and splits it on anything
// that is not a letter, digit, or dot.
func splitModelTokens(raw string) []string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '.':
			b.WriteRune(r)
		case r >= 'A' && r <= 'Z':
			b.WriteRune(r + ('a' - 'A'))
		default:
			b.WriteByte('-')
		}
	}
	return lo.Compact(strings.Split(b.String(), "-"))
}

// versionNear finds the version adjacent to the family token. The right
// side wins, matching how current ids are written ("sonnet-4-5"); older
// ids put the version first ("3-5-sonnet"), so the left side is tried
// next. A split major/minor pair joins into "major.minor"; long digit
// runs are build dates, never versions.
func versionNear(tokens []string, famIdx int) string {
	for i := famIdx + 1; i < len(tokens); i++ {
		tok := tokens[i]
		if !isVersionToken(tok) {
			continue
		}
		if !strings.Contains(tok, ".") && i+1 < len(tokens) && isMinorToken(tokens[i+1]) {
			return tok + "." + tokens[i+1]
		}
		return tok
	}
	var run []string
	for i := famIdx - 1; i >= 0 && isVersionToken(tokens[i]); i-- {
		run = append([]string{tokens[i]}, run...)
	}
	for _, tok := range run {
		if strings.Contains(tok, ".") {
			return tok
		}
	}
	if len(run) >= 2 {
		return run[len(run)-2] + "." + run[len(run)-1]
	}
	if len(run) == 1 {
		return run[0]
	}
	return ""
}

func isVersionToken(tok string) bool {
	if !versionTokenRe.MatchString(tok) {
		return false
	}
	return strings.Contains(tok, ".") || len(tok) <= 2
}

func isMinorToken(tok string) bool {
	if len(tok) == 0 || len(tok) > 2 {
		return false
	}
	for _, r := range tok {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
