// Package stats builds per-project usage statistics from the transcript
// logs the Claude Code CLI leaves under ~/.claude. Everything is recomputed
// from the filesystem on each call; nothing is persisted between runs.
package stats

import (
	"sort"
	"time"
)

// TokenUsage holds the four token counters reported in assistant usage
// blocks. Addition is pointwise and commutative, the zero value is the
// identity, so partial sums can be folded in any order.
type TokenUsage struct {
	Input         int64 `json:"input"`
	Output        int64 `json:"output"`
	CacheRead     int64 `json:"cacheRead"`
	CacheCreation int64 `json:"cacheCreation"`
}

// Add returns the pointwise sum of u and other.
func (u TokenUsage) Add(other TokenUsage) TokenUsage {
	return TokenUsage{
		Input:         u.Input + other.Input,
		Output:        u.Output + other.Output,
		CacheRead:     u.CacheRead + other.CacheRead,
		CacheCreation: u.CacheCreation + other.CacheCreation,
	}
}

// IsZero reports whether all four counters are zero.
func (u TokenUsage) IsZero() bool {
	return u.Input == 0 && u.Output == 0 && u.CacheRead == 0 && u.CacheCreation == 0
}

// Total returns the sum of all four counters.
func (u TokenUsage) Total() int64 {
	return u.Input + u.Output + u.CacheRead + u.CacheCreation
}

// Session is one aggregated conversation: a main session or a subagent.
// DurationMS covers only the session's own transcript (latest minus
// earliest valid timestamp); the Total* fields and SubagentCount fold in
// the whole subagent subtree.
type Session struct {
	ID         string         `json:"sessionId"`
	Title      string         `json:"title"`
	Timestamp  time.Time      `json:"timestamp"`
	DurationMS int64          `json:"durationMs"`
	GitBranch  string         `json:"gitBranch,omitempty"`
	Model      string         `json:"model,omitempty"`
	CWD        string         `json:"cwd,omitempty"`
	Usage      TokenUsage     `json:"tokens"`
	Tools      map[string]int `json:"tools,omitempty"`
	Children   []*Session     `json:"subagents,omitempty"`

	TotalDurationMS int64      `json:"totalDurationMs"`
	TotalTokens     TokenUsage `json:"totalTokens"`
	SubagentCount   int        `json:"subagentCount"`

	// version is the newest CLI version seen anywhere in this subtree.
	version string
}

// Project groups the sessions that ran in one working directory.
type Project struct {
	Name     string     `json:"projectName"`
	Path     string     `json:"projectPath"`
	Sessions []*Session `json:"sessions"`

	// TotalSessions counts main sessions plus all subagents.
	TotalSessions   int        `json:"totalSessions"`
	TotalDurationMS int64      `json:"totalDurationMs"`
	TotalTokens     TokenUsage `json:"totalTokens"`
}

// Totals are the cross-project sums for one report.
type Totals struct {
	Projects   int        `json:"projects"`
	Sessions   int        `json:"sessions"`
	DurationMS int64      `json:"durationMs"`
	Tokens     TokenUsage `json:"tokens"`
}

// DayActivity is one calendar day's share of the scanned sessions.
type DayActivity struct {
	Sessions   int   `json:"sessions"`
	DurationMS int64 `json:"durationMs"`
}

// Report is the full result of one scan.
type Report struct {
	Projects []*Project `json:"projects"`
	Totals   Totals     `json:"totals"`
	// ActivityByDate is keyed by "2006-01-02" dates of main sessions.
	ActivityByDate map[string]DayActivity `json:"activityByDate,omitempty"`
	// ClientVersion is the newest CLI version seen in any transcript.
	ClientVersion string `json:"clientVersion,omitempty"`
	// Cache carries the stats-cache derivations; nil when the cache
	// file is missing or malformed.
	Cache *CacheStats `json:"cache,omitempty"`
}

// sortProjects orders projects by total duration, longest first. Ties
// fall back to name then path so repeated scans produce identical output.
func sortProjects(projects []*Project) {
	sort.Slice(projects, func(i, j int) bool {
		a, b := projects[i], projects[j]
		if a.TotalDurationMS != b.TotalDurationMS {
			return a.TotalDurationMS > b.TotalDurationMS
		}
		if a.Name != b.Name {
			return a.Name < b.Name
		}
		return a.Path < b.Path
	})
}

// sortSessions orders sessions newest first, with the id as tiebreak.
func sortSessions(sessions []*Session) {
	sort.Slice(sessions, func(i, j int) bool {
		a, b := sessions[i], sessions[j]
		if !a.Timestamp.Equal(b.Timestamp) {
			return a.Timestamp.After(b.Timestamp)
		}
		return a.ID < b.ID
	})
}
