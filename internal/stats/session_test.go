package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"
)

// spanLines builds a minimal transcript covering the given duration with
// the given token input count on its assistant turn.
func spanLines(id, start string, durMS, inputTokens int64) []string {
	startTS, _ := time.Parse(time.RFC3339, start)
	endTS := startTS.Add(time.Duration(durMS) * time.Millisecond)
	return []string{
		fmt.Sprintf(`{"type":"user","sessionId":"%s","timestamp":"%s","message":{"role":"user","content":"go"}}`,
			id, startTS.Format(time.RFC3339)),
		fmt.Sprintf(`{"type":"assistant","sessionId":"%s","timestamp":"%s","message":{"role":"assistant","model":"claude-sonnet-4-5","usage":{"input_tokens":%d,"output_tokens":0}}}`,
			id, endTS.Format(time.RFC3339Nano), inputTokens),
	}
}

func TestBuildSession_RecursiveSubagentTotals(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "s1.jsonl")
	writeTranscript(t, main, spanLines("s1", "2026-03-01T10:00:00Z", 1000, 100)...)

	// Two direct subagents, one of which has a nested subagent of its own.
	writeTranscript(t, filepath.Join(dir, "s1", "subagents", "agent-aaa.jsonl"),
		spanLines("agent-aaa", "2026-03-01T10:00:10Z", 1000, 10)...)
	writeTranscript(t, filepath.Join(dir, "s1", "subagents", "agent-bbb.jsonl"),
		spanLines("agent-bbb", "2026-03-01T10:00:20Z", 1000, 10)...)
	writeTranscript(t, filepath.Join(dir, "s1", "subagents", "agent-aaa", "subagents", "agent-ccc.jsonl"),
		spanLines("agent-ccc", "2026-03-01T10:00:30Z", 500, 10)...)

	s, ok := buildSession(main, "s1", nil, "")
	if !ok {
		t.Fatal("buildSession failed on readable transcript")
	}

	if s.SubagentCount != 3 {
		t.Fatalf("subagent count = %d, want 3", s.SubagentCount)
	}
	if s.DurationMS != 1000 {
		t.Fatalf("own duration = %d, want 1000", s.DurationMS)
	}
	if s.TotalDurationMS != 1000+1000+1000+500 {
		t.Fatalf("total duration = %d, want 3500", s.TotalDurationMS)
	}
	if s.TotalTokens.Input != 130 {
		t.Fatalf("total input tokens = %d, want 130", s.TotalTokens.Input)
	}
	if len(s.Children) != 2 {
		t.Fatalf("direct children = %d, want 2", len(s.Children))
	}

	var nested *Session
	for _, c := range s.Children {
		if c.ID == "agent-aaa" {
			nested = c
		}
	}
	if nested == nil || len(nested.Children) != 1 {
		t.Fatalf("agent-aaa should carry the nested subagent, got %+v", nested)
	}
	if nested.SubagentCount != 1 || nested.TotalDurationMS != 1500 {
		t.Fatalf("nested totals = count %d duration %d, want 1 and 1500", nested.SubagentCount, nested.TotalDurationMS)
	}
}

func TestBuildSession_TotalsNeverBelowOwn(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "solo.jsonl")
	writeTranscript(t, main, spanLines("solo", "2026-03-01T09:00:00Z", 2500, 42)...)

	s, ok := buildSession(main, "solo", nil, "")
	if !ok {
		t.Fatal("buildSession failed")
	}
	if s.TotalDurationMS < s.DurationMS {
		t.Fatalf("total duration %d below own %d", s.TotalDurationMS, s.DurationMS)
	}
	if s.TotalTokens != s.Usage {
		t.Fatalf("leaf totals = %+v, want own usage %+v", s.TotalTokens, s.Usage)
	}
	if s.SubagentCount != 0 {
		t.Fatalf("subagent count = %d, want 0", s.SubagentCount)
	}
}

func TestBuildSession_ClaimsOrphanAgents(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "s1.jsonl")
	writeTranscript(t, main, spanLines("s1", "2026-03-01T10:00:00Z", 1000, 0)...)

	orphan := filepath.Join(dir, "agent-stray.jsonl")
	writeTranscript(t, orphan, spanLines("s1", "2026-03-01T10:00:05Z", 300, 5)...)

	s, ok := buildSession(main, "s1", []string{orphan}, "")
	if !ok {
		t.Fatal("buildSession failed")
	}
	if s.SubagentCount != 1 {
		t.Fatalf("subagent count = %d, want 1 for the claimed orphan", s.SubagentCount)
	}
	if s.TotalDurationMS != 1300 {
		t.Fatalf("total duration = %d, want 1300", s.TotalDurationMS)
	}
}

func TestBuildSession_UnreadableSubagentDropped(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "s1.jsonl")
	writeTranscript(t, main, spanLines("s1", "2026-03-01T10:00:00Z", 1000, 0)...)

	gone := filepath.Join(dir, "agent-gone.jsonl")
	s, ok := buildSession(main, "s1", []string{gone}, "")
	if !ok {
		t.Fatal("buildSession failed")
	}
	if s.SubagentCount != 0 {
		t.Fatalf("subagent count = %d, want 0 when the orphan is unreadable", s.SubagentCount)
	}
}

func TestBuildSession_UnreadableMain(t *testing.T) {
	if _, ok := buildSession(filepath.Join(t.TempDir(), "absent.jsonl"), "absent", nil, ""); ok {
		t.Fatal("unreadable main transcript must report not ok")
	}
}

func TestBuildSession_TimestampFallsBackToModTime(t *testing.T) {
	dir := t.TempDir()
	main := filepath.Join(dir, "old.jsonl")
	writeTranscript(t, main, `{"type":"user","sessionId":"old","message":{"role":"user","content":"hi"}}`)

	mtime := time.Date(2025, time.December, 24, 8, 0, 0, 0, time.UTC)
	if err := os.Chtimes(main, mtime, mtime); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	s, ok := buildSession(main, "old", nil, "")
	if !ok {
		t.Fatal("buildSession failed")
	}
	if !s.Timestamp.Equal(mtime) {
		t.Fatalf("timestamp = %v, want file mtime %v", s.Timestamp, mtime)
	}
}

func TestResolveTitle_ChainOrder(t *testing.T) {
	tests := []struct {
		name       string
		facts      transcriptFacts
		indexTitle string
		want       string
	}{
		{
			name:       "summary wins over everything",
			facts:      transcriptFacts{summary: "Refactor parser", firstUserText: "<command-name>/review</command-name>", teamName: "core"},
			indexTitle: "from index",
			want:       "Refactor parser",
		},
		{
			name:       "index title when no summary",
			facts:      transcriptFacts{firstUserText: "<command-name>/review</command-name>"},
			indexTitle: "from index",
			want:       "from index",
		},
		{
			name:  "slash command from the opening prompt",
			facts: transcriptFacts{firstUserText: "<command-name>/review</command-name> src"},
			want:  "/review",
		},
		{
			name:  "team name",
			facts: transcriptFacts{teamName: "core"},
			want:  "Team: core",
		},
		{
			name:  "anonymous team session",
			facts: transcriptFacts{teamSession: true},
			want:  "Team session",
		},
		{
			name:  "nothing at all",
			facts: transcriptFacts{},
			want:  "No title",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := resolveTitle(tt.facts, tt.indexTitle); got != tt.want {
				t.Fatalf("resolveTitle = %q, want %q", got, tt.want)
			}
		})
	}
}
