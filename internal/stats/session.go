package stats

import (
	"os"
	"path/filepath"
	"strings"
)

// noTitle is the sentinel title for sessions where every derivation
// comes up empty.
const noTitle = "No title"

// titleStrategy derives a session title from one source; an empty result
// means no match and the next strategy runs.
type titleStrategy func(facts transcriptFacts, indexTitle string) string

// titleChain is walked in order, first non-empty result wins; noTitle is
// the fallback behind all of them. Keeping the priority as a flat list
// makes it auditable and testable per step.
var titleChain = []titleStrategy{
	func(f transcriptFacts, _ string) string { return f.summary },
	func(_ transcriptFacts, indexTitle string) string { return indexTitle },
	func(f transcriptFacts, _ string) string { return commandTitle(f.firstUserText) },
	teamTitle,
}

func teamTitle(f transcriptFacts, _ string) string {
	if f.teamName != "" {
		return "Team: " + f.teamName
	}
	if f.teamSession {
		return "Team session"
	}
	return ""
}

func resolveTitle(facts transcriptFacts, indexTitle string) string {
	for _, strategy := range titleChain {
		if title := strategy(facts, indexTitle); title != "" {
			return title
		}
	}
	return noTitle
}

// buildSession parses one main-session transcript, discovers its
// subagents, and folds the subtree into recursive totals.
//
// Subagents come from two independent sources, both always checked: the
// conventional "<id>/subagents" directory next to the transcript, and
// orphaned top-level "agent-*" files whose records claim this session as
// parent (the CLI sometimes fails to nest those). Every discovered
// subagent file gets its own nested directory checked in turn, so the
// tree is followed to arbitrary depth. An unreadable subagent file just
// drops that contribution.
//
// The bool result is false when the main transcript itself is
// unreadable; the caller skips the session.
func buildSession(path, id string, orphans []string, indexTitle string) (*Session, bool) {
	facts, ok := parseTranscript(path)
	if !ok {
		return nil, false
	}
	root := sessionFromFacts(id, path, facts)
	root.Title = resolveTitle(facts, indexTitle)

	// Explicit queue instead of recursion: nesting depth is bounded
	// only by the filesystem.
	type frame struct {
		path   string
		parent *Session
	}
	var queue []frame
	for _, p := range listTranscripts(subagentsDir(path, id)) {
		queue = append(queue, frame{path: p, parent: root})
	}
	for _, p := range orphans {
		queue = append(queue, frame{path: p, parent: root})
	}

	for qi := 0; qi < len(queue); qi++ {
		fr := queue[qi]
		subFacts, subOK := parseTranscript(fr.path)
		if !subOK {
			continue
		}
		stem := transcriptStem(fr.path)
		child := sessionFromFacts(stem, fr.path, subFacts)
		child.Title = resolveTitle(subFacts, "")
		fr.parent.Children = append(fr.parent.Children, child)

		for _, p := range listTranscripts(subagentsDir(fr.path, stem)) {
			queue = append(queue, frame{path: p, parent: child})
		}
	}

	finalizeTotals(root)
	return root, true
}

func sessionFromFacts(id, path string, facts transcriptFacts) *Session {
	ts := facts.timestamp
	if ts.IsZero() {
		// No parseable timestamp anywhere in the file.
		if info, err := os.Stat(path); err == nil {
			ts = info.ModTime()
		}
	}
	return &Session{
		ID:         id,
		Timestamp:  ts,
		DurationMS: facts.duration,
		GitBranch:  facts.gitBranch,
		Model:      facts.model,
		CWD:        facts.cwd,
		Usage:      facts.usage,
		Tools:      facts.tools,
		version:    facts.version,
	}
}

// finalizeTotals computes the recursive totals bottom-up: children are
// visited before parents by walking the breadth-first order backwards.
// Each subagent file counts exactly once toward SubagentCount.
func finalizeTotals(root *Session) {
	order := []*Session{root}
	for i := 0; i < len(order); i++ {
		order = append(order, order[i].Children...)
	}
	for i := len(order) - 1; i >= 0; i-- {
		s := order[i]
		s.TotalDurationMS = s.DurationMS
		s.TotalTokens = s.Usage
		s.SubagentCount = 0
		for _, c := range s.Children {
			s.TotalDurationMS += c.TotalDurationMS
			s.TotalTokens = s.TotalTokens.Add(c.TotalTokens)
			s.SubagentCount += 1 + c.SubagentCount
			s.version = newerVersion(s.version, c.version)
		}
	}
}

// subagentsDir is the conventional nested directory for a transcript:
// the file's stem as a sibling directory holding "subagents".
func subagentsDir(path, stem string) string {
	return filepath.Join(filepath.Dir(path), stem, "subagents")
}

// listTranscripts returns the .jsonl files directly inside dir, sorted
// by name. A missing directory is simply empty.
func listTranscripts(dir string) []string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}
	var files []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".jsonl") {
			continue
		}
		files = append(files, filepath.Join(dir, e.Name()))
	}
	return files
}

// transcriptStem is the file name without its .jsonl extension.
func transcriptStem(path string) string {
	return strings.TrimSuffix(filepath.Base(path), ".jsonl")
}
