package stats

import (
	"encoding/json"
	"os"
)

// indexFileName is the per-project session index the CLI maintains. The
// index is a hint, not the truth: it may lag behind the directory
// contents or still list files that are gone.
const indexFileName = "sessions-index.json"

// sessionsIndex mirrors the on-disk index shape.
type sessionsIndex struct {
	Version int          `json:"version"`
	Entries []indexEntry `json:"entries"`
}

type indexEntry struct {
	SessionID    string `json:"sessionId"`
	FullPath     string `json:"fullPath"`
	FirstPrompt  string `json:"firstPrompt"`
	Summary      string `json:"summary"`
	MessageCount int    `json:"messageCount"`
	Created      string `json:"created"`
	Modified     string `json:"modified"`
	GitBranch    string `json:"gitBranch"`
	ProjectPath  string `json:"projectPath"`
	IsSidechain  bool   `json:"isSidechain"`
}

// title is the index-supplied override for the session title chain.
func (e indexEntry) title() string {
	if e.Summary != "" {
		return e.Summary
	}
	return e.FirstPrompt
}

// readIndex loads a project's session index. A missing file, malformed
// JSON, or a nonsense version makes the whole index absent and the
// caller falls back to a plain directory scan. Entries without a session
// id are dropped here so downstream code never sees them.
func readIndex(path string) (sessionsIndex, bool) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return sessionsIndex{}, false
	}
	var idx sessionsIndex
	if err := json.Unmarshal(raw, &idx); err != nil {
		return sessionsIndex{}, false
	}
	if idx.Version < 1 {
		return sessionsIndex{}, false
	}
	var valid []indexEntry
	for _, e := range idx.Entries {
		if e.SessionID != "" {
			valid = append(valid, e)
		}
	}
	idx.Entries = valid
	return idx, true
}
