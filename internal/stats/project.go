package stats

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/samber/lo"
)

// Engine scans a Claude directory tree and assembles the report. It
// holds no state between runs and takes no locks of its own; callers
// that need cross-invocation exclusion hold an advisory lock around
// Collect.
type Engine struct {
	root string
	now  func() time.Time
}

// NewEngine returns an engine rooted at dir, usually ~/.claude.
func NewEngine(dir string) *Engine {
	return &Engine{root: dir, now: time.Now}
}

// DefaultRoot resolves the standard ~/.claude location.
func DefaultRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home dir: %w", err)
	}
	return filepath.Join(home, ".claude"), nil
}

// Collect walks every project directory under <root>/projects and reads
// the global stats cache. Failures below the projects root degrade at
// file granularity; only an unreadable projects root is an error.
func (e *Engine) Collect() (*Report, error) {
	projectsDir := filepath.Join(e.root, "projects")
	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		return nil, fmt.Errorf("read projects dir: %w", err)
	}

	report := &Report{ActivityByDate: make(map[string]DayActivity)}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		project := assembleProject(filepath.Join(projectsDir, entry.Name()))
		if project == nil {
			continue
		}
		report.Projects = append(report.Projects, project)
	}
	sortProjects(report.Projects)

	for _, p := range report.Projects {
		report.Totals.Projects++
		report.Totals.Sessions += p.TotalSessions
		report.Totals.DurationMS += p.TotalDurationMS
		report.Totals.Tokens = report.Totals.Tokens.Add(p.TotalTokens)
		for _, s := range p.Sessions {
			day := s.Timestamp.Format("2006-01-02")
			act := report.ActivityByDate[day]
			act.Sessions++
			act.DurationMS += s.TotalDurationMS
			report.ActivityByDate[day] = act
			report.ClientVersion = newerVersion(report.ClientVersion, s.version)
		}
	}

	report.Cache = readStatsCache(filepath.Join(e.root, "stats-cache.json"), e.now())
	return report, nil
}

// assembleProject builds one project from its directory. It returns nil
// when no usable session survives: parse failures and exclusions leave
// nothing worth emitting.
func assembleProject(dir string) *Project {
	files, err := os.ReadDir(dir)
	if err != nil {
		return nil
	}

	// Classify top-level transcripts. Orphaned agent files attach to the
	// session their records name; the rest are main-session candidates
	// keyed by file stem.
	orphansByParent := make(map[string][]string)
	mains := make(map[string]string)
	for _, f := range files {
		name := f.Name()
		if f.IsDir() || !strings.HasSuffix(name, ".jsonl") {
			continue
		}
		path := filepath.Join(dir, name)
		if strings.HasPrefix(name, "agent-") {
			if parent := firstSessionID(path); parent != "" {
				orphansByParent[parent] = append(orphansByParent[parent], path)
			}
			continue
		}
		mains[transcriptStem(name)] = path
	}

	idx, indexed := readIndex(filepath.Join(dir, indexFileName))

	var sessions []*Session
	if indexed {
		// The index ids the entries claim, sidechains included; a
		// top-level file with a listed id is never re-added by the scan.
		seen := make(map[string]bool, len(idx.Entries))
		for _, entry := range idx.Entries {
			seen[entry.SessionID] = true
			if entry.IsSidechain {
				continue
			}
			path := entry.FullPath
			if _, err := os.Stat(path); err != nil {
				// Stale hint; rehydrate from the live directory.
				path = filepath.Join(dir, entry.SessionID+".jsonl")
				if _, err := os.Stat(path); err != nil {
					continue
				}
			}
			if s, ok := buildSession(path, entry.SessionID, orphansByParent[entry.SessionID], entry.title()); ok {
				sessions = append(sessions, s)
			}
		}
		// Hint-and-verify: transcripts the index does not know about are
		// still real sessions. The id-set difference is recomputed from
		// current directory contents on every run, so nothing is
		// duplicated or lost when the index lags.
		for _, id := range sortedKeys(mains) {
			if seen[id] {
				continue
			}
			if s, ok := buildSession(mains[id], id, orphansByParent[id], ""); ok {
				sessions = append(sessions, s)
			}
		}
	} else {
		for _, id := range sortedKeys(mains) {
			if s, ok := buildSession(mains[id], id, orphansByParent[id], ""); ok {
				sessions = append(sessions, s)
			}
		}
	}

	// Sessions that ran inside a worktree checkout or the tool's own
	// directories are noise; drop them before anything downstream sees
	// them. The whole project goes only when this empties it.
	sessions = lo.Filter(sessions, func(s *Session, _ int) bool {
		return s.CWD == "" || !isExcludedPath(s.CWD)
	})
	if len(sessions) == 0 {
		return nil
	}
	sortSessions(sessions)

	project := &Project{
		Path:     resolveProjectPath(sessions, idx, filepath.Base(dir)),
		Sessions: sessions,
	}
	project.Name = filepath.Base(project.Path)
	for _, s := range sessions {
		project.TotalSessions += 1 + s.SubagentCount
		project.TotalDurationMS += s.TotalDurationMS
		project.TotalTokens = project.TotalTokens.Add(s.TotalTokens)
	}
	return project
}

// resolveProjectPath picks the project identity: the working directory
// of the newest session that has one, then the path the index recorded,
// then the raw directory name as a last resort. Callers pass sessions
// already sorted newest first.
func resolveProjectPath(sessions []*Session, idx sessionsIndex, dirName string) string {
	for _, s := range sessions {
		if s.CWD != "" {
			return s.CWD
		}
	}
	for _, entry := range idx.Entries {
		if entry.ProjectPath != "" {
			return entry.ProjectPath
		}
	}
	return dirName
}

// isExcludedPath reports whether a working directory belongs to a git
// worktree checkout or to the tool's own directory tree rather than a
// real project.
func isExcludedPath(path string) bool {
	segments := strings.Split(filepath.ToSlash(path), "/")
	for i, seg := range segments {
		switch {
		case seg == ".claude":
			return true
		case seg == ".worktrees":
			return true
		case seg == "worktrees" && i > 0 && segments[i-1] == ".git":
			return true
		}
	}
	return false
}

func sortedKeys(m map[string]string) []string {
	keys := lo.Keys(m)
	sort.Strings(keys)
	return keys
}
