// Package export writes a usage report snapshot into a SQLite file. The
// snapshot is an output artifact for other tooling; nothing here is ever
// read back.
package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/samber/lo"

	"github.com/cctally/cctally/internal/stats"
)

type projectRow struct {
	name            string
	path            string
	totalSessions   int
	totalDurationMS int64
	tokens          stats.TokenUsage
}

type sessionRow struct {
	id              string
	projectPath     string
	parentID        string
	title           string
	startedAt       string
	durationMS      int64
	totalDurationMS int64
	gitBranch       string
	model           string
	subagentCount   int
	toolCalls       int
	tokens          stats.TokenUsage
}

type dayRow struct {
	date       string
	sessions   int
	durationMS int64
}

type snapshotRows struct {
	projects []projectRow
	sessions []sessionRow
	days     []dayRow
	meta     map[string]string
}

// Snapshot writes the whole report to a SQLite database at path. Existing
// snapshot tables are replaced; all rows land in one transaction.
func Snapshot(ctx context.Context, path string, report *stats.Report) error {
	if report == nil {
		return fmt.Errorf("export: nil report")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("export: creating snapshot dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return fmt.Errorf("export: opening snapshot: %w", err)
	}
	defer db.Close()

	if err := initSchema(ctx, db); err != nil {
		return err
	}
	return writeRows(ctx, db, reportRows(report, time.Now()))
}

func initSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`PRAGMA foreign_keys = ON;`,
		`DROP TABLE IF EXISTS sessions;`,
		`DROP TABLE IF EXISTS projects;`,
		`DROP TABLE IF EXISTS daily_activity;`,
		`DROP TABLE IF EXISTS snapshot_meta;`,
		`CREATE TABLE projects (
			project_name TEXT NOT NULL,
			project_path TEXT NOT NULL,
			total_sessions INTEGER NOT NULL,
			total_duration_ms INTEGER NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cache_read_tokens INTEGER NOT NULL,
			cache_creation_tokens INTEGER NOT NULL
		);`,
		`CREATE INDEX idx_projects_path ON projects(project_path);`,
		`CREATE TABLE sessions (
			session_id TEXT PRIMARY KEY,
			project_path TEXT NOT NULL,
			parent_session_id TEXT,
			title TEXT NOT NULL,
			started_at TEXT NOT NULL,
			duration_ms INTEGER NOT NULL,
			total_duration_ms INTEGER NOT NULL,
			git_branch TEXT,
			model TEXT,
			subagent_count INTEGER NOT NULL,
			tool_calls INTEGER NOT NULL,
			input_tokens INTEGER NOT NULL,
			output_tokens INTEGER NOT NULL,
			cache_read_tokens INTEGER NOT NULL,
			cache_creation_tokens INTEGER NOT NULL
		);`,
		`CREATE INDEX idx_sessions_project ON sessions(project_path);`,
		`CREATE INDEX idx_sessions_parent ON sessions(parent_session_id);`,
		`CREATE TABLE daily_activity (
			date TEXT PRIMARY KEY,
			sessions INTEGER NOT NULL,
			duration_ms INTEGER NOT NULL
		);`,
		`CREATE TABLE snapshot_meta (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("export: init schema: %w", err)
		}
	}
	return nil
}

// reportRows flattens the report into insertable rows. Subagent sessions
// become their own rows pointing at their parent.
func reportRows(report *stats.Report, now time.Time) snapshotRows {
	var rows snapshotRows
	for _, p := range report.Projects {
		rows.projects = append(rows.projects, projectRow{
			name:            p.Name,
			path:            p.Path,
			totalSessions:   p.TotalSessions,
			totalDurationMS: p.TotalDurationMS,
			tokens:          p.TotalTokens,
		})
		for _, s := range p.Sessions {
			appendSessionRows(&rows, p.Path, "", s)
		}
	}

	dates := lo.Keys(report.ActivityByDate)
	sort.Strings(dates)
	for _, date := range dates {
		a := report.ActivityByDate[date]
		rows.days = append(rows.days, dayRow{date: date, sessions: a.Sessions, durationMS: a.DurationMS})
	}

	rows.meta = map[string]string{
		"exported_at":    now.UTC().Format(time.RFC3339),
		"total_projects": strconv.Itoa(report.Totals.Projects),
		"total_sessions": strconv.Itoa(report.Totals.Sessions),
	}
	if report.ClientVersion != "" {
		rows.meta["client_version"] = report.ClientVersion
	}
	return rows
}

func appendSessionRows(rows *snapshotRows, projectPath, parentID string, s *stats.Session) {
	rows.sessions = append(rows.sessions, sessionRow{
		id:              s.ID,
		projectPath:     projectPath,
		parentID:        parentID,
		title:           s.Title,
		startedAt:       s.Timestamp.UTC().Format(time.RFC3339Nano),
		durationMS:      s.DurationMS,
		totalDurationMS: s.TotalDurationMS,
		gitBranch:       s.GitBranch,
		model:           s.Model,
		subagentCount:   s.SubagentCount,
		toolCalls:       lo.Sum(lo.Values(s.Tools)),
		tokens:          s.Usage,
	})
	for _, c := range s.Children {
		appendSessionRows(rows, projectPath, s.ID, c)
	}
}

func writeRows(ctx context.Context, db *sql.DB, rows snapshotRows) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("export: begin tx: %w", err)
	}
	defer tx.Rollback()

	for _, p := range rows.projects {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO projects (
				project_name, project_path, total_sessions, total_duration_ms,
				input_tokens, output_tokens, cache_read_tokens, cache_creation_tokens
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			p.name,
			p.path,
			p.totalSessions,
			p.totalDurationMS,
			p.tokens.Input,
			p.tokens.Output,
			p.tokens.CacheRead,
			p.tokens.CacheCreation,
		); err != nil {
			return fmt.Errorf("export: insert project: %w", err)
		}
	}

	for _, s := range rows.sessions {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO sessions (
				session_id, project_path, parent_session_id, title, started_at,
				duration_ms, total_duration_ms, git_branch, model, subagent_count,
				tool_calls, input_tokens, output_tokens, cache_read_tokens, cache_creation_tokens
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		`,
			s.id,
			s.projectPath,
			nullable(s.parentID),
			s.title,
			s.startedAt,
			s.durationMS,
			s.totalDurationMS,
			nullable(s.gitBranch),
			nullable(s.model),
			s.subagentCount,
			s.toolCalls,
			s.tokens.Input,
			s.tokens.Output,
			s.tokens.CacheRead,
			s.tokens.CacheCreation,
		); err != nil {
			return fmt.Errorf("export: insert session: %w", err)
		}
	}

	for _, d := range rows.days {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO daily_activity (date, sessions, duration_ms) VALUES (?, ?, ?)
		`, d.date, d.sessions, d.durationMS); err != nil {
			return fmt.Errorf("export: insert daily activity: %w", err)
		}
	}

	keys := lo.Keys(rows.meta)
	sort.Strings(keys)
	for _, key := range keys {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO snapshot_meta (key, value) VALUES (?, ?)
		`, key, rows.meta[key]); err != nil {
			return fmt.Errorf("export: insert meta: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("export: commit tx: %w", err)
	}
	return nil
}

func nullable(v string) interface{} {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	return v
}
