package stats

import (
	"path/filepath"

	"github.com/samber/lo"
)

// redactedText replaces identifying strings on redacted projects.
const redactedText = "[redacted]"

// Redact returns a report with identifying text masked on every project
// matching one of the specifiers. A specifier names a project by full
// path, by path basename, or literally. Matching projects get fresh
// copies; their name, path, session titles, and working directories
// become the sentinel while every count, duration, and token total
// stays numerically intact. The input report is never modified, and
// with no specifiers it is returned as is.
func Redact(report *Report, specifiers []string) *Report {
	if report == nil || len(specifiers) == 0 {
		return report
	}
	out := *report
	out.Projects = lo.Map(report.Projects, func(p *Project, _ int) *Project {
		if !matchesAny(p, specifiers) {
			return p
		}
		return redactProject(p)
	})
	return &out
}

func matchesAny(p *Project, specifiers []string) bool {
	return lo.SomeBy(specifiers, func(spec string) bool {
		return matchesSpecifier(p, spec)
	})
}

// matchesSpecifier checks the three ways a specifier can name a
// project: exact path, shared basename, or literal name.
func matchesSpecifier(p *Project, spec string) bool {
	if spec == "" {
		return false
	}
	if p.Path == spec || p.Name == spec {
		return true
	}
	if p.Path != "" && filepath.Clean(p.Path) == filepath.Clean(spec) {
		return true
	}
	return p.Path != "" && filepath.Base(p.Path) == filepath.Base(spec)
}

func redactProject(p *Project) *Project {
	masked := *p
	masked.Name = redactedText
	masked.Path = redactedText
	masked.Sessions = lo.Map(p.Sessions, func(s *Session, _ int) *Session {
		return redactSession(s)
	})
	return &masked
}

// redactSession copies the session subtree, masking titles and working
// directories at every depth.
func redactSession(s *Session) *Session {
	root := *s
	stack := []*Session{&root}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		cur.Title = redactedText
		if cur.CWD != "" {
			cur.CWD = redactedText
		}
		if len(cur.Children) == 0 {
			continue
		}
		children := make([]*Session, len(cur.Children))
		for i, c := range cur.Children {
			dup := *c
			children[i] = &dup
			stack = append(stack, &dup)
		}
		cur.Children = children
	}
	return &root
}
