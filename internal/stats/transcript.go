package stats

import (
	"bufio"
	"encoding/json"
	"os"
	"regexp"
	"strings"
	"time"

	"golang.org/x/mod/semver"
)

const (
	// syntheticModel marks CLI-generated filler turns; they never name
	// the model that served the session.
	syntheticModel = "<synthetic>"
	// earlyUserTurns bounds how far into a transcript team-session
	// markers and the opening prompt are looked for.
	earlyUserTurns = 8
)

var (
	teammateTagRe = regexp.MustCompile(`<teammate-message[^>]*>`)
	commandNameRe = regexp.MustCompile(`<command-name>([^<]+)</command-name>`)
)

// Transcript records are JSON objects, one per line. The shapes below
// decode only what aggregation needs; everything else in a record is
// ignored.
type transcriptLine struct {
	Type      string             `json:"type"`
	Summary   string             `json:"summary"`
	SessionID string             `json:"sessionId"`
	Timestamp string             `json:"timestamp"`
	GitBranch string             `json:"gitBranch,omitempty"`
	CWD       string             `json:"cwd,omitempty"`
	Version   string             `json:"version,omitempty"`
	TeamName  string             `json:"teamName,omitempty"`
	Message   *transcriptMessage `json:"message,omitempty"`
}

type transcriptMessage struct {
	Role    string           `json:"role"`
	Model   string           `json:"model"`
	Content json.RawMessage  `json:"content"`
	Usage   *transcriptUsage `json:"usage,omitempty"`
}

type transcriptUsage struct {
	InputTokens              int64 `json:"input_tokens"`
	CacheCreationInputTokens int64 `json:"cache_creation_input_tokens"`
	CacheReadInputTokens     int64 `json:"cache_read_input_tokens"`
	OutputTokens             int64 `json:"output_tokens"`
}

// contentBlock is one element of a block-list message content. Plain
// string contents decode through text instead.
type contentBlock struct {
	Type string `json:"type"`
	Name string `json:"name"`
	Text string `json:"text"`
}

func (l *transcriptLine) role() string {
	if l.Message != nil && l.Message.Role != "" {
		return l.Message.Role
	}
	return l.Type
}

// blocks decodes block-list content. String contents and anything else
// yield nil.
func (m *transcriptMessage) blocks() []contentBlock {
	if m == nil || len(m.Content) == 0 {
		return nil
	}
	var blocks []contentBlock
	if err := json.Unmarshal(m.Content, &blocks); err != nil {
		return nil
	}
	return blocks
}

// text flattens message content to plain text: the bare string form, or
// the text blocks of a block list joined together.
func (m *transcriptMessage) text() string {
	if m == nil || len(m.Content) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(m.Content, &s); err == nil {
		return s
	}
	var parts []string
	for _, b := range m.blocks() {
		if b.Type == "text" && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.Join(parts, "\n")
}

// transcriptFacts is everything one transcript file contributes before
// subagent folding.
type transcriptFacts struct {
	sessionID     string
	summary       string
	model         string
	cwd           string
	gitBranch     string
	version       string
	usage         TokenUsage
	tools         map[string]int
	duration      int64
	timestamp     time.Time
	firstUserText string
	teamName      string
	teamSession   bool
}

// parseTranscript reads one JSONL transcript and derives its facts in a
// single pass. Lines that fail to decode are dropped: the CLI appends to
// these files while a session runs, so torn or partial lines are
// expected, not exceptional. The bool result is false only when the file
// cannot be opened; the caller then skips the session entirely.
func parseTranscript(path string) (transcriptFacts, bool) {
	f, err := os.Open(path)
	if err != nil {
		return transcriptFacts{}, false
	}
	defer f.Close()

	var (
		facts        transcriptFacts
		minTS, maxTS time.Time
		validTS      int
		userTurns    int
	)

	scanner := bufio.NewScanner(f)
	buf := make([]byte, 0, 256*1024)
	scanner.Buffer(buf, 10*1024*1024) // 10MB max line size

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var rec transcriptLine
		if err := json.Unmarshal(line, &rec); err != nil {
			continue // skip malformed lines
		}

		if facts.sessionID == "" && rec.SessionID != "" {
			facts.sessionID = rec.SessionID
		}
		if facts.summary == "" && rec.Type == "summary" && rec.Summary != "" {
			facts.summary = rec.Summary
		}
		if facts.gitBranch == "" && rec.GitBranch != "" {
			facts.gitBranch = rec.GitBranch
		}
		if facts.teamName == "" && rec.TeamName != "" {
			facts.teamName = rec.TeamName
		}
		if rec.Version != "" {
			facts.version = newerVersion(facts.version, rec.Version)
		}
		if ts, err := time.Parse(time.RFC3339, rec.Timestamp); err == nil {
			if validTS == 0 || ts.Before(minTS) {
				minTS = ts
			}
			if validTS == 0 || ts.After(maxTS) {
				maxTS = ts
			}
			validTS++
		}

		switch rec.role() {
		case "assistant":
			msg := rec.Message
			if msg == nil {
				continue
			}
			if facts.model == "" && msg.Model != "" && msg.Model != syntheticModel {
				facts.model = msg.Model
			}
			if msg.Usage != nil {
				facts.usage = facts.usage.Add(TokenUsage{
					Input:         msg.Usage.InputTokens,
					Output:        msg.Usage.OutputTokens,
					CacheRead:     msg.Usage.CacheReadInputTokens,
					CacheCreation: msg.Usage.CacheCreationInputTokens,
				})
			}
			for _, block := range msg.blocks() {
				if block.Type == "tool_use" && block.Name != "" {
					if facts.tools == nil {
						facts.tools = make(map[string]int)
					}
					facts.tools[block.Name]++
				}
			}
		case "user":
			if facts.cwd == "" && rec.CWD != "" {
				facts.cwd = rec.CWD
			}
			userTurns++
			if userTurns <= earlyUserTurns {
				text := rec.Message.text()
				if facts.firstUserText == "" && text != "" {
					facts.firstUserText = text
				}
				if !facts.teamSession && teammateTagRe.MatchString(text) {
					facts.teamSession = true
				}
			}
		}
	}

	// Out-of-order timestamps are fine: only the extremes matter.
	if validTS >= 2 {
		facts.duration = maxTS.Sub(minTS).Milliseconds()
	}
	if validTS > 0 {
		facts.timestamp = minTS
	}
	return facts, true
}

// firstSessionID scans the opening lines of a transcript for the session
// id its records claim. Orphaned agent files at a project's top level
// are matched to their parent session this way. Some files open with
// snapshot or housekeeping lines that carry no id, so a handful of lines
// are tried.
func firstSessionID(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 256*1024), 10*1024*1024)
	for i := 0; i < 10 && scanner.Scan(); i++ {
		var rec transcriptLine
		if err := json.Unmarshal(scanner.Bytes(), &rec); err != nil {
			continue
		}
		if rec.SessionID != "" {
			return rec.SessionID
		}
	}
	return ""
}

// commandTitle extracts a slash-command invocation from the opening user
// prompt, e.g. "<command-name>/review</command-name>" yields "/review".
func commandTitle(text string) string {
	m := commandNameRe.FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return strings.TrimSpace(m[1])
}

// newerVersion returns whichever of a and b is the later release. The
// CLI stamps records with bare versions like "2.0.14", so the "v" prefix
// semver requires is attached for the comparison.
func newerVersion(a, b string) string {
	if a == "" {
		return b
	}
	if b == "" {
		return a
	}
	if semver.Compare("v"+a, "v"+b) >= 0 {
		return a
	}
	return b
}
