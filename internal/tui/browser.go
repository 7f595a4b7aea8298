// Package tui is a compact interactive browser over a usage report: a
// project list and a per-project detail pane, keyboard driven.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/cctally/cctally/internal/config"
	"github.com/cctally/cctally/internal/render"
	"github.com/cctally/cctally/internal/stats"
)

var (
	textStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CDD6F4"))
	subtextStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#A6ADC8"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#585B70"))
	helpKeyStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#74C7EC"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#F38BA8"))
)

type viewMode int

const (
	modeList viewMode = iota
	modeDetail
)

type accentSavedMsg struct{ err error }

// Model drives the project browser.
type Model struct {
	report *stats.Report
	accent string

	mode    viewMode
	cursor  int
	width   int
	height  int
	saveErr error
}

// New builds a browser over the given report. The accent name comes from
// settings and cycles at runtime on the theme key.
func New(report *stats.Report, accent string) Model {
	return Model{report: report, accent: accent, width: 100, height: 30}
}

// Run launches the browser and blocks until the user quits.
func Run(report *stats.Report, accent string) error {
	_, err := tea.NewProgram(New(report, accent), tea.WithAltScreen()).Run()
	return err
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil
	case accentSavedMsg:
		m.saveErr = msg.err
		return m, nil
	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "esc":
		if m.mode == modeDetail {
			m.mode = modeList
			return m, nil
		}
		return m, tea.Quit
	case "j", "down":
		if m.cursor < len(m.report.Projects)-1 {
			m.cursor++
		}
	case "k", "up":
		if m.cursor > 0 {
			m.cursor--
		}
	case "g", "home":
		m.cursor = 0
	case "G", "end":
		if n := len(m.report.Projects); n > 0 {
			m.cursor = n - 1
		}
	case "enter", "l":
		if m.cursor < len(m.report.Projects) {
			m.mode = modeDetail
		}
	case "h":
		m.mode = modeList
	case "t":
		m.accent = nextAccent(m.accent)
		return m, persistAccent(m.accent)
	}
	return m, nil
}

// nextAccent steps through the accent cycle, wrapping at the end.
func nextAccent(current string) string {
	names := render.AccentNames()
	for i, name := range names {
		if name == current {
			return names[(i+1)%len(names)]
		}
	}
	return names[0]
}

func persistAccent(name string) tea.Cmd {
	return func() tea.Msg {
		return accentSavedMsg{err: config.SaveAccent(name)}
	}
}

func (m Model) View() string {
	if m.report == nil || len(m.report.Projects) == 0 {
		return "\n  " + helpStyle.Render("No Claude Code activity found.") +
			"\n\n  " + helpKey("q", "quit") + "\n"
	}
	if m.mode == modeDetail {
		return m.detailView()
	}
	return m.listView()
}

func (m Model) listView() string {
	accentCol := render.AccentColor(m.accent)
	var sb strings.Builder

	sb.WriteString("\n  ")
	sb.WriteString(lipgloss.NewStyle().Bold(true).Foreground(accentCol).Render("cctally"))
	sb.WriteString("  ")
	sb.WriteString(subtextStyle.Render(fmt.Sprintf("%d projects · %s · %s tokens",
		m.report.Totals.Projects,
		render.FormatDuration(m.report.Totals.DurationMS),
		render.FormatTokens(m.report.Totals.Tokens.Total()))))
	sb.WriteString("\n\n")

	nameW := m.width - 36
	if nameW < 16 {
		nameW = 16
	}
	rows := m.listRows()
	start := 0
	if m.cursor >= rows {
		start = m.cursor - rows + 1
	}
	for i := start; i < len(m.report.Projects) && i < start+rows; i++ {
		p := m.report.Projects[i]
		marker := "  "
		nameStyle := textStyle
		if i == m.cursor {
			marker = lipgloss.NewStyle().Foreground(accentCol).Render("▌ ")
			nameStyle = lipgloss.NewStyle().Bold(true).Foreground(accentCol)
		}
		sb.WriteString(fmt.Sprintf("  %s%s  %s  %s\n",
			marker,
			nameStyle.Render(render.FitWidth(p.Name, nameW)),
			subtextStyle.Render(render.FitWidth(render.FormatDuration(p.TotalDurationMS), 9)),
			helpStyle.Render(fmt.Sprintf("%d sess", p.TotalSessions)),
		))
	}

	sb.WriteString("\n  ")
	sb.WriteString(helpKey("j/k", "move"))
	sb.WriteString(helpKey("enter", "open"))
	sb.WriteString(helpKey("t", "theme"))
	sb.WriteString(helpKey("q", "quit"))
	if m.saveErr != nil {
		sb.WriteString(errorStyle.Render("theme not saved"))
	}
	sb.WriteString("\n")
	return sb.String()
}

func (m Model) detailView() string {
	i := m.cursor
	if i >= len(m.report.Projects) {
		i = len(m.report.Projects) - 1
	}
	body := render.ProjectDetail(m.report.Projects[i], m.width-4)

	var sb strings.Builder
	sb.WriteString("\n")
	sb.WriteString(indent(body, 2))
	sb.WriteString("\n\n  ")
	sb.WriteString(helpKey("esc", "back"))
	sb.WriteString(helpKey("q", "quit"))
	sb.WriteString("\n")
	return sb.String()
}

// listRows is how many project rows fit under the header and above the help
// line at the current height.
func (m Model) listRows() int {
	rows := m.height - 7
	if rows < 3 {
		rows = 3
	}
	return rows
}

func helpKey(key, label string) string {
	return helpKeyStyle.Render(key) + " " + helpStyle.Render(label) + "  "
}

func indent(s string, n int) string {
	pad := strings.Repeat(" ", n)
	lines := strings.Split(s, "\n")
	for i, ln := range lines {
		if ln != "" {
			lines[i] = pad + ln
		}
	}
	return strings.Join(lines, "\n")
}
