package ui

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/bufeadmin/internal/logtail"
)

const logTailLines = 500

var logLevels = []slog.Level{slog.LevelDebug, slog.LevelInfo, slog.LevelWarn, slog.LevelError}

// logState holds the log screen.
type logState struct {
	viewport viewport.Model
	entries  []logtail.Entry
	err      error
	follow   bool
	minLevel slog.Level
	ticking  bool
	// rendered is cleared whenever entries or the theme change.
	rendered bool
}

func newLogState() logState {
	return logState{
		viewport: viewport.New(0, 0),
		follow:   true,
		minLevel: slog.LevelInfo,
	}
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// fetchLogs reads the tail of the console's own log file.
func (m Model) fetchLogs() tea.Cmd {
	path, level := m.logFile, m.logs.minLevel
	return func() tea.Msg {
		if path == "" {
			return logsMsg{}
		}
		entries, err := logtail.Tail(path, logTailLines, level)
		return logsMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logs.err = msg.err
	if msg.err == nil && sameEntries(m.logs.entries, msg.entries) {
		return
	}
	if msg.err == nil {
		m.logs.entries = msg.entries
	}
	m.logs.rendered = false
	m.updateLogViewport()
}

func sameEntries(a, b []logtail.Entry) bool {
	if len(a) != len(b) {
		return false
	}
	if len(a) == 0 {
		return true
	}
	return a[0].Raw == b[0].Raw && a[len(a)-1].Raw == b[len(b)-1].Raw
}

// resizeLogViewport fits the viewport inside the log box.
func (m *Model) resizeLogViewport() {
	m.logs.viewport.Width = maxInt(m.width-4, 1)
	m.logs.viewport.Height = maxInt(m.contentHeight()-3, 1)
	m.logs.rendered = false
	m.updateLogViewport()
}

// updateLogViewport re-renders the entries when needed and keeps the view
// pinned to the bottom in follow mode.
func (m *Model) updateLogViewport() {
	m.logs.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if !m.logs.rendered {
		m.logs.viewport.SetContent(m.renderLogContent())
		m.logs.rendered = true
	}
	if m.logs.follow {
		m.logs.viewport.GotoBottom()
	}
}

func (m Model) renderLogContent() string {
	if len(m.logs.entries) == 0 {
		return m.theme.Styles().MutedText.Render("Nincs naplóbejegyzés")
	}
	lines := make([]string, 0, len(m.logs.entries))
	for _, e := range m.logs.entries {
		lines = append(lines, m.formatLogEntry(e))
	}
	return strings.Join(lines, "\n")
}

func (m Model) formatLogEntry(e logtail.Entry) string {
	styles := m.theme.Styles()
	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(styles.FaintText.Render(e.Time.Local().Format("15:04:05")))
		b.WriteString(" ")
	}
	if e.HasLevel {
		b.WriteString(m.levelStyle(e.Level).Render(fmt.Sprintf("%-5s", e.Level.String())))
		b.WriteString(" ")
	}
	b.WriteString(styles.Text.Render(e.Message))
	for _, a := range e.Attrs {
		b.WriteString(" ")
		b.WriteString(styles.MutedText.Render(a.Key + "="))
		b.WriteString(styles.Text.Render(a.Value))
	}
	return b.String()
}

func (m Model) levelStyle(level slog.Level) lipgloss.Style {
	styles := m.theme.Styles()
	switch {
	case level >= slog.LevelError:
		return styles.DangerText
	case level >= slog.LevelWarn:
		return styles.WarningText
	case level >= slog.LevelInfo:
		return styles.InfoText
	default:
		return styles.FaintText
	}
}

func nextLevel(current slog.Level) slog.Level {
	for i, l := range logLevels {
		if l == current {
			return logLevels[(i+1)%len(logLevels)]
		}
	}
	return slog.LevelInfo
}

// handleLogKey processes keyboard input for the log screen.
func (m Model) handleLogKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logs.follow = !m.logs.follow
		if m.logs.follow {
			m.logs.viewport.GotoBottom()
		}
		return m, nil
	case key.Matches(msg, m.keys.CycleLevel):
		m.logs.minLevel = nextLevel(m.logs.minLevel)
		return m, m.fetchLogs()
	case key.Matches(msg, m.keys.Top):
		m.logs.follow = false
		m.logs.viewport.GotoTop()
		return m, nil
	case key.Matches(msg, m.keys.Bottom):
		m.logs.follow = true
		m.logs.viewport.GotoBottom()
		return m, nil
	}

	var cmd tea.Cmd
	m.logs.viewport, cmd = m.logs.viewport.Update(msg)
	if !m.logs.viewport.AtBottom() {
		m.logs.follow = false
	}
	return m, cmd
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)
	height := m.contentHeight()

	title := "Napló"
	if m.logFile != "" {
		title += " · " + truncate(m.logFile, maxInt(m.width/2, 10))
	}

	parts := []string{
		bg.Render("szint:", styles.MutedText) + bg.Space() + bg.Render(m.logs.minLevel.String(), styles.AccentText),
	}
	if m.logs.follow {
		parts = append(parts, bg.Render("követés", styles.SuccessText))
	} else {
		parts = append(parts, bg.Render("követés ki", styles.MutedText))
	}
	parts = append(parts, bg.Render(fmt.Sprintf("%d sor", len(m.logs.entries)), styles.FaintText))
	if m.logs.err != nil {
		parts = append(parts, bg.Render(truncate(m.logs.err.Error(), 60), styles.DangerText))
	}
	if m.logFile == "" {
		parts = append(parts, bg.Render("a napló a konzolra megy", styles.WarningText))
	}

	content := bg.Join(parts, "  ") + "\n" + m.logs.viewport.View()
	return m.renderBox(title, content, m.width, height)
}
