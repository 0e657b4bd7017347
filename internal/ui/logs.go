package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/coindeck/internal/logtail"
)

// logState holds all log-related state.
type logState struct {
	entries  []logtail.Entry
	follow   bool
	err      error
	viewport viewport.Model

	// Content caching - skip re-render when unchanged
	contentVersion uint64
	lastRendered   uint64
}

type logsMsg struct {
	entries []logtail.Entry
	err     error
}

// readLogsCmd reads the tail of the coindeck log file.
func readLogsCmd(path string) tea.Cmd {
	return func() tea.Msg {
		entries, err := logtail.ReadEntries(path, LogTailLines)
		return logsMsg{entries: entries, err: err}
	}
}

func (m *Model) handleLogs(msg logsMsg) {
	m.logState.err = msg.err
	if msg.err == nil {
		if len(msg.entries) == len(m.logState.entries) && (len(msg.entries) == 0 ||
			msg.entries[len(msg.entries)-1].Raw == m.logState.entries[len(m.logState.entries)-1].Raw) {
			return
		}
		m.logState.entries = msg.entries
		m.logState.contentVersion++
	}
	m.updateLogViewport()
}

// handleLogsKey processes keyboard input for the log view.
func (m Model) handleLogsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFollow):
		m.logState.follow = !m.logState.follow
		if m.logState.follow {
			m.logState.viewport.GotoBottom()
			return m, readLogsCmd(m.config.Log.Path)
		}
	case key.Matches(msg, m.keys.Top):
		m.logState.viewport.GotoTop()
		m.logState.follow = false
	case key.Matches(msg, m.keys.Bottom):
		m.logState.viewport.GotoBottom()
		m.logState.follow = true
	case key.Matches(msg, m.keys.Down):
		m.logState.viewport.ScrollDown(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.Up):
		m.logState.viewport.ScrollUp(1)
		m.logState.follow = false
	case key.Matches(msg, m.keys.HalfPageDown):
		m.logState.viewport.HalfPageDown()
		m.logState.follow = false
	case key.Matches(msg, m.keys.HalfPageUp):
		m.logState.viewport.HalfPageUp()
		m.logState.follow = false
	}
	return m, nil
}

// updateLogViewport updates the log viewport with current content.
func (m *Model) updateLogViewport() {
	// Box height = contentHeight - 1 (status line below the box)
	// Box inner = box height - 2 (top and bottom borders)
	w := maxInt(m.width-2, 1)
	h := maxInt(m.contentHeight()-3, 1)
	if m.logState.viewport.Width == 0 {
		m.logState.viewport = viewport.New(w, h)
	}
	resized := m.logState.viewport.Width != w || m.logState.viewport.Height != h
	m.logState.viewport.Width = w
	m.logState.viewport.Height = h
	m.logState.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))

	// Only re-render content if it changed (version mismatch or first render)
	if resized || m.logState.lastRendered == 0 || m.logState.contentVersion != m.logState.lastRendered {
		m.logState.viewport.SetContent(m.renderLogContent(w))
		m.logState.lastRendered = max(m.logState.contentVersion, 1)
	}

	if m.logState.follow {
		m.logState.viewport.GotoBottom()
	}
}

// renderLogContent renders the colorized log lines.
func (m *Model) renderLogContent(width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()

	if len(m.logState.entries) == 0 {
		return bg.FillLine(bg.Render("No log entries", styles.MutedText), width)
	}

	lines := make([]string, 0, len(m.logState.entries))
	for i, e := range m.logState.entries {
		line := bg.Render(fmt.Sprintf("%4d │ ", i+1), styles.FaintText) + m.colorizeLogEntry(e, styles, bg)
		lines = append(lines, bg.FillLine(line, width))
	}
	return strings.Join(lines, "\n")
}

// renderLogs renders the log view.
func (m Model) renderLogs() string {
	bg := NewBgStyle(m.theme.Surface)
	styles := m.theme.Styles()

	box := m.renderTitledBox("coindeck log", m.logState.viewport.View(), m.width, m.contentHeight()-1, true)
	return box + "\n" + bg.FillLine(m.renderLogStatus(styles, bg), m.width)
}

// renderLogStatus renders the log status bar: "coindeck.log 341 lines auto-tail on • path".
func (m Model) renderLogStatus(styles Styles, bg BgStyle) string {
	if m.logState.err != nil {
		return bg.Render("log unreadable: "+m.logState.err.Error(), styles.DangerText)
	}
	autoTail := ternary(m.logState.follow, "on", "off")
	status := fmt.Sprintf("%d lines auto-tail %s", len(m.logState.entries), autoTail)
	sep := bg.Space() + bg.Render("•", styles.FaintText) + bg.Space()
	return bg.Render(status, styles.FaintText) + sep +
		bg.Render(truncateMiddle(m.config.Log.Path, maxInt(m.width-40, 10)), styles.AccentText)
}
