package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// renderHelp renders the help overlay.
func (m Model) renderHelp() string {
	styles := m.theme.Styles()

	sections := []helpSection{
		{
			title: "Market",
			items: []helpItem{
				{"j/k", "Move up/down"},
				{"g/G", "Go to top/bottom"},
				{"ctrl+d/u", "Half page down/up"},
				{"enter", "Open asset"},
				{"space", "Toggle favorite"},
				{"/", "Search name or symbol"},
				{"f", "Cycle gainers/losers"},
				{"*", "Favorites only"},
				{"s", "Cycle sort"},
				{"v", "Compare with other assets"},
			},
		},
		{
			title: "Asset",
			items: []helpItem{
				{"c", "Edit converter amount"},
				{"C", "Switch USD/local"},
				{"A", "New price alert"},
				{"space", "Toggle favorite"},
			},
		},
		{
			title: "Alerts and Logs",
			items: []helpItem{
				{"a", "Alerts"},
				{"d", "Delete alert"},
				{"l", "Logs"},
				{"space", "Toggle follow mode"},
			},
		},
		{
			title: "General",
			items: []helpItem{
				{"r", "Refresh now"},
				{"x/X", "Export favorites/all"},
				{"E", "Toggle csv/json"},
				{"esc", "Back to market"},
				{"T", "Cycle theme"},
				{"h/?", "Toggle help"},
				{"e/ctrl+c", "Quit"},
			},
		},
	}

	var b strings.Builder

	title := styles.Text.Bold(true).Render("Keyboard Shortcuts")
	b.WriteString(title)
	b.WriteString("\n")
	b.WriteString(styles.FaintText.Render(strings.Repeat("─", 30)))
	b.WriteString("\n\n")

	for i, section := range sections {
		b.WriteString(styles.AccentText.Bold(true).Render(section.title))
		b.WriteString("\n")

		for _, item := range section.items {
			keyStyle := lipgloss.NewStyle().
				Foreground(lipgloss.Color(m.theme.Warning)).
				Width(12)
			b.WriteString(keyStyle.Render(item.key))
			b.WriteString(styles.Text.Render(item.desc))
			b.WriteString("\n")
		}

		if i < len(sections)-1 {
			b.WriteString("\n")
		}
	}

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(m.theme.Accent)).
		Padding(1, 2).
		Width(40)

	return lipgloss.Place(
		m.width,
		m.height,
		lipgloss.Center,
		lipgloss.Center,
		modal.Render(b.String()),
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(m.theme.Background)),
	)
}

type helpSection struct {
	title string
	items []helpItem
}

type helpItem struct {
	key  string
	desc string
}
