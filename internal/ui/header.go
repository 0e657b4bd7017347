package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/market"
	"github.com/five82/coindeck/internal/view"
)

// moversState holds the top gainer and loser shown in the header.
type moversState struct {
	gainers []market.Asset
	losers  []market.Asset
}

type moversMsg struct {
	gainers []market.Asset
	losers  []market.Asset
	err     error
}

// moversCmd fetches one gainer and one loser. It is best effort; the header
// keeps the previous movers on failure.
func moversCmd(ctx context.Context, api coinapi.API) tea.Cmd {
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()

		gainers, err := fetchMovers(callCtx, api, true)
		if err != nil {
			return moversMsg{err: err}
		}
		losers, err := fetchMovers(callCtx, api, false)
		if err != nil {
			return moversMsg{err: err}
		}
		return moversMsg{gainers: gainers, losers: losers}
	}
}

func fetchMovers(ctx context.Context, api coinapi.API, gainers bool) ([]market.Asset, error) {
	raw, err := api.TopMovers(ctx, gainers, 1)
	if err != nil {
		return nil, err
	}
	var n market.Normalizer
	out := make([]market.Asset, 0, len(raw))
	for _, r := range raw {
		norm, err := n.Normalize(r)
		if err != nil {
			continue
		}
		out = append(out, norm.Asset)
	}
	return out, nil
}

// renderHeader renders the status bar.
func (m Model) renderHeader() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)
	compact := m.width < LayoutCompactWidth

	parts := []string{bg.Render("coindeck", styles.Logo)}
	parts = append(parts, m.connectionBadge(styles, bg))
	if m.refreshing {
		parts = append(parts, bg.Render(m.spinner.View(), styles.AccentText))
	}

	total := len(m.snapshot.Assets)
	visible := m.list.Len()
	count := fmt.Sprintf("%d", total)
	if visible != total {
		count = fmt.Sprintf("%d/%d", visible, total)
	}
	parts = append(parts,
		bg.Render("Assets:", styles.MutedText)+bg.Space()+bg.Render(count, styles.Text))

	favStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColors["favorite"]))
	parts = append(parts, bg.Render("★", favStyle)+bg.Space()+
		bg.Render(fmt.Sprintf("%d", m.favoriteCount()), styles.Text))

	if !compact {
		parts = append(parts,
			bg.Render("Every:", styles.MutedText)+bg.Space()+bg.Render(formatInterval(m.interval()), styles.Text))
	}

	if ts := m.formatTimestamp(); ts != "" {
		parts = append(parts, bg.Render(ts, styles.MutedText))
	}

	if movers := m.formatMovers(bg, compact); movers != "" {
		parts = append(parts, movers)
	}

	if m.snapshot.LastError != nil && !m.snapshot.IsOffline() {
		maxErr := ternaryInt(compact, 30, 60)
		parts = append(parts,
			bg.Render("ERROR", styles.DangerText.Bold(true))+bg.Space()+
				bg.Render(truncate(m.snapshot.LastError.Error(), maxErr), styles.DangerText))
	}

	return styles.Header.Width(m.width).MaxHeight(1).Render(bg.Join(parts, "  "))
}

// connectionBadge summarises backend health: live, stale cache, offline or
// still connecting.
func (m Model) connectionBadge(styles Styles, bg BgStyle) string {
	switch {
	case m.snapshot.IsOffline():
		return bg.Render("● OFFLINE", lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.StatusColors["offline"])).Bold(true))
	case m.snapshot.Stale:
		return bg.Render("● STALE", lipgloss.NewStyle().
			Foreground(lipgloss.Color(m.theme.StatusColors["stale"])).Bold(true))
	case !m.snapshot.Loaded:
		return bg.Render("Connecting...", styles.WarningText.Bold(true))
	default:
		return bg.Render("● LIVE", styles.SuccessText)
	}
}

func (m Model) favoriteCount() int {
	n := 0
	for _, a := range m.snapshot.Assets {
		if a.IsFavorite {
			n++
		}
	}
	return n
}

func (m Model) interval() time.Duration {
	if m.refresher != nil {
		if d := m.refresher.Interval(); d > 0 {
			return d
		}
	}
	return m.config.DefaultInterval()
}

// formatTimestamp formats the last update time with relative indicator.
func (m Model) formatTimestamp() string {
	last := m.snapshot.LastUpdated
	if last.IsZero() {
		return ""
	}

	since := m.now().Sub(last)
	ts := last.Local().Format("15:04:05")
	switch {
	case since < time.Minute:
		ts += " (now)"
	case since < time.Hour:
		ts += fmt.Sprintf(" (%dm ago)", int(since.Minutes()))
	case since < 24*time.Hour:
		ts += fmt.Sprintf(" (%dh ago)", int(since.Hours()))
	default:
		ts = last.Local().Format("2006-01-02 15:04")
	}
	return ts
}

func (m Model) formatMovers(bg BgStyle, compact bool) string {
	upStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColors["up"]))
	downStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColors["down"]))

	var parts []string
	if len(m.movers.gainers) > 0 {
		g := m.movers.gainers[0]
		parts = append(parts, bg.Render("▲ "+moverLabel(g, compact), upStyle))
	}
	if len(m.movers.losers) > 0 {
		l := m.movers.losers[0]
		parts = append(parts, bg.Render("▼ "+moverLabel(l, compact), downStyle))
	}
	return bg.Join(parts, "  ")
}

func moverLabel(a market.Asset, compact bool) string {
	name := strings.ToUpper(a.Symbol)
	if name == "" {
		name = a.DisplayName
	}
	if compact {
		return name
	}
	return name + " " + formatPercent(a.VariationPct24h)
}

func formatInterval(d time.Duration) string {
	switch {
	case d <= 0:
		return "--"
	case d%time.Hour == 0:
		return fmt.Sprintf("%dh", int(d.Hours()))
	case d%time.Minute == 0:
		return fmt.Sprintf("%dm", int(d.Minutes()))
	default:
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
}

func ternaryInt(cond bool, a, b int) int {
	if cond {
		return a
	}
	return b
}

// renderCommandBar renders the command hints bar.
func (m Model) renderCommandBar() string {
	styles := m.theme.Styles().WithBackground(m.theme.Surface)
	bg := NewBgStyle(m.theme.Surface)

	if m.searchActive {
		return styles.Header.Width(m.width).MaxHeight(1).Render(
			bg.Render("/", styles.AccentText) + m.searchInput.View() + bg.Spaces(2) +
				bg.Render("enter apply  esc cancel", styles.FaintText))
	}

	type cmd struct{ key, desc string }
	var commands []cmd

	switch m.currentView {
	case ViewDetail:
		commands = []cmd{
			{"space", "Favorite"},
			{"c", "Convert"},
			{"C", m.detail.currency.Label()},
			{"A", "Alert"},
			{"j/k", "Scroll"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ViewAlerts:
		commands = []cmd{
			{"j/k", "Navigate"},
			{"d", "Delete"},
			{"esc", "Back"},
			{"?", "More"},
		}
	case ViewLogs:
		commands = []cmd{
			{"space", ternary(m.logState.follow, "Pause", "Follow")},
			{"j/k", "Scroll"},
			{"esc", "Back"},
			{"?", "More"},
		}
	default:
		commands = []cmd{
			{"/", "Search"},
			{"f", variationLabel(m.filter)},
			{"*", ternary(m.filter.FavoritesOnly, "Favorites", "All")},
			{"s", "Sort " + m.list.Sort().Label()},
			{"space", "Favorite"},
			{"enter", "Detail"},
			{"r", "Refresh"},
			{"a", "Alerts"},
			{"l", "Logs"},
			{"x/X", "Export " + string(m.exportFormat)},
			{"?", "More"},
		}
	}

	colon := bg.Sep(":")
	segments := make([]string, 0, len(commands)+2)
	for _, c := range commands {
		segments = append(segments,
			bg.Render(c.key, styles.AccentText)+colon+bg.Render(c.desc, styles.MutedText))
	}

	if m.currentView == ViewMarket && m.filter.Search != "" {
		segments = append(segments, bg.Render("/"+truncate(m.filter.Search, 18), styles.AccentText))
	}

	segments = append(segments,
		bg.Render("T", styles.AccentText)+colon+bg.Render(m.theme.Name, styles.FaintText))

	return styles.Header.Width(m.width).MaxHeight(1).Render(strings.Join(segments, bg.Spaces(2)))
}

// renderStatusLine renders the last action result below the content.
func (m Model) renderStatusLine() string {
	styles := m.theme.Styles().WithBackground(m.theme.Background)
	if m.statusMsg == "" {
		return styles.Footer.Background(lipgloss.Color(m.theme.Background)).Width(m.width).Render("")
	}
	style := styles.MutedText
	if m.statusError {
		style = styles.DangerText
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(m.theme.Background)).
		Width(m.width).
		Padding(0, 1).
		Render(style.Render(truncate(m.statusMsg, maxInt(m.width-2, 10))))
}

func variationLabel(f view.Filter) string {
	switch f.Variation {
	case view.VariationPositive:
		return "Gainers"
	case view.VariationNegative:
		return "Losers"
	default:
		return "All"
	}
}
