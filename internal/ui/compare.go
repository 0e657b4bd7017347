package ui

import (
	"context"
	"strings"
	"unicode"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/market"
)

type compareMsg struct {
	ids    []string
	assets []market.Asset
	err    error
}

// compareIDs resolves the ids or symbols typed after the selected asset.
// Tokens split on commas and spaces, unknown tokens pass through lowercased
// and duplicates are dropped. first always leads.
func compareIDs(assets []market.Asset, first, input string) []string {
	ids := []string{first}
	seen := map[string]bool{first: true}
	split := func(r rune) bool { return r == ',' || unicode.IsSpace(r) }
	for _, tok := range strings.FieldsFunc(input, split) {
		id := strings.ToLower(tok)
		for _, a := range assets {
			if strings.EqualFold(a.ID, tok) || strings.EqualFold(a.Symbol, tok) {
				id = a.ID
				break
			}
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

func compareCmd(ctx context.Context, api coinapi.API, ids []string) tea.Cmd {
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()

		raw, err := api.Compare(callCtx, ids)
		if err != nil {
			return compareMsg{ids: ids, err: err}
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
		return compareMsg{ids: ids, assets: out}
	}
}

func (m *Model) handleCompare(msg compareMsg) {
	switch {
	case msg.err != nil:
		m.setStatus("compare failed: "+msg.err.Error(), true)
	case len(msg.assets) < 2:
		m.setStatus("nothing to compare with "+msg.ids[0], true)
	default:
		m.modal = &compareModal{assets: msg.assets}
	}
}

// compareModal shows assets side by side. Any key closes it.
type compareModal struct {
	assets []market.Asset
}

func (c *compareModal) Update(msg tea.Msg, _ keyMap) (Modal, tea.Cmd, bool) {
	if _, ok := msg.(tea.KeyMsg); ok {
		return c, nil, true
	}
	return c, nil, false
}

const (
	cmpColName   = 22
	cmpColPrice  = 14
	cmpColChange = 9
	cmpColCap    = 10
)

func (c *compareModal) View(theme Theme, width, height int) string {
	styles := theme.Styles()

	var b strings.Builder
	b.WriteString(styles.Text.Bold(true).Render("Compare"))
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render(
		padRight("Asset", cmpColName) + " " +
			padLeft("Price", cmpColPrice) + " " +
			padLeft("24h", cmpColChange) + " " +
			padLeft("Mkt cap", cmpColCap)))
	for _, a := range c.assets {
		change := lipgloss.NewStyle().Foreground(lipgloss.Color(theme.ChangeColor(a.VariationPct24h)))
		name := truncate(a.DisplayName+" "+strings.ToUpper(a.Symbol), cmpColName)
		b.WriteString("\n")
		b.WriteString(styles.Text.Render(padRight(name, cmpColName) + " " + padLeft(formatPrice(a.PriceUSD), cmpColPrice)))
		b.WriteString(" ")
		b.WriteString(change.Render(padLeft(formatPercent(a.VariationPct24h), cmpColChange)))
		b.WriteString(" ")
		b.WriteString(styles.Text.Render(padLeft(formatCompact(a.MarketCap), cmpColCap)))
	}
	b.WriteString("\n\n")
	b.WriteString(styles.MutedText.Render("any key to close"))

	modal := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color(theme.Accent)).
		Padding(1, 2).
		Render(b.String())

	return lipgloss.Place(
		width,
		height,
		lipgloss.Center,
		lipgloss.Center,
		modal,
		lipgloss.WithWhitespaceChars(" "),
		lipgloss.WithWhitespaceForeground(lipgloss.Color(theme.Background)),
	)
}
