package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/coindeck/internal/market"
)

// Fixed column widths of the market table.
const (
	colFav    = 2
	colPrice  = 14
	colChange = 9
	colMCap   = 9
	colVolume = 9
	colTrend  = market.TrendLength + 1
)

// renderMain renders the full UI.
func (m Model) renderMain() string {
	var b strings.Builder
	b.WriteString(m.renderHeader())
	b.WriteString("\n")
	b.WriteString(m.renderCommandBar())
	b.WriteString("\n")
	b.WriteString(m.renderContent())
	b.WriteString("\n")
	b.WriteString(m.renderStatusLine())
	return b.String()
}

// contentHeight is the height left for the active view.
func (m Model) contentHeight() int {
	return maxInt(m.height-3, 3)
}

// renderContent renders the main content area based on current view.
func (m Model) renderContent() string {
	switch m.currentView {
	case ViewDetail:
		return m.renderDetail()
	case ViewAlerts:
		return m.renderAlerts()
	case ViewLogs:
		return m.renderLogs()
	default:
		return m.renderMarket()
	}
}

// tableRows is the number of asset rows that fit in the market box.
func (m Model) tableRows() int {
	return maxInt(m.contentHeight()-3, 1) // borders + column header
}

// renderMarket renders the asset table.
func (m Model) renderMarket() string {
	height := m.contentHeight()
	styles := m.theme.Styles().WithBackground(m.theme.FocusBg)

	var content string
	switch {
	case !m.snapshot.Loaded && m.snapshot.LastError != nil:
		content = styles.DangerText.Render("Backend unreachable: "+truncate(m.snapshot.LastError.Error(), m.width-30)) +
			"\n" + styles.MutedText.Render("Retrying every "+formatInterval(m.interval())+", press r to retry now")
	case !m.snapshot.Loaded:
		content = styles.MutedText.Render("Loading prices...")
	case m.list.Len() == 0:
		content = styles.MutedText.Render("No assets match the current filter")
	default:
		content = m.renderMarketTable(m.width-2, m.theme.FocusBg)
	}

	return m.renderTitledBox(m.marketTitle(), content, m.width, height, true)
}

func (m Model) marketTitle() string {
	total := len(m.snapshot.Assets)
	visible := m.list.Len()
	title := fmt.Sprintf("Market (%d)", total)
	if visible != total {
		title = fmt.Sprintf("Market (%d/%d)", visible, total)
	}
	if key := m.list.Sort(); key != "" {
		title += " by " + key.Label()
	}
	return title
}

type tableLayout struct {
	name       int
	showVolume bool
	showTrend  bool
}

func (m Model) tableLayout(width int) tableLayout {
	l := tableLayout{
		showVolume: m.width >= LayoutVolumeWidth,
		showTrend:  m.width >= LayoutTrendWidth,
	}
	fixed := colFav + colPrice + colChange + colMCap + 4
	if l.showVolume {
		fixed += colVolume + 1
	}
	if l.showTrend {
		fixed += colTrend + 1
	}
	l.name = maxInt(width-fixed-2, 10)
	return l
}

// renderMarketTable renders the column header plus the visible window of rows.
func (m Model) renderMarketTable(width int, bgColor string) string {
	rows := m.list.Rows()
	layout := m.tableLayout(width)
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	header := padRight("", colFav) + " " + padRight("Name", layout.name) + " " +
		padLeft("Price (USD)", colPrice) + " " + padLeft("24h", colChange) + " " +
		padLeft("Mkt Cap", colMCap)
	if layout.showVolume {
		header += " " + padLeft("Volume", colVolume)
	}
	if layout.showTrend {
		header += " " + padRight(" 7d", colTrend)
	}
	lines := []string{bg.FillLine(bg.Render(header, styles.FaintText.Bold(true)), width)}

	visible := m.tableRows()
	offset := 0
	if m.selectedRow >= visible {
		offset = m.selectedRow - visible + 1
	}
	end := min(offset+visible, len(rows))

	for i := offset; i < end; i++ {
		selected := i == m.selectedRow
		rowBg := ternary(selected, m.theme.SelectionBg, bgColor)
		content := m.formatMarketRow(rows[i], layout, rowBg, selected)
		lines = append(lines, NewBgStyle(rowBg).FillLine(content, width))
	}
	return strings.Join(lines, "\n")
}

// formatMarketRow formats one asset row with inline colors.
// When selected is true, SelectionText is used for every column.
func (m Model) formatMarketRow(a market.Asset, layout tableLayout, bgColor string, selected bool) string {
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()

	pending := m.favorites != nil && m.favorites.Pending(a.ID)
	fav := "☆"
	favColor := m.theme.Faint
	switch {
	case pending:
		fav = "◌"
		favColor = m.theme.StatusColors["pending"]
	case a.IsFavorite:
		fav = "★"
		favColor = m.theme.StatusColors["favorite"]
	}

	name := a.DisplayName
	if a.Symbol != "" {
		name += " " + strings.ToUpper(a.Symbol)
	}

	var favStyle, nameStyle, numStyle, changeStyle, faintStyle lipgloss.Style
	if selected {
		sel := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.SelectionText))
		favStyle, nameStyle, numStyle, changeStyle, faintStyle = sel, sel.Bold(true), sel, sel, sel
	} else {
		favStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(favColor))
		nameStyle = styles.Text
		numStyle = styles.Text
		changeStyle = lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ChangeColor(a.VariationPct24h)))
		faintStyle = styles.MutedText
	}

	row := bg.Render(padRight(fav, colFav), favStyle) + bg.Space() +
		bg.Render(padRight(truncate(name, layout.name), layout.name), nameStyle) + bg.Space() +
		bg.Render(padLeft(formatPrice(a.PriceUSD), colPrice), numStyle) + bg.Space() +
		bg.Render(padLeft(formatPercent(a.VariationPct24h), colChange), changeStyle) + bg.Space() +
		bg.Render(padLeft(formatCompact(a.MarketCap), colMCap), faintStyle)
	if layout.showVolume {
		row += bg.Space() + bg.Render(padLeft(formatCompact(a.Volume24h), colVolume), faintStyle)
	}
	if layout.showTrend {
		trendStyle := changeStyle
		if a.TrendSynthetic && !selected {
			trendStyle = styles.FaintText
		}
		row += bg.Space() + bg.Space() + bg.Render(sparkline(a.Trend), trendStyle)
	}
	return row
}

// renderTitledBox renders content in a box with the title embedded in the top border:
// ┌─── Title ───┐
func (m Model) renderTitledBox(title, content string, width, height int, focused bool) string {
	var borderColorStr, bgColorStr string
	if focused {
		borderColorStr = m.theme.BorderFocus
		bgColorStr = m.theme.FocusBg
	} else {
		borderColorStr = m.theme.Border
		bgColorStr = m.theme.SurfaceAlt
	}
	bg := NewBgStyle(bgColorStr)
	borderStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(borderColorStr))
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(m.theme.Text))

	innerWidth := maxInt(width-2, 1)
	title = truncate(title, maxInt(innerWidth-4, 1))
	titleLen := lipgloss.Width(title)
	leftPad := maxInt((innerWidth-titleLen-2)/2, 0)
	rightPad := maxInt(innerWidth-titleLen-2-leftPad, 0)

	topBorder := bg.Render("┌", borderStyle) +
		bg.Render(strings.Repeat("─", leftPad), borderStyle) +
		bg.Render(" "+title+" ", titleStyle) +
		bg.Render(strings.Repeat("─", rightPad), borderStyle) +
		bg.Render("┐", borderStyle)

	bottomBorder := bg.Render("└", borderStyle) +
		bg.Render(strings.Repeat("─", innerWidth), borderStyle) +
		bg.Render("┘", borderStyle)

	contentStyle := lipgloss.NewStyle().Width(innerWidth).MaxWidth(innerWidth).Background(lipgloss.Color(bgColorStr))

	contentLines := strings.Split(content, "\n")
	boxHeight := maxInt(height-2, 0)

	lines := make([]string, 0, boxHeight)
	for i := 0; i < boxHeight; i++ {
		var line string
		if i < len(contentLines) {
			line = contentLines[i]
		}
		lines = append(lines,
			bg.Render("│", borderStyle)+
				contentStyle.Render(line)+
				bg.Render("│", borderStyle))
	}

	return topBorder + "\n" + strings.Join(lines, "\n") + "\n" + bottomBorder
}
