package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/convert"
	"github.com/five82/coindeck/internal/market"
)

// History sources shown in the chart title.
const (
	sourceBackend = "backend"
	sourceJournal = "local journal"
)

// detailState holds the asset detail view.
type detailState struct {
	id      string
	info    *coinapi.AssetDetail
	loading bool
	err     error

	history        []float64
	source         string
	historyLoading bool
	historyErr     error

	amountInput textinput.Model
	currency    convert.Currency
	viewport    viewport.Model
}

func newDetailState(cur convert.Currency) detailState {
	ti := textinput.New()
	ti.Placeholder = "amount"
	ti.Prompt = ""
	ti.CharLimit = 24
	ti.Width = 20
	return detailState{amountInput: ti, currency: cur}
}

type detailMsg struct {
	id   string
	info coinapi.AssetDetail
	err  error
}

type historyMsg struct {
	id     string
	points []float64
	source string
	err    error
}

// openDetail switches to the detail view for id and starts loading it.
// The typed amount carries over between assets.
func (m *Model) openDetail(id string) tea.Cmd {
	amount := m.detail.amountInput.Value()
	vp := m.detail.viewport
	m.detail = newDetailState(m.detail.currency)
	m.detail.amountInput.SetValue(amount)
	m.detail.viewport = vp
	m.detail.viewport.GotoTop()
	m.detail.id = id
	m.detail.loading = m.api != nil
	m.detail.historyLoading = m.api != nil || m.journal != nil
	m.currentView = ViewDetail
	m.syncPanes()
	return tea.Batch(
		fetchDetailCmd(m.ctx, m.api, id),
		fetchHistoryCmd(m.ctx, m.api, m.journal, id, m.config.HistoryDays, m.now()),
	)
}

func fetchDetailCmd(ctx context.Context, api coinapi.API, id string) tea.Cmd {
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		info, err := api.FetchAsset(callCtx, id)
		return detailMsg{id: id, info: info, err: err}
	}
}

// fetchHistoryCmd loads the price history from the backend and falls back to
// the local journal when the backend has none.
func fetchHistoryCmd(ctx context.Context, api coinapi.API, journal History, id string, days int, now time.Time) tea.Cmd {
	if api == nil && journal == nil {
		return nil
	}
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()

		var firstErr error
		if api != nil {
			h, err := api.FetchHistory(callCtx, id, days)
			if err == nil && len(h.Prices) > 0 {
				points := h.Points()
				prices := make([]float64, len(points))
				for i, p := range points {
					prices[i] = p.Price
				}
				return historyMsg{id: id, points: prices, source: sourceBackend}
			}
			firstErr = err
		}
		if journal != nil {
			points, err := journal.History(callCtx, id, now.AddDate(0, 0, -days))
			if err == nil && len(points) > 0 {
				prices := make([]float64, len(points))
				for i, p := range points {
					prices[i] = p.PriceUSD
				}
				return historyMsg{id: id, points: prices, source: sourceJournal}
			}
			if firstErr == nil {
				firstErr = err
			}
		}
		return historyMsg{id: id, err: firstErr}
	}
}

func (m *Model) handleDetail(msg detailMsg) {
	if msg.id != m.detail.id {
		return
	}
	m.detail.loading = false
	m.detail.err = msg.err
	if msg.err != nil {
		m.logger.Debug("asset detail unavailable", zap.String("asset", msg.id), zap.Error(msg.err))
		return
	}
	info := msg.info
	m.detail.info = &info
}

func (m *Model) handleHistory(msg historyMsg) {
	if msg.id != m.detail.id {
		return
	}
	m.detail.historyLoading = false
	m.detail.history = msg.points
	m.detail.source = msg.source
	m.detail.historyErr = msg.err
}

// detailAsset returns the asset shown in the detail view. Store data wins
// over the one-shot detail fetch because it keeps refreshing.
func (m Model) detailAsset() (market.Asset, bool) {
	if a, ok := m.store.Lookup(m.detail.id); ok {
		return a, true
	}
	if info := m.detail.info; info != nil {
		return market.Asset{
			ID:              info.ID,
			DisplayName:     info.Name,
			Symbol:          info.Symbol,
			PriceUSD:        info.PriceUSD,
			PriceLocal:      info.PriceLocal,
			VariationPct24h: info.Variation24h,
			MarketCap:       info.MarketCap,
			Volume24h:       info.Volume,
			IsFavorite:      info.IsFavorite,
		}, true
	}
	return market.Asset{}, false
}

// handleDetailKey processes keyboard input for the detail view.
func (m Model) handleDetailKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.ToggleFavorite):
		return m, m.toggleSelected()

	case key.Matches(msg, m.keys.FocusAmount):
		cmd := m.detail.amountInput.Focus()
		m.syncPanes()
		return m, cmd

	case key.Matches(msg, m.keys.CycleCurrency):
		m.detail.currency = m.detail.currency.Next()
		m.prefs.Currency = string(m.detail.currency)
		m.savePrefs()
		m.syncPanes()
		return m, nil

	case key.Matches(msg, m.keys.NewAlert):
		asset, ok := m.detailAsset()
		if !ok || m.api == nil {
			return m, nil
		}
		ctx, api, id, current := m.ctx, m.api, asset.ID, asset.PriceUSD
		m.modal = newPromptModal(
			"New alert: "+asset.DisplayName,
			"Target price in USD, now "+formatPrice(current),
			formatPrice(current),
			func(value string) tea.Cmd {
				return createAlertCmd(ctx, api, id, value, current)
			},
		)
		return m, textinput.Blink

	case key.Matches(msg, m.keys.Down):
		m.detail.viewport.ScrollDown(1)
	case key.Matches(msg, m.keys.Up):
		m.detail.viewport.ScrollUp(1)
	case key.Matches(msg, m.keys.HalfPageDown):
		m.detail.viewport.HalfPageDown()
	case key.Matches(msg, m.keys.HalfPageUp):
		m.detail.viewport.HalfPageUp()
	case key.Matches(msg, m.keys.Top):
		m.detail.viewport.GotoTop()
	case key.Matches(msg, m.keys.Bottom):
		m.detail.viewport.GotoBottom()
	}
	return m, nil
}

// handleAmountKey edits the converter amount.
func (m Model) handleAmountKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if key.Matches(msg, m.keys.Confirm) || key.Matches(msg, m.keys.Escape) {
		m.detail.amountInput.Blur()
		m.syncPanes()
		return m, nil
	}
	var cmd tea.Cmd
	m.detail.amountInput, cmd = m.detail.amountInput.Update(msg)
	m.syncPanes()
	return m, cmd
}

// updateDetailViewport sizes the detail viewport and refreshes its content.
func (m *Model) updateDetailViewport() {
	w := maxInt(m.width-2, 1)
	h := maxInt(m.contentHeight()-2, 1)
	if m.detail.viewport.Width == 0 {
		m.detail.viewport = viewport.New(w, h)
	}
	m.detail.viewport.Width = w
	m.detail.viewport.Height = h
	m.detail.viewport.Style = lipgloss.NewStyle().Background(lipgloss.Color(m.theme.FocusBg))
	if m.currentView == ViewDetail {
		m.detail.viewport.SetContent(m.renderDetailContent(w))
	}
}

// renderDetail renders the detail view.
func (m Model) renderDetail() string {
	vp := m.detail.viewport
	vp.SetContent(m.renderDetailContent(vp.Width))

	title := m.detail.id
	if a, ok := m.detailAsset(); ok && a.DisplayName != "" {
		title = a.DisplayName
	}
	return m.renderTitledBox(title, vp.View(), m.width, m.contentHeight(), true)
}

func (m Model) renderDetailContent(width int) string {
	bg := NewBgStyle(m.theme.FocusBg)
	styles := m.theme.Styles()
	var b strings.Builder

	asset, ok := m.detailAsset()
	switch {
	case !ok && m.detail.loading:
		b.WriteString(bg.Render("Loading "+m.detail.id+"...", styles.MutedText))
		return b.String()
	case !ok:
		b.WriteString(bg.Render("Asset "+m.detail.id+" is not available", styles.DangerText))
		if m.detail.err != nil {
			b.WriteString("\n")
			b.WriteString(bg.Render(m.detail.err.Error(), styles.MutedText))
		}
		return b.String()
	}

	m.renderDetailHeading(&b, asset, styles, bg)
	m.renderDetailValues(&b, asset, styles, bg)
	m.renderDetailLinks(&b, styles, bg)
	m.renderConverter(&b, asset, styles, bg)
	m.renderHistory(&b, width, styles, bg)
	return strings.TrimRight(b.String(), "\n")
}

func (m Model) renderDetailHeading(b *strings.Builder, a market.Asset, styles Styles, bg BgStyle) {
	b.WriteString(bg.Render(a.DisplayName, styles.Text.Bold(true)))
	if a.Symbol != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(strings.ToUpper(a.Symbol), styles.MutedText))
	}
	if a.IsFavorite {
		b.WriteString(bg.Spaces(2))
		b.WriteString(bg.Render("★ favorite", lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColors["favorite"]))))
	}
	if m.favorites != nil && m.favorites.Pending(a.ID) {
		b.WriteString(bg.Spaces(2))
		b.WriteString(bg.Render("saving...", lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.StatusColors["pending"]))))
	}
	b.WriteString("\n")
	if m.detail.err != nil {
		b.WriteString(bg.Render("Details unavailable: "+m.detail.err.Error(), styles.WarningText))
		b.WriteString("\n")
	}
	b.WriteString("\n")
}

func (m Model) renderDetailValues(b *strings.Builder, a market.Asset, styles Styles, bg BgStyle) {
	row := func(label, value string, style lipgloss.Style) {
		b.WriteString(bg.Render(padRight(label, 12), styles.MutedText))
		b.WriteString(bg.Render(value, style))
		b.WriteString("\n")
	}
	change := lipgloss.NewStyle().Foreground(lipgloss.Color(m.theme.ChangeColor(a.VariationPct24h)))

	row("Price", formatPrice(a.PriceUSD)+" USD", styles.Text.Bold(true))
	if a.PriceLocal > 0 {
		row("Local", formatPrice(a.PriceLocal)+" LOCAL", styles.Text)
	}
	row("24h", formatPercent(a.VariationPct24h), change)
	row("Market cap", formatCompact(a.MarketCap), styles.Text)
	row("Volume 24h", formatCompact(a.Volume24h), styles.Text)
	if info := m.detail.info; info != nil && info.Supply > 0 {
		supply := formatCompact(info.Supply)
		if info.MaxSupply > 0 {
			supply += " of " + formatCompact(info.MaxSupply)
		}
		row("Supply", supply, styles.Text)
	}
	if !a.LastUpdatedAt.IsZero() {
		row("Updated", a.LastUpdatedAt.Local().Format("2006-01-02 15:04:05"), styles.MutedText)
	}
	b.WriteString("\n")
}

func (m Model) renderDetailLinks(b *strings.Builder, styles Styles, bg BgStyle) {
	info := m.detail.info
	if info == nil {
		return
	}
	links := []struct{ label, url string }{
		{"Website", info.Links.Website},
		{"Explorer", info.Links.Explorer},
		{"GitHub", info.Links.GitHub},
	}
	wrote := false
	for _, l := range links {
		if strings.TrimSpace(l.url) == "" {
			continue
		}
		b.WriteString(bg.Render(padRight(l.label, 12), styles.MutedText))
		b.WriteString(bg.Render(l.url, styles.InfoText))
		b.WriteString("\n")
		wrote = true
	}
	if wrote {
		b.WriteString("\n")
	}
}

func (m Model) renderConverter(b *strings.Builder, a market.Asset, styles Styles, bg BgStyle) {
	b.WriteString(bg.Render("Converter", styles.AccentText.Bold(true)))
	b.WriteString("\n")
	b.WriteString(bg.Render(padRight("Amount", 12), styles.MutedText))
	b.WriteString(m.detail.amountInput.View())
	b.WriteString(bg.Render(" = ", styles.FaintText))
	value := convert.Amount(m.detail.amountInput.Value(), a, m.detail.currency)
	b.WriteString(bg.Render(convert.Format(value, m.detail.currency), styles.Text.Bold(true)))
	b.WriteString("\n")
	hint := "c edit amount · C switch currency"
	if m.detail.amountInput.Focused() {
		hint = "enter/esc done"
	}
	b.WriteString(bg.Render(hint, styles.FaintText))
	b.WriteString("\n\n")
}

func (m Model) renderHistory(b *strings.Builder, width int, styles Styles, bg BgStyle) {
	title := fmt.Sprintf("History (%dd", m.config.HistoryDays)
	if m.detail.source != "" {
		title += ", " + m.detail.source
	}
	title += ")"
	b.WriteString(bg.Render(title, styles.AccentText.Bold(true)))
	b.WriteString("\n")

	switch {
	case m.detail.historyLoading:
		b.WriteString(bg.Render("Loading history...", styles.MutedText))
		return
	case len(m.detail.history) == 0 && m.detail.historyErr != nil:
		b.WriteString(bg.Render("History unavailable: "+m.detail.historyErr.Error(), styles.WarningText))
		return
	case len(m.detail.history) == 0:
		b.WriteString(bg.Render("No history available", styles.MutedText))
		return
	}

	chartWidth := min(maxInt(width-2, 1), ChartMaxWidth)
	lo, hi := m.detail.history[0], m.detail.history[0]
	for _, v := range m.detail.history {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	color := m.theme.ChangeColor(m.detail.history[len(m.detail.history)-1] - m.detail.history[0])
	chartStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(color))

	b.WriteString(bg.Render("high "+formatPrice(hi), styles.FaintText))
	b.WriteString("\n")
	for _, line := range renderChart(m.detail.history, chartWidth, ChartHeight) {
		b.WriteString(bg.Render(line, chartStyle))
		b.WriteString("\n")
	}
	b.WriteString(bg.Render("low  "+formatPrice(lo), styles.FaintText))
}
