package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/shopspring/decimal"

	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/convert"
)

// alertsState holds the price alert list.
type alertsState struct {
	items    []coinapi.Alert
	selected int
	loading  bool
	err      error
}

type alertsMsg struct {
	items []coinapi.Alert
	err   error
}

type alertCreatedMsg struct {
	alert coinapi.Alert
	err   error
}

type alertDeletedMsg struct {
	id  string
	err error
}

func listAlertsCmd(ctx context.Context, api coinapi.API) tea.Cmd {
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		items, err := api.ListAlerts(callCtx)
		return alertsMsg{items: items, err: err}
	}
}

func deleteAlertCmd(ctx context.Context, api coinapi.API, id string) tea.Cmd {
	if api == nil {
		return nil
	}
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		return alertDeletedMsg{id: id, err: api.DeleteAlert(callCtx, id)}
	}
}

// createAlertCmd creates an alert at the typed target. The alert fires above
// the target when it is over the current price and below it otherwise.
func createAlertCmd(ctx context.Context, api coinapi.API, id, input string, current float64) tea.Cmd {
	if api == nil {
		return nil
	}
	target := convert.ParseAmount(input)
	return func() tea.Msg {
		if !target.IsPositive() {
			return alertCreatedMsg{err: fmt.Errorf("invalid target price %q", input)}
		}
		cond := coinapi.ConditionBelow
		if target.GreaterThan(decimal.NewFromFloat(current)) {
			cond = coinapi.ConditionAbove
		}
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		alert, err := api.CreateAlert(callCtx, id, target.InexactFloat64(), cond)
		return alertCreatedMsg{alert: alert, err: err}
	}
}

func (m *Model) handleAlerts(msg alertsMsg) {
	m.alerts.loading = false
	m.alerts.err = msg.err
	if msg.err != nil {
		return
	}
	m.alerts.items = msg.items
	if m.alerts.selected >= len(msg.items) {
		m.alerts.selected = max(len(msg.items)-1, 0)
	}
}

// handleAlertsKey processes keyboard input for the alerts view.
func (m Model) handleAlertsKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	count := len(m.alerts.items)
	switch {
	case key.Matches(msg, m.keys.DeleteAlert):
		if count == 0 {
			return m, nil
		}
		return m, deleteAlertCmd(m.ctx, m.api, m.alerts.items[m.alerts.selected].ID)
	case key.Matches(msg, m.keys.Down):
		if m.alerts.selected < count-1 {
			m.alerts.selected++
		}
	case key.Matches(msg, m.keys.Up):
		if m.alerts.selected > 0 {
			m.alerts.selected--
		}
	case key.Matches(msg, m.keys.Top):
		m.alerts.selected = 0
	case key.Matches(msg, m.keys.Bottom):
		m.alerts.selected = max(count-1, 0)
	}
	return m, nil
}

func describeAlert(a coinapi.Alert) string {
	return fmt.Sprintf("%s %s %s USD", a.CryptoID, a.Condition, formatPrice(a.TargetPrice))
}

// alertName prefers the display name of a known asset.
func (m Model) alertName(a coinapi.Alert) string {
	if asset, ok := m.store.Lookup(a.CryptoID); ok && asset.DisplayName != "" {
		return asset.DisplayName
	}
	return a.CryptoID
}

// renderAlerts renders the alert list.
func (m Model) renderAlerts() string {
	height := m.contentHeight()
	width := m.width - 2
	bgColor := m.theme.FocusBg
	bg := NewBgStyle(bgColor)
	styles := m.theme.Styles()
	title := fmt.Sprintf("Alerts (%d)", len(m.alerts.items))

	var content string
	switch {
	case m.alerts.loading && len(m.alerts.items) == 0:
		content = bg.Render("Loading alerts...", styles.MutedText)
	case m.alerts.err != nil && len(m.alerts.items) == 0:
		content = bg.Render("Alerts unavailable: "+m.alerts.err.Error(), styles.DangerText)
	case len(m.alerts.items) == 0:
		content = bg.Render("No alerts. Open an asset and press A to add one.", styles.MutedText)
	default:
		nameWidth := maxInt(width-60, 12)
		header := padRight("Asset", nameWidth) + " " + padRight("When", 6) + " " +
			padLeft("Target (USD)", 16) + " " + padRight(" Status", 11) + " " + "Created"
		lines := []string{bg.FillLine(bg.Render(header, styles.FaintText.Bold(true)), width)}

		visible := maxInt(height-3, 1)
		offset := 0
		if m.alerts.selected >= visible {
			offset = m.alerts.selected - visible + 1
		}
		end := min(offset+visible, len(m.alerts.items))
		for i := offset; i < end; i++ {
			a := m.alerts.items[i]
			selected := i == m.alerts.selected
			rowBg := NewBgStyle(ternary(selected, m.theme.SelectionBg, bgColor))
			text := styles.Text
			status := styles.StatusStyle("pending")
			statusText := "watching"
			if a.Triggered {
				status = styles.StatusStyle("up")
				statusText = "triggered"
			}
			if selected {
				text = styles.Selected
			}
			row := rowBg.Render(padRight(truncate(m.alertName(a), nameWidth), nameWidth), text) + rowBg.Space() +
				rowBg.Render(padRight(string(a.Condition), 6), text) + rowBg.Space() +
				rowBg.Render(padLeft(formatPrice(a.TargetPrice), 16), text) + rowBg.Space() +
				rowBg.Space() + status.Render(padRight(statusText, 10)) + rowBg.Space() +
				rowBg.Render(formatCreated(a.CreatedAt), text)
			lines = append(lines, rowBg.FillLine(row, width))
		}
		content = strings.Join(lines, "\n")
	}
	return m.renderTitledBox(title, content, m.width, height, true)
}

// formatCreated shows a parseable creation time in local time and anything
// else verbatim.
func formatCreated(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Local().Format("2006-01-02 15:04")
		}
	}
	return raw
}
