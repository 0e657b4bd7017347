package ui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/five82/coindeck/internal/logtail"
)

const logTimeLayout = "2006-01-02 15:04:05"

// formatLogEntry renders an entry as plain text:
// "2006-01-02 15:04:05 LEVEL message key=value ...".
// Lines that did not parse come back verbatim.
func formatLogEntry(e logtail.Entry) string {
	if e.Time.IsZero() && e.Level == "" {
		return strings.TrimSpace(e.Raw)
	}
	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = "INFO"
	}
	parts := make([]string, 0, 3+len(e.Fields))
	if !e.Time.IsZero() {
		parts = append(parts, e.Time.Local().Format(logTimeLayout))
	}
	parts = append(parts, level)
	if msg := strings.TrimSpace(e.Message); msg != "" {
		parts = append(parts, msg)
	}
	for _, f := range e.Fields {
		parts = append(parts, f.Key+"="+f.Value)
	}
	return strings.Join(parts, " ")
}

// colorizeLogEntry renders an entry with the same layout as formatLogEntry.
func (m Model) colorizeLogEntry(e logtail.Entry, styles Styles, bg BgStyle) string {
	if e.Time.IsZero() && e.Level == "" {
		return bg.Render(strings.TrimSpace(e.Raw), styles.Text)
	}
	level := strings.ToUpper(strings.TrimSpace(e.Level))
	if level == "" {
		level = "INFO"
	}

	var b strings.Builder
	if !e.Time.IsZero() {
		b.WriteString(bg.Render(e.Time.Local().Format(logTimeLayout), styles.FaintText))
		b.WriteString(bg.Space())
	}
	b.WriteString(bg.Render(padRight(level, 5), levelStyle(level, styles).Bold(true)))
	if msg := strings.TrimSpace(e.Message); msg != "" {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(msg, styles.Text))
	}
	for _, f := range e.Fields {
		b.WriteString(bg.Space())
		b.WriteString(bg.Render(f.Key+"=", styles.MutedText))
		b.WriteString(bg.Render(f.Value, styles.AccentText))
	}
	return b.String()
}

// levelStyle returns the style for a log level.
func levelStyle(level string, styles Styles) lipgloss.Style {
	switch level {
	case "INFO":
		return styles.SuccessText
	case "WARN":
		return styles.WarningText
	case "ERROR", "DPANIC", "PANIC", "FATAL":
		return styles.DangerText
	case "DEBUG":
		return styles.InfoText
	default:
		return styles.Text
	}
}
