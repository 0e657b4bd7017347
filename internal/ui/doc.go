// Package ui is the coindeck terminal interface, built on Bubble Tea.
//
// # Views
//
//   - Market: the filtered, sorted asset table with favorites and 7-day sparklines
//   - Detail: one asset with links, a converter and a price history chart
//   - Alerts: price alerts stored by the backend
//   - Logs: the tail of the coindeck log file
//
// # Data Flow
//
// The Model never fetches the asset list itself. It waits on state.Store
// change notifications and re-derives its table through view.List, so the
// poller, favorite toggles and cache warm-up all reach the screen the same
// way. One-shot requests (detail, history, alerts, export, movers) run as
// tea.Cmd functions with ActionTimeout and report back as messages.
//
// Favorite toggles go through the Favorites interface, which applies the
// change optimistically and rolls it back when the backend refuses.
package ui
