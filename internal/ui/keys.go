package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines all keyboard bindings for the application.
type keyMap struct {
	// Global
	Quit       key.Binding
	Help       key.Binding
	CycleTheme key.Binding
	Escape     key.Binding
	Refresh    key.Binding

	// View switching
	ViewAlerts key.Binding
	ViewLogs   key.Binding
	Open       key.Binding

	// Market actions
	Search          key.Binding
	CycleVariation  key.Binding
	ToggleFavOnly   key.Binding
	CycleSort       key.Binding
	ToggleFavorite  key.Binding
	Compare         key.Binding
	ExportFavorites key.Binding
	ExportAll       key.Binding
	ExportFormat    key.Binding

	// Detail actions
	FocusAmount   key.Binding
	CycleCurrency key.Binding
	NewAlert      key.Binding

	// Alerts actions
	DeleteAlert key.Binding

	// Logs actions
	ToggleFollow key.Binding

	// Navigation
	Up           key.Binding
	Down         key.Binding
	Top          key.Binding
	Bottom       key.Binding
	HalfPageUp   key.Binding
	HalfPageDown key.Binding

	// Input
	Confirm key.Binding
}

// DefaultKeyMap returns the default key bindings.
func DefaultKeyMap() keyMap {
	return keyMap{
		Quit: key.NewBinding(
			key.WithKeys("ctrl+c", "e"),
			key.WithHelp("e", "Quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("h", "?"),
			key.WithHelp("h/?", "Toggle help"),
		),
		CycleTheme: key.NewBinding(
			key.WithKeys("T"),
			key.WithHelp("T", "Cycle theme"),
		),
		Escape: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "Back to market"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "Refresh now"),
		),

		ViewAlerts: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "Alerts"),
		),
		ViewLogs: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "Logs"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Asset detail"),
		),

		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "Search"),
		),
		CycleVariation: key.NewBinding(
			key.WithKeys("f"),
			key.WithHelp("f", "Cycle gainers/losers"),
		),
		ToggleFavOnly: key.NewBinding(
			key.WithKeys("*"),
			key.WithHelp("*", "Favorites only"),
		),
		CycleSort: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "Cycle sort"),
		),
		ToggleFavorite: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle favorite"),
		),
		Compare: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "Compare with..."),
		),
		ExportFavorites: key.NewBinding(
			key.WithKeys("x"),
			key.WithHelp("x", "Export favorites"),
		),
		ExportAll: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "Export all"),
		),
		ExportFormat: key.NewBinding(
			key.WithKeys("E"),
			key.WithHelp("E", "Toggle csv/json"),
		),

		FocusAmount: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "Convert amount"),
		),
		CycleCurrency: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "USD/local"),
		),
		NewAlert: key.NewBinding(
			key.WithKeys("A"),
			key.WithHelp("A", "New alert"),
		),

		DeleteAlert: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "Delete alert"),
		),

		ToggleFollow: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "Toggle follow"),
		),

		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/up", "Move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/down", "Move down"),
		),
		Top: key.NewBinding(
			key.WithKeys("g", "home"),
			key.WithHelp("g", "Go to top"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G", "end"),
			key.WithHelp("G", "Go to bottom"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u", "pgup"),
			key.WithHelp("ctrl+u", "Half page up"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d", "pgdown"),
			key.WithHelp("ctrl+d", "Half page down"),
		),

		Confirm: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "Confirm"),
		),
	}
}

// ShortHelp returns key bindings for the short help view.
func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Open, k.ViewAlerts, k.ViewLogs, k.Escape},
		{k.Up, k.Down, k.Top, k.Bottom, k.HalfPageDown, k.HalfPageUp},
		{k.Search, k.CycleVariation, k.ToggleFavOnly, k.CycleSort, k.ToggleFavorite, k.Compare, k.Refresh},
		{k.ExportFavorites, k.ExportAll, k.ExportFormat},
		{k.FocusAmount, k.CycleCurrency, k.NewAlert, k.DeleteAlert},
		{k.CycleTheme, k.Help, k.Quit},
	}
}
