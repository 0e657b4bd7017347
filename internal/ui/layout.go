package ui

import "time"

// Terminal width thresholds for responsive layouts.
const (
	// LayoutCompactWidth is the threshold below which compact mode is used.
	LayoutCompactWidth = 100

	// LayoutVolumeWidth is the minimum width to show the volume column.
	LayoutVolumeWidth = 110

	// LayoutTrendWidth is the minimum width to show the 7d trend column.
	LayoutTrendWidth = 130
)

// Log display limits.
const (
	// LogTailLines is the number of log lines read for the log view.
	LogTailLines = 2000
)

// Chart dimensions in the detail view.
const (
	ChartHeight   = 8
	ChartMaxWidth = 90
)

// Timing constants.
const (
	// DefaultUIInterval is the redraw tick for relative timestamps and log follow.
	DefaultUIInterval = time.Second

	// ActionTimeout bounds every backend call started from a key press.
	ActionTimeout = 10 * time.Second
)
