// Package prefs handles coindeck user preferences persistence.
// Preferences are stored in ~/.config/coindeck/prefs.toml.
package prefs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
)

// Prefs holds the UI choices that survive restarts.
type Prefs struct {
	Theme         string `toml:"theme"`
	Sort          string `toml:"sort"`
	Variation     string `toml:"variation"`
	FavoritesOnly bool   `toml:"favorites_only"`
	Currency      string `toml:"currency"`
	ExportFormat  string `toml:"export_format"`
}

const (
	defaultPrefsPath    = "~/.config/coindeck/prefs.toml"
	defaultTheme        = "Dracula"
	defaultVariation    = "all"
	defaultCurrency     = "usd"
	defaultExportFormat = "csv"
)

// Default returns the preferences used when nothing is stored.
func Default() Prefs {
	return Prefs{
		Theme:        defaultTheme,
		Variation:    defaultVariation,
		Currency:     defaultCurrency,
		ExportFormat: defaultExportFormat,
	}
}

// DefaultPath returns the default preferences file path.
func DefaultPath() string {
	return defaultPrefsPath
}

// Load reads preferences from the given path, falling back to defaults if missing.
func Load(path string) (Prefs, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Default(), nil
	}

	prefs := Default()

	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return prefs, nil
		}
		return prefs, nil // Graceful degradation
	}
	defer func() { _ = file.Close() }()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return prefs, nil // Graceful degradation
	}

	if err := toml.Unmarshal(bytes, &prefs); err != nil {
		return Default(), nil // Graceful degradation
	}

	prefs.fill()
	return prefs, nil
}

func (p *Prefs) fill() {
	d := Default()
	if strings.TrimSpace(p.Theme) == "" {
		p.Theme = d.Theme
	}
	if strings.TrimSpace(p.Variation) == "" {
		p.Variation = d.Variation
	}
	switch strings.ToLower(strings.TrimSpace(p.Currency)) {
	case "usd", "local":
		p.Currency = strings.ToLower(strings.TrimSpace(p.Currency))
	default:
		p.Currency = d.Currency
	}
	switch strings.ToLower(strings.TrimSpace(p.ExportFormat)) {
	case "csv", "json":
		p.ExportFormat = strings.ToLower(strings.TrimSpace(p.ExportFormat))
	default:
		p.ExportFormat = d.ExportFormat
	}
}

// Save writes preferences to the given path, creating directories as needed.
func Save(path string, p Prefs) error {
	resolved, err := resolvePath(path)
	if err != nil {
		return fmt.Errorf("resolve path: %w", err)
	}

	dir := filepath.Dir(resolved)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create prefs dir: %w", err)
	}

	bytes, err := toml.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal prefs: %w", err)
	}

	if err := os.WriteFile(resolved, bytes, 0o644); err != nil {
		return fmt.Errorf("write prefs: %w", err)
	}

	return nil
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultPrefsPath)
	}
	return expandPath(path)
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
