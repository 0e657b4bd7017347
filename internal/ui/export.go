package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/five82/coindeck/internal/coinapi"
	"github.com/five82/coindeck/internal/exportfile"
)

type exportDoneMsg struct {
	path string
	err  error
}

// exportCmd asks the backend for an export and saves it under the export dir.
func (m Model) exportCmd(scope coinapi.ExportScope) tea.Cmd {
	if m.api == nil {
		return nil
	}
	ctx, api, logger := m.ctx, m.api, m.logger
	format := m.exportFormat
	dir := m.config.ExportDir
	now := m.now()
	return func() tea.Msg {
		callCtx, cancel := context.WithTimeout(ctx, ActionTimeout)
		defer cancel()
		data, err := api.Export(callCtx, scope, format)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		path, err := exportfile.Write(dir, string(scope), string(format), data, now)
		if err != nil {
			return exportDoneMsg{err: err}
		}
		logger.Info("export saved",
			zap.String("scope", string(scope)),
			zap.String("format", string(format)),
			zap.String("path", path),
			zap.Int("bytes", len(data)),
		)
		return exportDoneMsg{path: path}
	}
}
