// Package exportfile saves backend export payloads to disk.
package exportfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

const stampLayout = "20060102-150405"

// Name returns the file name for an export taken at now.
func Name(scope, format string, now time.Time) string {
	return fmt.Sprintf("coindeck-%s-%s.%s", scope, now.UTC().Format(stampLayout), format)
}

// Write stores data in dir under Name and returns the full path. An
// existing file is never overwritten; a numeric suffix is added instead.
func Write(dir, scope, format string, data []byte, now time.Time) (string, error) {
	if strings.TrimSpace(scope) == "" || strings.TrimSpace(format) == "" {
		return "", fmt.Errorf("export scope and format are required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create export dir: %w", err)
	}

	name := Name(scope, format, now)
	base := strings.TrimSuffix(name, "."+format)
	for i := 0; i < 100; i++ {
		candidate := name
		if i > 0 {
			candidate = fmt.Sprintf("%s-%d.%s", base, i, format)
		}
		path := filepath.Join(dir, candidate)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("create export file: %w", err)
		}
		if _, err := f.Write(data); err != nil {
			_ = f.Close()
			return "", fmt.Errorf("write export file: %w", err)
		}
		if err := f.Close(); err != nil {
			return "", fmt.Errorf("close export file: %w", err)
		}
		return path, nil
	}
	return "", fmt.Errorf("export file %s: too many name collisions", name)
}
