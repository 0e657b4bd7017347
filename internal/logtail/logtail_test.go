package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"
)

func TestRead(t *testing.T) {
	tmpDir := t.TempDir()
	logPath := filepath.Join(tmpDir, "test.log")

	var content strings.Builder
	var expectedAll []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		expectedAll = append(expectedAll, line)
	}

	if err := os.WriteFile(logPath, []byte(content.String()), 0644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{name: "read all (0)", maxLines: 0, expected: expectedAll},
		{name: "read all (negative)", maxLines: -1, expected: expectedAll},
		{name: "read partial (5)", maxLines: 5, expected: expectedAll[5:]},
		{name: "read exactly all (10)", maxLines: 10, expected: expectedAll},
		{name: "read more than exists (20)", maxLines: 20, expected: expectedAll},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_MissingFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "nope.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read() = %v, %v; want nil, nil", got, err)
	}
}

func TestParse_ZapLine(t *testing.T) {
	line := `{"level":"warn","time":"2026-10-19T10:00:00.5Z","caller":"reconcile/engine.go:88","message":"refresh failed","component":"reconcile","failures":2,"stale":true}`

	got := Parse(line)
	if got.Level != "WARN" || got.Message != "refresh failed" {
		t.Fatalf("Parse() level/message = %q/%q", got.Level, got.Message)
	}
	want := time.Date(2026, 10, 19, 10, 0, 0, 500_000_000, time.UTC)
	if !got.Time.Equal(want) {
		t.Fatalf("Parse() time = %v, want %v", got.Time, want)
	}
	wantFields := []Field{
		{Key: "component", Value: "reconcile"},
		{Key: "failures", Value: "2"},
		{Key: "stale", Value: "true"},
	}
	if !reflect.DeepEqual(got.Fields, wantFields) {
		t.Fatalf("Parse() fields = %#v, want %#v", got.Fields, wantFields)
	}
	if got.Raw != line {
		t.Fatalf("Parse() raw not preserved")
	}
}

func TestParse_PlainText(t *testing.T) {
	for _, line := range []string{"panic: boom", "{not json"} {
		got := Parse(line)
		if got.Message != line || got.Level != "" || !got.Time.IsZero() || len(got.Fields) != 0 {
			t.Fatalf("Parse(%q) = %#v, want verbatim message", line, got)
		}
	}
}

func TestReadEntries_SkipsBlankLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.log")
	body := `{"level":"info","time":"2026-10-19T10:00:00Z","message":"one"}` + "\n\n" +
		`{"level":"error","time":"2026-10-19T10:00:01Z","message":"two","error":"boom"}` + "\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	entries, err := ReadEntries(path, 0)
	if err != nil {
		t.Fatalf("ReadEntries() error = %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("ReadEntries() = %d entries, want 2", len(entries))
	}
	if entries[1].Level != "ERROR" || entries[1].Fields[0] != (Field{Key: "error", Value: "boom"}) {
		t.Fatalf("second entry = %#v", entries[1])
	}
}
