package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/five82/coindeck/internal/reconcile"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL {
		t.Fatalf("APIURL = %q, want %q", cfg.APIURL, defaultAPIURL)
	}
	if cfg.RequestTimeout() != 10*time.Second || cfg.DefaultInterval() != 300*time.Second {
		t.Fatalf("timeouts = %v/%v, want 10s/300s", cfg.RequestTimeout(), cfg.DefaultInterval())
	}
	if cfg.Policy() != reconcile.PolicyMerge || cfg.StickySort {
		t.Fatalf("policy=%q sticky=%v, want merge/false", cfg.Policy(), cfg.StickySort)
	}
	if cfg.HistoryDays != 30 {
		t.Fatalf("HistoryDays = %d, want 30", cfg.HistoryDays)
	}

	wantLog, err := expandPath(defaultLogPath)
	if err != nil {
		t.Fatalf("expandPath(defaultLogPath) returned error: %v", err)
	}
	if cfg.Log.Path != wantLog || cfg.Log.Level != "info" {
		t.Fatalf("Log = %#v, want path %q level info", cfg.Log, wantLog)
	}
	if !strings.HasPrefix(cfg.ExportDir, home) || !strings.HasPrefix(cfg.Journal.Path, home) {
		t.Fatalf("paths not expanded under HOME: export=%q journal=%q", cfg.ExportDir, cfg.Journal.Path)
	}
	if cfg.Cache.Enabled || cfg.Cache.Addr != defaultCacheAddr || cfg.CacheTTL() != time.Hour {
		t.Fatalf("Cache = %#v, want disabled with defaults", cfg.Cache)
	}
	if !cfg.Journal.Enabled {
		t.Fatalf("journal should be enabled by default")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	path := writeConfig(t, `
api_url = "  http://10.0.0.5:9999/api  "
request_timeout_seconds = 3
default_interval_seconds = 45
favorite_policy = "Server"
sticky_sort = true
export_dir = "~/exports"
history_days = 7

[log]
path = "~/logs/cd.log"
level = "DEBUG"

[cache]
enabled = true
addr = "redis:6380"
db = 2
ttl_seconds = 60
key = "custom"

[journal]
enabled = false
path = "/tmp/j.db"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://10.0.0.5:9999/api" {
		t.Fatalf("APIURL = %q", cfg.APIURL)
	}
	if cfg.RequestTimeout() != 3*time.Second || cfg.DefaultInterval() != 45*time.Second {
		t.Fatalf("durations = %v/%v", cfg.RequestTimeout(), cfg.DefaultInterval())
	}
	if cfg.Policy() != reconcile.PolicyServer || !cfg.StickySort {
		t.Fatalf("policy=%q sticky=%v", cfg.Policy(), cfg.StickySort)
	}
	if cfg.ExportDir != filepath.Join(home, "exports") {
		t.Fatalf("ExportDir = %q", cfg.ExportDir)
	}
	if cfg.Log.Level != "debug" || cfg.Log.Path != filepath.Join(home, "logs/cd.log") {
		t.Fatalf("Log = %#v", cfg.Log)
	}
	if !cfg.Cache.Enabled || cfg.Cache.Addr != "redis:6380" || cfg.Cache.DB != 2 || cfg.CacheTTL() != time.Minute || cfg.Cache.Key != "custom" {
		t.Fatalf("Cache = %#v", cfg.Cache)
	}
	if cfg.Journal.Enabled || cfg.Journal.Path != "/tmp/j.db" {
		t.Fatalf("Journal = %#v", cfg.Journal)
	}
}

func TestLoad_NonPositiveValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load(writeConfig(t, `
api_url = "   "
request_timeout_seconds = 0
default_interval_seconds = -1
history_days = 0
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != defaultAPIURL || cfg.RequestTimeoutSeconds != 10 ||
		cfg.DefaultIntervalSeconds != 300 || cfg.HistoryDays != 30 {
		t.Fatalf("cfg = %#v, want defaults", cfg)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("COINDECK_API_URL", "http://env:1/api")
	t.Setenv("COINDECK_STICKY_SORT", "true")
	t.Setenv("COINDECK_CACHE_ADDR", "cache:6379")
	t.Setenv("COINDECK_CACHE_ENABLED", "1")
	t.Setenv("COINDECK_LOG_LEVEL", "warn")

	cfg, err := Load(writeConfig(t, `
api_url = "http://file:2/api"
history_days = 9
`))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIURL != "http://env:1/api" {
		t.Fatalf("APIURL = %q, want env override", cfg.APIURL)
	}
	if cfg.HistoryDays != 9 {
		t.Fatalf("HistoryDays = %d, unset env must keep file value", cfg.HistoryDays)
	}
	if !cfg.StickySort || !cfg.Cache.Enabled || cfg.Cache.Addr != "cache:6379" || cfg.Log.Level != "warn" {
		t.Fatalf("env overrides not applied: %#v", cfg)
	}
}

func TestLoad_DotEnvFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, ".env"), []byte("COINDECK_HISTORY_DAYS=90\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	t.Chdir(dir)
	t.Setenv("COINDECK_HISTORY_DAYS", "")
	os.Unsetenv("COINDECK_HISTORY_DAYS")

	cfg, err := Load(filepath.Join(dir, "missing.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.HistoryDays != 90 {
		t.Fatalf("HistoryDays = %d, want 90 from .env", cfg.HistoryDays)
	}
}

func TestLoad_InvalidPolicyFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(writeConfig(t, `favorite_policy = "client"`))
	if err == nil || !strings.Contains(err.Error(), "favorite_policy") {
		t.Fatalf("Load error = %v, want favorite_policy error", err)
	}
}

func TestLoad_InvalidLevelFails(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	_, err := Load(writeConfig(t, "[log]\nlevel = \"loud\"\n"))
	if err == nil || !strings.Contains(err.Error(), "log.level") {
		t.Fatalf("Load error = %v, want log.level error", err)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	_, err := Load(writeConfig(t, `api_url = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := ExpandPath("~/a/b")
	if err != nil {
		t.Fatalf("ExpandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("ExpandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}
