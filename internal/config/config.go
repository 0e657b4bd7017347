package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/coindeck/internal/reconcile"
)

// Config is the coindeck runtime configuration.
type Config struct {
	APIURL                 string        `toml:"api_url" env:"API_URL"`
	RequestTimeoutSeconds  int           `toml:"request_timeout_seconds" env:"REQUEST_TIMEOUT_SECONDS"`
	DefaultIntervalSeconds int           `toml:"default_interval_seconds" env:"DEFAULT_INTERVAL_SECONDS"`
	FavoritePolicy         string        `toml:"favorite_policy" env:"FAVORITE_POLICY"`
	StickySort             bool          `toml:"sticky_sort" env:"STICKY_SORT"`
	ExportDir              string        `toml:"export_dir" env:"EXPORT_DIR"`
	HistoryDays            int           `toml:"history_days" env:"HISTORY_DAYS"`
	Log                    LogConfig     `toml:"log" envPrefix:"LOG_"`
	Cache                  CacheConfig   `toml:"cache" envPrefix:"CACHE_"`
	Journal                JournalConfig `toml:"journal" envPrefix:"JOURNAL_"`
}

// LogConfig controls the zap file logger.
type LogConfig struct {
	Path  string `toml:"path" env:"PATH"`
	Level string `toml:"level" env:"LEVEL"`
}

// CacheConfig controls the redis snapshot cache.
type CacheConfig struct {
	Enabled    bool   `toml:"enabled" env:"ENABLED"`
	Addr       string `toml:"addr" env:"ADDR"`
	Password   string `toml:"password" env:"PASSWORD"`
	DB         int    `toml:"db" env:"DB"`
	TTLSeconds int    `toml:"ttl_seconds" env:"TTL_SECONDS"`
	Key        string `toml:"key" env:"KEY"`
}

// JournalConfig controls the local sqlite price journal.
type JournalConfig struct {
	Enabled bool   `toml:"enabled" env:"ENABLED"`
	Path    string `toml:"path" env:"PATH"`
}

const (
	EnvPrefix = "COINDECK_"

	defaultConfigPath      = "~/.config/coindeck/config.toml"
	defaultAPIURL          = "https://localhost:7215/api"
	defaultRequestTimeout  = 10
	defaultIntervalSeconds = 300
	defaultExportDir       = "~/Downloads"
	defaultHistoryDays     = 30
	defaultLogPath         = "~/.local/state/coindeck/coindeck.log"
	defaultLogLevel        = "info"
	defaultCacheAddr       = "localhost:6379"
	defaultCacheTTL        = 3600
	defaultCacheKey        = "coindeck:assets"
	defaultJournalPath     = "~/.local/state/coindeck/journal.db"
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		APIURL:                 defaultAPIURL,
		RequestTimeoutSeconds:  defaultRequestTimeout,
		DefaultIntervalSeconds: defaultIntervalSeconds,
		FavoritePolicy:         string(reconcile.PolicyMerge),
		ExportDir:              defaultExportDir,
		HistoryDays:            defaultHistoryDays,
		Log:                    LogConfig{Path: defaultLogPath, Level: defaultLogLevel},
		Cache: CacheConfig{
			Addr:       defaultCacheAddr,
			TTLSeconds: defaultCacheTTL,
			Key:        defaultCacheKey,
		},
		Journal: JournalConfig{Enabled: true, Path: defaultJournalPath},
	}
}

// Load reads the TOML config at path (or the default location), then applies
// COINDECK_* environment overrides, including any from a .env file in the
// working directory. A missing file is not an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	if err := readFile(resolved, &cfg); err != nil {
		return Config{}, err
	}

	// Values already in the environment win over .env.
	_ = godotenv.Load()
	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}

	if err := cfg.normalize(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func readFile(path string, cfg *Config) error {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	if err := toml.Unmarshal(bytes, cfg); err != nil {
		return fmt.Errorf("parse config: %w", err)
	}
	return nil
}

func (c *Config) normalize() error {
	c.APIURL = strings.TrimSpace(c.APIURL)
	if c.APIURL == "" {
		c.APIURL = defaultAPIURL
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = defaultRequestTimeout
	}
	if c.DefaultIntervalSeconds <= 0 {
		c.DefaultIntervalSeconds = defaultIntervalSeconds
	}
	if c.HistoryDays <= 0 {
		c.HistoryDays = defaultHistoryDays
	}

	policy, err := reconcile.ParsePolicy(strings.ToLower(strings.TrimSpace(c.FavoritePolicy)))
	if err != nil {
		return fmt.Errorf("config favorite_policy: %w", err)
	}
	c.FavoritePolicy = string(policy)

	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	switch c.Log.Level {
	case "":
		c.Log.Level = defaultLogLevel
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("config log.level: unknown level %q", c.Log.Level)
	}

	c.Cache.Addr = strings.TrimSpace(c.Cache.Addr)
	if c.Cache.Addr == "" {
		c.Cache.Addr = defaultCacheAddr
	}
	if c.Cache.TTLSeconds <= 0 {
		c.Cache.TTLSeconds = defaultCacheTTL
	}
	if strings.TrimSpace(c.Cache.Key) == "" {
		c.Cache.Key = defaultCacheKey
	}

	c.ExportDir = expandOr(c.ExportDir, defaultExportDir)
	c.Log.Path = expandOr(c.Log.Path, defaultLogPath)
	c.Journal.Path = expandOr(c.Journal.Path, defaultJournalPath)
	return nil
}

// RequestTimeout is the per-request HTTP timeout.
func (c Config) RequestTimeout() time.Duration {
	return time.Duration(c.RequestTimeoutSeconds) * time.Second
}

// DefaultInterval is the refresh period used when the backend cannot say.
func (c Config) DefaultInterval() time.Duration {
	return time.Duration(c.DefaultIntervalSeconds) * time.Second
}

// CacheTTL is how long a cached asset list stays in redis.
func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// Policy returns the validated favorite policy.
func (c Config) Policy() reconcile.FavoritePolicy {
	p, err := reconcile.ParsePolicy(c.FavoritePolicy)
	if err != nil {
		return reconcile.PolicyMerge
	}
	return p
}

func expandOr(path, fallback string) string {
	if strings.TrimSpace(path) == "" {
		path = fallback
	}
	return mustExpand(path)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

// ExpandPath resolves a leading ~ and makes path absolute.
func ExpandPath(path string) (string, error) {
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
