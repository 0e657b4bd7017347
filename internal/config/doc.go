// Package config loads the coindeck configuration.
//
// # Resolution Order
//
//  1. Built-in defaults (Default)
//  2. TOML file: the -config path, else ~/.config/coindeck/config.toml
//  3. .env in the working directory, loaded with godotenv (never overrides
//     variables already set)
//  4. COINDECK_* environment variables, parsed with caarlos0/env
//
// A missing file is not an error. Invalid TOML, an unknown favorite_policy, or
// an unknown log level is.
//
// # TOML Format
//
//	api_url = "https://localhost:7215/api"
//	request_timeout_seconds = 10
//	default_interval_seconds = 300
//	favorite_policy = "merge"   # or "server"
//	sticky_sort = false
//	export_dir = "~/Downloads"
//	history_days = 30
//
//	[log]
//	path = "~/.local/state/coindeck/coindeck.log"
//	level = "info"
//
//	[cache]
//	enabled = false
//	addr = "localhost:6379"
//	ttl_seconds = 3600
//	key = "coindeck:assets"
//
//	[journal]
//	enabled = true
//	path = "~/.local/state/coindeck/journal.db"
//
// Environment names follow the TOML keys: COINDECK_API_URL,
// COINDECK_LOG_LEVEL, COINDECK_CACHE_ADDR, COINDECK_JOURNAL_ENABLED, and so on.
//
// Non-positive numbers fall back to their defaults, and every path has a
// leading ~ expanded and is made absolute.
package config
