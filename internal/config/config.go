// Package config loads runtime settings from environment variables and an
// optional .env file.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config holds all configuration for the janitor daemon and the one-shot CLI.
type Config struct {
	// CDP connection settings
	CDPAddress string
	CDPPort    int

	// HTTP API
	BindAddr string

	// Storage
	DataDir          string
	JournalMaxSizeMB int

	// Dedup behavior
	InternalPrefixes []string

	// Browser lifecycle
	LaunchBrowser bool
	BrowserBinary string

	// Notifications; empty disables them.
	NtfyEndpoint string

	// Logging
	LogLevel string
	LogFile  string
}

// Load reads configuration from environment variables and optional .env file.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		slog.Debug("failed to load .env file", "error", err)
	}

	cfg := &Config{
		CDPAddress:       getEnvOrDefault("CHROMIUM_CDP_ADDRESS", "127.0.0.1"),
		CDPPort:          getEnvIntOrDefault("CHROMIUM_CDP_PORT", 9222),
		BindAddr:         getEnvOrDefault("JANITOR_BIND_ADDR", "127.0.0.1:8199"),
		DataDir:          getEnvOrDefault("JANITOR_DATA_DIR", "./janitor_data"),
		JournalMaxSizeMB: getEnvIntOrDefault("JANITOR_JOURNAL_MAX_SIZE_MB", 10),
		LaunchBrowser:    getEnvBoolOrDefault("JANITOR_LAUNCH_BROWSER", false),
		BrowserBinary:    getEnvOrDefault("JANITOR_BROWSER_BINARY", ""),
		NtfyEndpoint:     getEnvOrDefault("JANITOR_NTFY_ENDPOINT", ""),
		LogLevel:         strings.ToLower(getEnvOrDefault("JANITOR_LOG_LEVEL", "info")),
		LogFile:          getEnvOrDefault("JANITOR_LOG_FILE", "logs/janitor.log"),
	}

	if raw := os.Getenv("JANITOR_INTERNAL_PREFIXES"); raw != "" {
		for _, p := range strings.Split(raw, ",") {
			if p = strings.TrimSpace(p); p != "" {
				cfg.InternalPrefixes = append(cfg.InternalPrefixes, p)
			}
		}
	}

	return cfg, nil
}

// CDPURL returns the CDP HTTP endpoint.
func (c *Config) CDPURL() string {
	return fmt.Sprintf("http://%s:%d", c.CDPAddress, c.CDPPort)
}

// RulesPath is the rule store location under DataDir.
func (c *Config) RulesPath() string { return filepath.Join(c.DataDir, "rules.json") }

// BatchPath is the closed-batch slot location under DataDir.
func (c *Config) BatchPath() string { return filepath.Join(c.DataDir, "batch.json") }

// JournalPath is the sweep journal location under DataDir.
func (c *Config) JournalPath() string { return filepath.Join(c.DataDir, "sweeps.jsonl") }

func getEnvOrDefault(key, defaultVal string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return defaultVal
}

func getEnvIntOrDefault(key string, defaultVal int) int {
	if val := os.Getenv(key); val != "" {
		if i, err := strconv.Atoi(val); err == nil {
			return i
		}
	}
	return defaultVal
}

func getEnvBoolOrDefault(key string, defaultVal bool) bool {
	if val := os.Getenv(key); val != "" {
		if b, err := strconv.ParseBool(val); err == nil {
			return b
		}
	}
	return defaultVal
}
