// Package config contains everything related to configuration
package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/j-veylop/claude-token-tray/internal/stats"
)

// Config holds the application configuration.
type Config struct {
	// StatsPath, DatabasePath and LogPath are empty when the home directory
	// cannot be resolved and the matching variable is unset. History is
	// disabled without a DatabasePath and file logging without a LogPath.
	StatsPath          string
	DatabasePath       string
	LogPath            string
	LogLevel           string
	RefreshInterval    time.Duration
	NotifyThreshold    uint64
	PollWithoutWatcher bool
	HistoryEnabled     bool
}

// Load reads configuration from .env files and environment variables.
func Load() (*Config, error) {
	for _, path := range getEnvPaths() {
		if _, err := os.Stat(path); err == nil {
			_ = godotenv.Load(path)
			break
		}
	}

	cfg := &Config{
		StatsPath:          getEnvString(EnvStatsPath, getDefaultStatsPath()),
		DatabasePath:       getEnvString(EnvDatabasePath, getDefaultDatabasePath()),
		LogPath:            getEnvString(EnvLogPath, getDefaultLogPath()),
		LogLevel:           strings.ToLower(getEnvString(EnvLogLevel, defaultLogLevel)),
		RefreshInterval:    getEnvDuration(EnvRefreshInterval, defaultRefreshInterval),
		NotifyThreshold:    getEnvUint(EnvNotifyThreshold, 0),
		PollWithoutWatcher: getEnvBool(EnvPollWithoutWatcher, true),
		HistoryEnabled:     getEnvBool(EnvHistoryEnabled, true),
	}

	if cfg.RefreshInterval <= 0 {
		cfg.RefreshInterval = defaultRefreshInterval
	}

	if cfg.DatabasePath == "" {
		cfg.HistoryEnabled = false
	}

	if cfg.HistoryEnabled {
		if err := ensureDir(filepath.Dir(cfg.DatabasePath)); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// getEnvPaths returns a list of paths to check for .env files.
func getEnvPaths() []string {
	var paths []string

	if cwd, err := os.Getwd(); err == nil {
		paths = append(paths, filepath.Join(cwd, ".env"))
	}

	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(home, ".config", appDirName, ".env"),
			filepath.Join(home, stats.DirName, appDirName+".env"),
		)
	}

	return paths
}

func getDefaultStatsPath() string {
	path, err := stats.DefaultPath()
	if err != nil {
		return ""
	}
	return path
}

// configDir returns the directory holding the database and log file, or ""
// when the home directory is unknown.
func configDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ""
	}
	return filepath.Join(home, ".config", appDirName)
}

func getDefaultDatabasePath() string {
	return inConfigDir(databaseFileName)
}

func getDefaultLogPath() string {
	return inConfigDir(logFileName)
}

func inConfigDir(name string) string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, name)
}

// getEnvString retrieves a string environment variable or returns the default.
func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvDuration retrieves a duration environment variable or returns the default.
// Accepts values like "30s", "1m", "500ms".
func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		// Try parsing as seconds if no unit specified
		if secs, err := strconv.Atoi(value); err == nil {
			return time.Duration(secs) * time.Second
		}
	}
	return defaultValue
}

// getEnvBool accepts anything strconv.ParseBool does.
func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

// getEnvUint accepts plain integers with optional underscores or commas.
func getEnvUint(key string, defaultValue uint64) uint64 {
	value := strings.NewReplacer("_", "", ",", "").Replace(os.Getenv(key))
	if value == "" {
		return defaultValue
	}
	if n, err := strconv.ParseUint(value, 10, 64); err == nil {
		return n
	}
	return defaultValue
}

// ensureDir creates a directory and all parent directories if they don't exist.
func ensureDir(path string) error {
	if path == "" || path == "." {
		return nil
	}
	return os.MkdirAll(path, 0o750)
}
