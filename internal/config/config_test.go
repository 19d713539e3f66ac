package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestGetEnvString(t *testing.T) {
	key := "TEST_ENV_STRING"
	t.Setenv(key, "test_value")

	if got := getEnvString(key, "default"); got != "test_value" {
		t.Errorf("getEnvString() = %q, want %q", got, "test_value")
	}

	if got := getEnvString("NON_EXISTENT", "default"); got != "default" {
		t.Errorf("getEnvString() = %q, want %q", got, "default")
	}
}

func TestGetEnvDuration(t *testing.T) {
	key := "TEST_ENV_DURATION"

	tests := []struct {
		name       string
		envVal     string
		defaultVal time.Duration
		want       time.Duration
	}{
		{"ValidDuration", "1m", time.Second, time.Minute},
		{"ValidSeconds", "60", time.Second, 60 * time.Second},
		{"Invalid", "invalid", time.Second, time.Second},
		{"Empty", "", time.Second, time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvDuration(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvDuration() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetEnvBool(t *testing.T) {
	key := "TEST_ENV_BOOL"

	tests := []struct {
		envVal     string
		defaultVal bool
		want       bool
	}{
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.envVal, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvBool(key, tt.defaultVal); got != tt.want {
				t.Errorf("getEnvBool(%q) = %v, want %v", tt.envVal, got, tt.want)
			}
		})
	}
}

func TestGetEnvUint(t *testing.T) {
	key := "TEST_ENV_UINT"

	tests := []struct {
		envVal string
		want   uint64
	}{
		{"1000000", 1_000_000},
		{"5_000_000", 5_000_000},
		{"2,500,000", 2_500_000},
		{"-1", 7},
		{"lots", 7},
		{"", 7},
	}

	for _, tt := range tests {
		t.Run(tt.envVal, func(t *testing.T) {
			t.Setenv(key, tt.envVal)

			if got := getEnvUint(key, 7); got != tt.want {
				t.Errorf("getEnvUint(%q) = %d, want %d", tt.envVal, got, tt.want)
			}
		})
	}
}

func TestEnsureDir(t *testing.T) {
	tmpDir := t.TempDir()
	path := filepath.Join(tmpDir, "nested", "dir")

	if err := ensureDir(path); err != nil {
		t.Fatalf("ensureDir() failed: %v", err)
	}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("directory was not created")
	}

	if err := ensureDir(""); err != nil {
		t.Error("ensureDir(\"\") should not error")
	}
}

func TestGetDefaultPaths(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	if got, want := getDefaultStatsPath(), filepath.Join(home, ".claude", "stats-cache.json"); got != want {
		t.Errorf("getDefaultStatsPath() = %q, want %q", got, want)
	}
	if got, want := getDefaultDatabasePath(), filepath.Join(home, ".config", "tokentray", "history.db"); got != want {
		t.Errorf("getDefaultDatabasePath() = %q, want %q", got, want)
	}
	if got, want := getDefaultLogPath(), filepath.Join(home, ".config", "tokentray", "tokentray.log"); got != want {
		t.Errorf("getDefaultLogPath() = %q, want %q", got, want)
	}
}

func TestGetDefaultPaths_NoHome(t *testing.T) {
	t.Setenv("HOME", "")

	if got := getDefaultDatabasePath(); got != "" {
		t.Errorf("getDefaultDatabasePath() = %q, want empty", got)
	}
	if got := getDefaultLogPath(); got != "" {
		t.Errorf("getDefaultLogPath() = %q, want empty", got)
	}
}

func TestGetEnvPaths(t *testing.T) {
	paths := getEnvPaths()
	if len(paths) == 0 {
		t.Error("getEnvPaths() returned empty list")
	}

	cwd, _ := os.Getwd()
	found := false
	for _, p := range paths {
		if p == filepath.Join(cwd, ".env") {
			found = true
			break
		}
	}
	if !found {
		t.Error("getEnvPaths() missing current directory .env")
	}
}

// isolate points HOME and the working directory at an empty temp dir and
// clears every variable Load reads.
func isolate(t *testing.T) string {
	t.Helper()

	tmpDir := t.TempDir()
	t.Setenv("HOME", tmpDir)
	t.Chdir(tmpDir)

	for _, key := range []string{
		EnvStatsPath, EnvDatabasePath, EnvRefreshInterval, EnvPollWithoutWatcher,
		EnvNotifyThreshold, EnvHistoryEnabled, EnvLogPath, EnvLogLevel,
	} {
		t.Setenv(key, "")
	}

	return tmpDir
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if want := filepath.Join(home, ".claude", "stats-cache.json"); cfg.StatsPath != want {
		t.Errorf("StatsPath = %q, want %q", cfg.StatsPath, want)
	}
	if cfg.RefreshInterval != 60*time.Second {
		t.Errorf("RefreshInterval = %v, want 60s", cfg.RefreshInterval)
	}
	if !cfg.PollWithoutWatcher || !cfg.HistoryEnabled {
		t.Errorf("expected polling and history enabled, got %+v", cfg)
	}
	if cfg.NotifyThreshold != 0 {
		t.Errorf("NotifyThreshold = %d, want 0", cfg.NotifyThreshold)
	}
	if cfg.LogLevel != "info" {
		t.Errorf("LogLevel = %q, want info", cfg.LogLevel)
	}
	if _, err := os.Stat(filepath.Join(home, ".config", "tokentray")); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}

func TestLoad_NoHomeDirectory(t *testing.T) {
	cwd := isolate(t)
	t.Setenv("HOME", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.StatsPath != "" || cfg.DatabasePath != "" || cfg.LogPath != "" {
		t.Errorf("paths should be empty without a home directory, got %+v", cfg)
	}
	if cfg.HistoryEnabled {
		t.Error("history should be disabled without a database path")
	}

	entries, err := os.ReadDir(cwd)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("Load() wrote into the working directory: %v", entries)
	}
}

func TestLoad_NoHomeWithExplicitPaths(t *testing.T) {
	dir := isolate(t)
	t.Setenv("HOME", "")
	t.Setenv(EnvDatabasePath, filepath.Join(dir, "db", "history.db"))

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if !cfg.HistoryEnabled {
		t.Error("an explicit DATABASE_PATH should keep history enabled")
	}
}

func TestLoad_Environment(t *testing.T) {
	home := isolate(t)

	t.Setenv(EnvStatsPath, filepath.Join(home, "stats.json"))
	t.Setenv(EnvDatabasePath, filepath.Join(home, "data", "db.sqlite"))
	t.Setenv(EnvRefreshInterval, "15s")
	t.Setenv(EnvPollWithoutWatcher, "false")
	t.Setenv(EnvNotifyThreshold, "10000000")
	t.Setenv(EnvLogLevel, "DEBUG")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.StatsPath != filepath.Join(home, "stats.json") {
		t.Errorf("StatsPath = %q", cfg.StatsPath)
	}
	if cfg.RefreshInterval != 15*time.Second {
		t.Errorf("RefreshInterval = %v, want 15s", cfg.RefreshInterval)
	}
	if cfg.PollWithoutWatcher {
		t.Error("PollWithoutWatcher should be false")
	}
	if cfg.NotifyThreshold != 10_000_000 {
		t.Errorf("NotifyThreshold = %d", cfg.NotifyThreshold)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want debug", cfg.LogLevel)
	}
	if _, err := os.Stat(filepath.Join(home, "data")); err != nil {
		t.Errorf("database directory was not created: %v", err)
	}
}

func TestLoad_NonPositiveInterval(t *testing.T) {
	isolate(t)
	t.Setenv(EnvRefreshInterval, "0s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.RefreshInterval != defaultRefreshInterval {
		t.Errorf("RefreshInterval = %v, want %v", cfg.RefreshInterval, defaultRefreshInterval)
	}
}

func TestLoad_DotEnv(t *testing.T) {
	home := isolate(t)
	os.Unsetenv(EnvNotifyThreshold)

	envFile := filepath.Join(home, ".env")
	if err := os.WriteFile(envFile, []byte("NOTIFY_THRESHOLD=42\n"), 0o600); err != nil {
		t.Fatalf("failed to write .env: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.NotifyThreshold != 42 {
		t.Errorf("NotifyThreshold = %d, want 42", cfg.NotifyThreshold)
	}
	os.Unsetenv(EnvNotifyThreshold)
}
