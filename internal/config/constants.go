package config

import "time"

// Environment variables read by Load.
const (
	EnvStatsPath          = "STATS_PATH"
	EnvDatabasePath       = "DATABASE_PATH"
	EnvRefreshInterval    = "REFRESH_INTERVAL"
	EnvPollWithoutWatcher = "POLL_WITHOUT_WATCHER"
	EnvNotifyThreshold    = "NOTIFY_THRESHOLD"
	EnvHistoryEnabled     = "HISTORY_ENABLED"
	EnvLogPath            = "LOG_PATH"
	EnvLogLevel           = "LOG_LEVEL"
)

// Default values
const (
	appDirName             = "tokentray"
	defaultRefreshInterval = 60 * time.Second
	defaultLogLevel        = "info"
	databaseFileName       = "history.db"
	logFileName            = "tokentray.log"
)
