// Package models defines data structures and domain types.
package models

// StatsCache mirrors ~/.claude/stats-cache.json. A value is built fresh on
// every refresh and is never modified after parsing.
type StatsCache struct {
	Version          uint32                `json:"version"`
	LastComputedDate string                `json:"lastComputedDate"`
	DailyActivity    []DailyActivity       `json:"dailyActivity"`
	DailyModelTokens []DailyModelTokens    `json:"dailyModelTokens"`
	ModelUsage       map[string]ModelUsage `json:"modelUsage"`
	TotalSessions    uint64                `json:"totalSessions"`
	TotalMessages    uint64                `json:"totalMessages"`
	LongestSession   *LongestSession       `json:"longestSession"`
	FirstSessionDate *string               `json:"firstSessionDate"`
	HourCounts       map[string]uint64     `json:"hourCounts"`
}

// DailyActivity holds per-day message, session and tool call counts.
type DailyActivity struct {
	Date          string `json:"date"`
	MessageCount  uint64 `json:"messageCount"`
	SessionCount  uint64 `json:"sessionCount"`
	ToolCallCount uint64 `json:"toolCallCount"`
}

// DailyModelTokens holds the tokens used on one day, keyed by model name.
type DailyModelTokens struct {
	Date          string            `json:"date"`
	TokensByModel map[string]uint64 `json:"tokensByModel"`
}

// ModelUsage holds all-time usage for a single model.
// CostUSD is zero when the upstream file omits it.
type ModelUsage struct {
	InputTokens              uint64  `json:"inputTokens"`
	OutputTokens             uint64  `json:"outputTokens"`
	CacheReadInputTokens     uint64  `json:"cacheReadInputTokens"`
	CacheCreationInputTokens uint64  `json:"cacheCreationInputTokens"`
	WebSearchRequests        uint64  `json:"webSearchRequests"`
	CostUSD                  float64 `json:"costUsd"`
}

// TotalTokens returns input, output and both cache token kinds combined.
func (u ModelUsage) TotalTokens() uint64 {
	return u.InputTokens + u.OutputTokens + u.CacheReadInputTokens + u.CacheCreationInputTokens
}

// LongestSession describes the longest recorded session.
type LongestSession struct {
	SessionID    string `json:"sessionId"`
	Duration     uint64 `json:"duration"`
	MessageCount uint64 `json:"messageCount"`
	Timestamp    string `json:"timestamp"`
}
