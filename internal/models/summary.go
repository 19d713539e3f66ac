package models

// ModelSummary is the per-model breakdown shown in the overview.
type ModelSummary struct {
	Model               string
	InputTokens         uint64
	OutputTokens        uint64
	CacheReadTokens     uint64
	CacheCreationTokens uint64
	TotalTokens         uint64
	CostUSD             float64
}

// DailyTokens is the token total for a single day across all models.
type DailyTokens struct {
	Date   string
	Tokens uint64
}

// MonthSummary is everything derived from one snapshot for one calendar month.
type MonthSummary struct {
	Month     string // YYYY-MM
	Tokens    uint64
	Messages  uint64
	Sessions  uint64
	ToolCalls uint64
	// Title is the formatted token count shown in the indicator.
	Title string
}
