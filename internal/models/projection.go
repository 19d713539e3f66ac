package models

import "time"

// ProjectionStatus indicates how close the month is to the notify threshold.
type ProjectionStatus string

const (
	ProjectionSafe     ProjectionStatus = "SAFE"
	ProjectionWarning  ProjectionStatus = "WARNING"
	ProjectionCritical ProjectionStatus = "CRITICAL"
	ProjectionUnknown  ProjectionStatus = "UNKNOWN"
)

// HistoricalContext provides recorded monthly totals for comparison.
type HistoricalContext struct {
	LastMonth         string // YYYY-MM of the previous month
	LastMonthTokens   uint64 // 0 when the previous month was never recorded
	AllTimeAvgMonthly uint64 // Average over recorded months before this one
	PeakMonth         string // Recorded month with the highest total
	PeakMonthTokens   uint64
	RecordedMonths    int // Months before this one in the history database
}

// MonthProjection estimates where the month's token total will end up at
// the current daily rate.
type MonthProjection struct {
	Month           string             // YYYY-MM
	CurrentTokens   uint64             // Tokens used so far this month
	DailyRate       float64            // Tokens per elapsed day
	ProjectedTokens uint64             // Estimated total at month end
	DaysElapsed     float64            // Days since the month started, at least 1
	DaysInMonth     int                // Calendar length of the month
	ActiveDays      int                // Days with recorded token usage
	Threshold       uint64             // Notify threshold, 0 when disabled
	CrossesAt       time.Time          // Projected threshold crossing, zero if none
	WillExceed      bool               // True if the projection reaches the threshold
	Historical      *HistoricalContext // Nil when history is disabled
	VsLastMonth     string             // Comparison text vs last month
	VsHistorical    string             // Comparison text vs recorded average
	Status          ProjectionStatus   // SAFE, WARNING, CRITICAL, UNKNOWN
	Confidence      string             // "low", "medium", "high"
	LastUpdated     time.Time
}
