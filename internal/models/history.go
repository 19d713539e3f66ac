package models

import "time"

// HistoryRange selects how many recorded months the history view shows.
type HistoryRange int

const (
	// HistoryRange3Months shows the last three recorded months.
	HistoryRange3Months HistoryRange = iota
	// HistoryRange6Months shows the last six recorded months.
	HistoryRange6Months
	// HistoryRange12Months shows the last twelve recorded months.
	HistoryRange12Months
	// HistoryRangeAllTime shows every recorded month.
	HistoryRangeAllTime
)

// String returns the display name for a history range.
func (r HistoryRange) String() string {
	switch r {
	case HistoryRange3Months:
		return "3 Months"
	case HistoryRange6Months:
		return "6 Months"
	case HistoryRange12Months:
		return "12 Months"
	case HistoryRangeAllTime:
		return "All Time"
	default:
		return "Unknown"
	}
}

// Months returns the number of months for the range (0 = unlimited).
func (r HistoryRange) Months() int {
	switch r {
	case HistoryRange3Months:
		return 3
	case HistoryRange6Months:
		return 6
	case HistoryRange12Months:
		return 12
	case HistoryRangeAllTime:
		return 0
	default:
		return 6
	}
}

// Next cycles to the next history range.
func (r HistoryRange) Next() HistoryRange {
	return (r + 1) % 4
}

// RefreshRecord is one logged refresh whose monthly total differed from the
// previous record.
type RefreshRecord struct {
	RecordedAt time.Time
	CycleID    string
	Month      string
	Title      string
	Trigger    string
	ID         int64
	Tokens     uint64
}

// MonthlyTotal is the latest known token total for a calendar month.
type MonthlyTotal struct {
	UpdatedAt time.Time
	Month     string
	Title     string
	Tokens    uint64
}
