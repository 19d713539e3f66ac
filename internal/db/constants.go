package db

// timeLayout is how timestamps are written, always in UTC, so that string
// comparison and SQLite date functions agree.
const timeLayout = "2006-01-02 15:04:05"

// DefaultRecentLimit is the number of refresh records returned when the
// caller does not ask for a specific count.
const DefaultRecentLimit = 50
