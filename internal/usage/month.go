// Package usage derives token totals from a stats snapshot and formats them
// for display.
package usage

import "fmt"

const (
	secondsPerDay = 86400
	// daysPer400Years is the length of one full Gregorian leap cycle.
	daysPer400Years = 146097
)

// CurrentMonthPrefix returns the YYYY-MM prefix of the UTC calendar month
// containing now, given in seconds since the Unix epoch. Only whole days are
// considered. Times before the epoch are treated as the epoch.
func CurrentMonthPrefix(now int64) string {
	year, month := yearMonth(now)
	return fmt.Sprintf("%04d-%02d", year, month)
}

func yearMonth(now int64) (int64, int) {
	if now < 0 {
		now = 0
	}
	remaining := now / secondsPerDay

	year := int64(1970)
	year += 400 * (remaining / daysPer400Years)
	remaining %= daysPer400Years

	for {
		days := daysInYear(year)
		if remaining < days {
			break
		}
		remaining -= days
		year++
	}

	month := 1
	for _, days := range monthLengths(year) {
		if remaining < days {
			break
		}
		remaining -= days
		month++
	}
	return year, month
}

// IsLeapYear applies the Gregorian rule: divisible by 4, except centuries
// not divisible by 400.
func IsLeapYear(year int64) bool {
	return year%4 == 0 && (year%100 != 0 || year%400 == 0)
}

func daysInYear(year int64) int64 {
	if IsLeapYear(year) {
		return 366
	}
	return 365
}

func monthLengths(year int64) [12]int64 {
	feb := int64(28)
	if IsLeapYear(year) {
		feb = 29
	}
	return [12]int64{31, feb, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}
}
