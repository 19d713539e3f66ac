package usage

import (
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"

	"github.com/dustin/go-humanize"
)

type magnitude struct {
	unit   uint64
	suffix string
}

// magnitudes are checked largest first; the first unit not above n wins.
var magnitudes = []magnitude{
	{unit: 1_000_000_000, suffix: "B"},
	{unit: 1_000_000, suffix: "M"},
	{unit: 1_000, suffix: "K"},
}

// FormatMagnitude renders n with a K/M/B suffix and one decimal, rounding
// half up. The unit is picked before rounding, so 999,999 becomes "1000.0K".
func FormatMagnitude(n uint64) string {
	for _, m := range magnitudes {
		if n >= m.unit {
			return formatTenths(n, m.unit) + m.suffix
		}
	}
	return strconv.FormatUint(n, 10)
}

func formatTenths(n, unit uint64) string {
	whole, rest := n/unit, n%unit
	tenths := whole*10 + (rest*10+unit/2)/unit
	return fmt.Sprintf("%d.%d", tenths/10, tenths%10)
}

// FormatNumber renders n with thousands separators.
func FormatNumber(n uint64) string {
	if n > math.MaxInt64 {
		return humanize.BigComma(new(big.Int).SetUint64(n))
	}
	return humanize.Comma(int64(n))
}

// FormatCostCents renders an amount in cents as dollars.
func FormatCostCents(cents float64) string {
	return fmt.Sprintf("$%.2f", cents/100)
}

// FormatCostUSD renders a dollar amount.
func FormatCostUSD(dollars float64) string {
	return FormatCostCents(dollars * 100)
}

// FormatModelName turns "claude-opus-4-5" into "Opus 4 5".
func FormatModelName(model string) string {
	trimmed := strings.Replace(model, "claude-", "", 1)
	parts := strings.Split(trimmed, "-")
	for i, part := range parts {
		if part == "" {
			continue
		}
		parts[i] = strings.ToUpper(part[:1]) + part[1:]
	}
	return strings.Join(parts, " ")
}
