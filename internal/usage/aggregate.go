package usage

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"github.com/j-veylop/claude-token-tray/internal/models"
)

// CurrentMonthTokens sums every per-model token count recorded on days in the
// month containing now.
func CurrentMonthTokens(s *models.StatsCache, now int64) uint64 {
	if s == nil {
		return 0
	}
	return MonthTokens(s.DailyModelTokens, CurrentMonthPrefix(now))
}

// MonthTokens sums the tokens of all entries whose date starts with prefix.
func MonthTokens(days []models.DailyModelTokens, prefix string) uint64 {
	return lo.SumBy(inMonth(days, prefix), func(d models.DailyModelTokens) uint64 {
		return lo.Sum(lo.Values(d.TokensByModel))
	})
}

// DailyTokensForMonth returns the per-day totals for the month, in file order.
func DailyTokensForMonth(days []models.DailyModelTokens, prefix string) []models.DailyTokens {
	return lo.Map(inMonth(days, prefix), func(d models.DailyModelTokens, _ int) models.DailyTokens {
		return models.DailyTokens{
			Date:   d.Date,
			Tokens: lo.Sum(lo.Values(d.TokensByModel)),
		}
	})
}

func inMonth(days []models.DailyModelTokens, prefix string) []models.DailyModelTokens {
	return lo.Filter(days, func(d models.DailyModelTokens, _ int) bool {
		return strings.HasPrefix(d.Date, prefix)
	})
}

// MonthMessages sums message counts for the month.
func MonthMessages(activity []models.DailyActivity, prefix string) uint64 {
	return sumActivity(activity, prefix, func(d models.DailyActivity) uint64 { return d.MessageCount })
}

// MonthSessions sums session counts for the month.
func MonthSessions(activity []models.DailyActivity, prefix string) uint64 {
	return sumActivity(activity, prefix, func(d models.DailyActivity) uint64 { return d.SessionCount })
}

// MonthToolCalls sums tool call counts for the month.
func MonthToolCalls(activity []models.DailyActivity, prefix string) uint64 {
	return sumActivity(activity, prefix, func(d models.DailyActivity) uint64 { return d.ToolCallCount })
}

func sumActivity(activity []models.DailyActivity, prefix string, field func(models.DailyActivity) uint64) uint64 {
	var total uint64
	for _, d := range activity {
		if strings.HasPrefix(d.Date, prefix) {
			total += field(d)
		}
	}
	return total
}

// TotalTokens sums input, output and cache tokens over all models.
func TotalTokens(usage map[string]models.ModelUsage) uint64 {
	return lo.SumBy(lo.Values(usage), models.ModelUsage.TotalTokens)
}

// InputTokens sums input tokens over all models.
func InputTokens(usage map[string]models.ModelUsage) uint64 {
	return lo.SumBy(lo.Values(usage), func(u models.ModelUsage) uint64 { return u.InputTokens })
}

// OutputTokens sums output tokens over all models.
func OutputTokens(usage map[string]models.ModelUsage) uint64 {
	return lo.SumBy(lo.Values(usage), func(u models.ModelUsage) uint64 { return u.OutputTokens })
}

// CacheTokens sums cache read and cache creation tokens over all models.
func CacheTokens(usage map[string]models.ModelUsage) uint64 {
	return lo.SumBy(lo.Values(usage), func(u models.ModelUsage) uint64 {
		return u.CacheReadInputTokens + u.CacheCreationInputTokens
	})
}

// TotalCostUSD sums the reported cost over all models.
func TotalCostUSD(usage map[string]models.ModelUsage) float64 {
	return lo.SumBy(lo.Values(usage), func(u models.ModelUsage) float64 { return u.CostUSD })
}

// ModelSummaries returns one row per model, largest total first. Ties are
// ordered by model name so the output is stable.
func ModelSummaries(usage map[string]models.ModelUsage) []models.ModelSummary {
	summaries := lo.MapToSlice(usage, func(model string, u models.ModelUsage) models.ModelSummary {
		return models.ModelSummary{
			Model:               model,
			InputTokens:         u.InputTokens,
			OutputTokens:        u.OutputTokens,
			CacheReadTokens:     u.CacheReadInputTokens,
			CacheCreationTokens: u.CacheCreationInputTokens,
			TotalTokens:         u.TotalTokens(),
			CostUSD:             u.CostUSD,
		}
	})

	sort.Slice(summaries, func(i, j int) bool {
		if summaries[i].TotalTokens != summaries[j].TotalTokens {
			return summaries[i].TotalTokens > summaries[j].TotalTokens
		}
		return summaries[i].Model < summaries[j].Model
	})
	return summaries
}

// Summarize computes the month summary shown by the indicator and the UI.
func Summarize(s *models.StatsCache, now int64) models.MonthSummary {
	prefix := CurrentMonthPrefix(now)
	summary := models.MonthSummary{Month: prefix}

	if s != nil {
		summary.Tokens = MonthTokens(s.DailyModelTokens, prefix)
		summary.Messages = MonthMessages(s.DailyActivity, prefix)
		summary.Sessions = MonthSessions(s.DailyActivity, prefix)
		summary.ToolCalls = MonthToolCalls(s.DailyActivity, prefix)
	}
	summary.Title = FormatMagnitude(summary.Tokens)

	return summary
}
