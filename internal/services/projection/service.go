// Package projection estimates the month-end token total from the current
// daily rate and compares it with recorded history.
package projection

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/j-veylop/claude-token-tray/internal/db"
	"github.com/j-veylop/claude-token-tray/internal/logger"
	"github.com/j-veylop/claude-token-tray/internal/models"
)

const (
	lowConfDays    = 3
	medConfDays    = 10
	criticalWindow = 48 * time.Hour
)

type Service struct {
	mu        sync.RWMutex
	db        *db.DB
	threshold uint64
	latest    *models.MonthProjection
}

// New creates a projection service. database may be nil, in which case
// projections carry no historical context.
func New(database *db.DB, threshold uint64) *Service {
	return &Service{
		db:        database,
		threshold: threshold,
	}
}

// Calculate projects summary to the end of its month. daily holds the
// month's per-day totals and only feeds ActiveDays.
func (s *Service) Calculate(
	summary models.MonthSummary,
	daily []models.DailyTokens,
	now time.Time,
) (*models.MonthProjection, error) {
	start, err := time.Parse("2006-01", summary.Month)
	if err != nil {
		return nil, fmt.Errorf("invalid month %q: %w", summary.Month, err)
	}
	daysInMonth := int(start.AddDate(0, 1, 0).Sub(start).Hours() / 24)

	now = now.UTC()
	elapsed := min(max(now.Sub(start).Hours()/24, 1), float64(daysInMonth))

	proj := &models.MonthProjection{
		Month:         summary.Month,
		CurrentTokens: summary.Tokens,
		DaysElapsed:   elapsed,
		DaysInMonth:   daysInMonth,
		ActiveDays:    countActiveDays(daily),
		Threshold:     s.threshold,
		Status:        models.ProjectionUnknown,
		Confidence:    confidence(elapsed),
		LastUpdated:   now,
	}

	proj.DailyRate = float64(summary.Tokens) / elapsed
	remaining := float64(daysInMonth) - elapsed
	proj.ProjectedTokens = summary.Tokens + uint64(math.Round(proj.DailyRate*remaining))

	s.applyThreshold(proj, now)

	if s.db != nil {
		historical, err := s.historicalContext(summary.Month, start)
		if err != nil {
			logger.Error("failed to get historical context", "month", summary.Month, "error", err)
		} else {
			proj.Historical = historical
			proj.VsLastMonth = formatComparison(proj.ProjectedTokens, historical.LastMonthTokens)
			proj.VsHistorical = formatHistoricalComparison(proj.ProjectedTokens, historical.AllTimeAvgMonthly)
		}
	}

	s.mu.Lock()
	s.latest = proj
	s.mu.Unlock()

	return proj, nil
}

func (s *Service) applyThreshold(proj *models.MonthProjection, now time.Time) {
	if s.threshold == 0 {
		return
	}

	switch {
	case proj.CurrentTokens >= s.threshold:
		proj.WillExceed = true
		proj.Status = models.ProjectionCritical

	case proj.ProjectedTokens >= s.threshold && proj.DailyRate > 0:
		proj.WillExceed = true
		daysLeft := float64(s.threshold-proj.CurrentTokens) / proj.DailyRate
		proj.CrossesAt = now.Add(time.Duration(daysLeft * float64(24*time.Hour)))
		if proj.CrossesAt.Sub(now) < criticalWindow {
			proj.Status = models.ProjectionCritical
		} else {
			proj.Status = models.ProjectionWarning
		}

	default:
		proj.Status = models.ProjectionSafe
	}
}

// historicalContext summarizes recorded months before month.
func (s *Service) historicalContext(month string, start time.Time) (*models.HistoricalContext, error) {
	totals, err := s.db.MonthlyTotals(0)
	if err != nil {
		return nil, err
	}

	h := &models.HistoricalContext{
		LastMonth: start.AddDate(0, -1, 0).Format("2006-01"),
	}

	var sum uint64
	for _, t := range totals {
		if t.Month >= month {
			continue
		}
		h.RecordedMonths++
		sum += t.Tokens
		if t.Month == h.LastMonth {
			h.LastMonthTokens = t.Tokens
		}
		if t.Tokens > h.PeakMonthTokens {
			h.PeakMonth = t.Month
			h.PeakMonthTokens = t.Tokens
		}
	}

	if h.RecordedMonths > 0 {
		h.AllTimeAvgMonthly = sum / uint64(h.RecordedMonths)
	}

	return h, nil
}

func confidence(daysElapsed float64) string {
	switch {
	case daysElapsed < lowConfDays:
		return "low"
	case daysElapsed < medConfDays:
		return "medium"
	default:
		return "high"
	}
}

func countActiveDays(daily []models.DailyTokens) int {
	n := 0
	for _, d := range daily {
		if d.Tokens > 0 {
			n++
		}
	}
	return n
}

func formatComparison(projected, lastMonth uint64) string {
	if lastMonth == 0 {
		return "No prior data"
	}
	diff := (float64(projected) - float64(lastMonth)) / float64(lastMonth) * 100
	if math.Abs(diff) < 10 {
		return "Similar to last month"
	} else if diff > 0 {
		return fmt.Sprintf("%.0f%% higher than last month", diff)
	}
	return fmt.Sprintf("%.0f%% lower than last month", -diff)
}

func formatHistoricalComparison(projected, average uint64) string {
	if average == 0 {
		return "Building history..."
	}
	diff := (float64(projected) - float64(average)) / float64(average) * 100
	if math.Abs(diff) < 15 {
		return "Typical for you"
	} else if diff > 0 {
		return "Above your average"
	}
	return "Below your average"
}

// Latest returns the most recent projection, or nil before the first one.
func (s *Service) Latest() *models.MonthProjection {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}
