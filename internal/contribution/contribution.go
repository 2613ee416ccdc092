// Package contribution builds the yearly habit heat map from completion logs.
package contribution

import (
	"time"

	"github.com/julianstephens/growthtrack/internal/constants"
	"github.com/julianstephens/growthtrack/internal/models"
)

// ComputeLevel buckets count/maxCount into an intensity level 0-4.
// Bucket upper edges are inclusive.
func ComputeLevel(count, maxCount int) int {
	if count == 0 || maxCount == 0 {
		return 0
	}

	ratio := float64(count) / float64(maxCount)
	switch {
	case ratio <= 0.25:
		return 1
	case ratio <= 0.5:
		return 2
	case ratio <= 0.75:
		return 3
	default:
		return 4
	}
}

// GenerateYearDates returns every date of year in ascending YYYY-MM-DD form
func GenerateYearDates(year int) []string {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	dates := make([]string, 0, 366)
	for d := start; d.Before(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d.Format(constants.DateFormat))
	}
	return dates
}

// Compute aggregates completed logs into one ContributionDay per date of year.
// Every completed row counts, so several habits done on one day add up. Logs
// dated outside year never match an enumerated day and are left out of the total.
func Compute(logs []models.HabitLog, year, habitCount int) models.ContributionYear {
	byDate := make(map[string]int)
	for _, log := range logs {
		if log.Completed {
			byDate[log.Date]++
		}
	}

	maxCount := habitCount
	if maxCount <= 0 {
		maxCount = 1
	}

	dates := GenerateYearDates(year)
	result := models.ContributionYear{
		Year: year,
		Data: make([]models.ContributionDay, 0, len(dates)),
	}
	for _, date := range dates {
		count := byDate[date]
		result.Data = append(result.Data, models.ContributionDay{
			Date:  date,
			Count: count,
			Level: ComputeLevel(count, maxCount),
		})
		result.TotalContributions += count
	}

	return result
}
