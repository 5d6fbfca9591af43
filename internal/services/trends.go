package services

import (
	"sort"
	"time"

	"github.com/doeshing/termflow/internal/domain"
)

var trendPeriods = []struct {
	period   domain.TrendPeriod
	duration time.Duration
}{
	{domain.TrendHourly, time.Hour},
	{domain.TrendDaily, 24 * time.Hour},
	{domain.TrendWeekly, 7 * 24 * time.Hour},
	{domain.TrendMonthly, 30 * 24 * time.Hour},
}

// mineTrends counts usage per command category in the most recent period
// of each granularity and compares it with the period before. Prediction
// is a naive linear extrapolation and nothing more.
func mineTrends(entries []domain.HistoryEntry, now time.Time) []domain.UsageTrend {
	var out []domain.UsageTrend
	for _, tp := range trendPeriods {
		currentStart := now.Add(-tp.duration)
		previousStart := now.Add(-2 * tp.duration)

		current := map[domain.CommandCategory]int{}
		previous := map[domain.CommandCategory]int{}
		for _, entry := range entries {
			switch {
			case !entry.Timestamp.Before(currentStart):
				current[entry.Command.Category]++
			case !entry.Timestamp.Before(previousStart):
				previous[entry.Command.Category]++
			}
		}

		categories := map[domain.CommandCategory]bool{}
		for c := range current {
			categories[c] = true
		}
		for c := range previous {
			categories[c] = true
		}
		for category := range categories {
			cur, prev := current[category], previous[category]
			out = append(out, domain.UsageTrend{
				Period:      tp.period,
				CommandType: string(category),
				Count:       cur,
				ChangePct:   changePct(cur, prev),
				Prediction:  predictNext(cur, prev),
			})
		}
	}
	sort.Slice(out, func(a, b int) bool {
		if out[a].Period != out[b].Period {
			return out[a].Period < out[b].Period
		}
		return out[a].CommandType < out[b].CommandType
	})
	return out
}

func changePct(current, previous int) float64 {
	if previous == 0 {
		if current > 0 {
			return 100
		}
		return 0
	}
	return float64(current-previous) / float64(previous) * 100
}

func predictNext(current, previous int) float64 {
	predicted := float64(2*current - previous)
	if predicted < 0 {
		return 0
	}
	return predicted
}
