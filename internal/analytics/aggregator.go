// Package analytics derives dashboard statistics from a user's expense set.
//
// Everything is recomputed from scratch on each call: the input is the full
// per-user expense list fetched in one query, and the output is a handful of
// groupings over that same in-memory slice. There is deliberately no
// incremental state here; callers that need cheaper reads cache the Summary.
package analytics

import (
	"sort"
	"strconv"
	"time"

	"fintrack/internal/core"
)

// TrendPoint is one labeled time bucket in a chart series.
type TrendPoint struct {
	Label  string  `json:"label"`
	Amount float64 `json:"amount"`
}

// CategoryStat aggregates the expenses sharing one category value. Orphaned
// category names (no matching Category record) are ordinary buckets here.
type CategoryStat struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	Count      int     `json:"count"`
	Percentage float64 `json:"percentage"`
}

// Summary is the analytics response body.
type Summary struct {
	TotalExpenses     float64        `json:"totalExpenses"`
	MonthlyExpenses   float64        `json:"monthlyExpenses"`
	CategoryBreakdown []CategoryStat `json:"categoryBreakdown"`
	MonthlyTrend      []TrendPoint   `json:"monthlyTrend"`
	DailyTrend        []TrendPoint   `json:"dailyTrend"`
	WeeklyTrend       []TrendPoint   `json:"weeklyTrend"`
	AnnualTrend       []TrendPoint   `json:"annualTrend"`
	TopCategories     []CategoryStat `json:"topCategories"`
}

const (
	monthlyTrendBuckets = 6
	dailyTrendBuckets   = 7
	weeklyTrendBuckets  = 4
	annualTrendBuckets  = 4
	topCategoryLimit    = 5
)

// Summarize computes the full summary for one user's expenses at the given
// reference time. All date math is done on the expense's stored ISO date
// string; amounts are summed as-is with no rounding.
func Summarize(expenses []core.Expense, now time.Time) Summary {
	s := Summary{
		CategoryBreakdown: []CategoryStat{},
		TopCategories:     []CategoryStat{},
	}

	for _, e := range expenses {
		s.TotalExpenses += e.Amount.Float64()
	}

	currentMonth := now.Format("2006-01")
	s.MonthlyExpenses = sumWithPrefix(expenses, currentMonth)

	s.CategoryBreakdown = categoryBreakdown(expenses, s.TotalExpenses)
	s.MonthlyTrend = monthlyTrend(expenses, now)
	s.DailyTrend = dailyTrend(expenses, now)
	s.WeeklyTrend = weeklyTrend(expenses, now)
	s.AnnualTrend = annualTrend(expenses, now)
	s.TopCategories = topCategories(s.CategoryBreakdown)

	return s
}

// sumWithPrefix totals expenses whose date starts with the given prefix
// ("YYYY" for a year, "YYYY-MM" for a month).
func sumWithPrefix(expenses []core.Expense, prefix string) float64 {
	var total float64
	for _, e := range expenses {
		if len(e.Date) >= len(prefix) && e.Date[:len(prefix)] == prefix {
			total += e.Amount.Float64()
		}
	}
	return total
}

// categoryBreakdown buckets expenses by category value in first-appearance
// order, so repeated calls over the same stored sequence are deterministic.
func categoryBreakdown(expenses []core.Expense, total float64) []CategoryStat {
	index := make(map[string]int)
	stats := []CategoryStat{}

	for _, e := range expenses {
		i, ok := index[e.Category]
		if !ok {
			i = len(stats)
			index[e.Category] = i
			stats = append(stats, CategoryStat{Name: e.Category})
		}
		stats[i].Amount += e.Amount.Float64()
		stats[i].Count++
	}

	for i := range stats {
		if total > 0 {
			stats[i].Percentage = stats[i].Amount / total * 100
		}
	}
	return stats
}

// monthlyTrend covers the trailing six calendar months, oldest first.
func monthlyTrend(expenses []core.Expense, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, monthlyTrendBuckets)
	for i := monthlyTrendBuckets - 1; i >= 0; i-- {
		// Anchor on the first of the month so subtraction never skips a
		// short month.
		m := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, -i, 0)
		points = append(points, TrendPoint{
			Label:  m.Format("Jan 2006"),
			Amount: sumWithPrefix(expenses, m.Format("2006-01")),
		})
	}
	return points
}

// dailyTrend covers the trailing seven days. Labels are weekday
// abbreviations only; since the window never exceeds one week, the labels
// are unambiguous within a single response.
func dailyTrend(expenses []core.Expense, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, dailyTrendBuckets)
	for i := dailyTrendBuckets - 1; i >= 0; i-- {
		d := now.AddDate(0, 0, -i)
		key := d.Format(core.DateLayout)

		var amount float64
		for _, e := range expenses {
			if e.Date == key {
				amount += e.Amount.Float64()
			}
		}
		points = append(points, TrendPoint{Label: d.Format("Mon"), Amount: amount})
	}
	return points
}

// weeklyTrend covers the trailing four Monday-start weeks. Each bucket sums
// expenses whose date falls inside [weekStart, weekStart+6d] inclusive; the
// range check compares ISO date strings, which order lexicographically the
// same as chronologically.
func weeklyTrend(expenses []core.Expense, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, weeklyTrendBuckets)
	for i := weeklyTrendBuckets - 1; i >= 0; i-- {
		anchor := now.AddDate(0, 0, -i*7)
		start := core.PeriodStart(core.Weekly, anchor)
		startKey := start.Format(core.DateLayout)
		endKey := start.AddDate(0, 0, 6).Format(core.DateLayout)

		var amount float64
		for _, e := range expenses {
			if e.Date >= startKey && e.Date <= endKey {
				amount += e.Amount.Float64()
			}
		}

		points = append(points, TrendPoint{Label: weekLabel(i), Amount: amount})
	}
	return points
}

func weekLabel(weeksAgo int) string {
	switch weeksAgo {
	case 0:
		return "This Week"
	case 1:
		return "1 week ago"
	default:
		return strconv.Itoa(weeksAgo) + " weeks ago"
	}
}

// annualTrend covers the trailing four calendar years, oldest first.
func annualTrend(expenses []core.Expense, now time.Time) []TrendPoint {
	points := make([]TrendPoint, 0, annualTrendBuckets)
	for i := annualTrendBuckets - 1; i >= 0; i-- {
		year := strconv.Itoa(now.Year() - i)
		points = append(points, TrendPoint{
			Label:  year,
			Amount: sumWithPrefix(expenses, year),
		})
	}
	return points
}

// topCategories returns the breakdown sorted descending by amount and
// truncated to the display limit. The sort is stable so ties keep their
// store-native order.
func topCategories(breakdown []CategoryStat) []CategoryStat {
	top := make([]CategoryStat, len(breakdown))
	copy(top, breakdown)
	sort.SliceStable(top, func(i, j int) bool {
		return top[i].Amount > top[j].Amount
	})
	if len(top) > topCategoryLimit {
		top = top[:topCategoryLimit]
	}
	return top
}
