package core

import (
	"math"
	"time"
)

// Progress describes how far a budget's spending has advanced within the
// current period.
type Progress struct {
	Spent   float64 `json:"spent"`
	Percent int     `json:"percent"`
	Alert   bool    `json:"alert"`
}

// PeriodStart returns the first instant of the budget period containing now:
// the most recent Monday at 00:00 for weekly, the first of the month for
// monthly, January 1st for yearly. An unknown period yields the zero time so
// that every expense falls inside it.
func PeriodStart(p Period, now time.Time) time.Time {
	switch p {
	case Weekly:
		daysSinceMonday := (int(now.Weekday()) + 6) % 7
		monday := now.AddDate(0, 0, -daysSinceMonday)
		return time.Date(monday.Year(), monday.Month(), monday.Day(), 0, 0, 0, 0, now.Location())
	case Monthly:
		return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	case Yearly:
		return time.Date(now.Year(), 1, 1, 0, 0, 0, 0, now.Location())
	default:
		return time.Time{}
	}
}

// BudgetProgress recomputes the spent total for b from the full expense set.
// Expenses count when their category matches and their date is on or after
// the period start; the comparison is on ISO date strings, which order
// lexicographically the same as chronologically.
func BudgetProgress(b Budget, expenses []Expense, now time.Time) Progress {
	periodStart := PeriodStart(b.Period, now).Format(DateLayout)

	var spent float64
	for _, e := range expenses {
		if e.Category == b.Category && e.Date >= periodStart {
			spent += e.Amount.Float64()
		}
	}

	percent := 0
	if b.Amount > 0 {
		percent = int(math.Round(spent / b.Amount.Float64() * 100))
	}

	return Progress{
		Spent:   spent,
		Percent: percent,
		Alert:   percent >= b.AlertThreshold.Int(),
	}
}
