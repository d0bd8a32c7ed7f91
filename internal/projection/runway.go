package projection

import (
	"fmt"
	"math"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

const (
	// DaysPerMonth converts a monthly burn rate into a daily one.
	DaysPerMonth = 30

	// RunwayDisplayCap is the month count from which runway shows as "60+".
	// It only affects presentation; computed values are never capped.
	RunwayDisplayCap = 60
)

// RunwayResult is how long liquid cash lasts at the current burn rate.
type RunwayResult struct {
	Days                       int     `json:"days"`
	Months                     float64 `json:"months"`
	WithIncomeMonths           float64 `json:"withIncomeMonths"`
	AdditionalMonthsFromIncome float64 `json:"additionalMonthsFromIncome"`
}

// Runway computes days and months of solvency. A non-positive burn rate has
// no runway metric and yields the zero result.
func Runway(cash, monthlyExpenses, income12 float64, incomeEnabled bool) RunwayResult {
	if monthlyExpenses <= 0 {
		return RunwayResult{}
	}

	months := round1(cash / monthlyExpenses)

	withIncome := months
	if incomeEnabled {
		withIncome = round1((cash + income12) / monthlyExpenses)
	}

	return RunwayResult{
		Days:                       int(math.Floor(cash * DaysPerMonth / monthlyExpenses)),
		Months:                     months,
		WithIncomeMonths:           withIncome,
		AdditionalMonthsFromIncome: math.Max(0, round1(withIncome-months)),
	}
}

// RunwayLabel formats a month count for display, truncating at the cap.
func RunwayLabel(months float64) string {
	if months >= RunwayDisplayCap {
		return fmt.Sprintf("%d+", RunwayDisplayCap)
	}
	return fmt.Sprintf("%.1f", months)
}

// BalancePoint is one month of the runway chart.
type BalancePoint struct {
	Month   string  `json:"month"`
	Income  float64 `json:"income"`
	Balance float64 `json:"balance"`
}

// ProjectBalances walks cash forward month by month: each month subtracts
// the burn rate and adds that month's scheduled income.
func ProjectBalances(cash, monthlyExpenses float64, events []domain.IncomeEvent, asOf time.Time, months int, opts IncomeOptions) []BalancePoint {
	if months <= 0 {
		return []BalancePoint{}
	}

	first := MonthIndex(asOf)
	points := make([]BalancePoint, 0, months)
	balance := cash
	for i := 0; i < months; i++ {
		income := IncomeForMonth(events, asOf, first+i, opts)
		balance = balance - monthlyExpenses + income
		points = append(points, BalancePoint{
			Month:   MonthLabel(first + i),
			Income:  income,
			Balance: round2(balance),
		})
	}
	return points
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
