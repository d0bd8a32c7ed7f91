// Package projection is the financial projection engine: pure functions that
// turn account, expense and income state into runway, payoff and
// utilization metrics. Nothing here performs I/O or keeps state.
package projection

import (
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// MonthsPerYear is used wherever annual figures are spread over months.
const MonthsPerYear = 12

// MonthIndex maps a date onto a linear month count (year*12 + month) so
// months can be compared and subtracted across year boundaries.
func MonthIndex(t time.Time) int {
	return t.Year()*MonthsPerYear + int(t.Month()) - 1
}

// IncomeOptions carries the per-user income switches stored in settings.
type IncomeOptions struct {
	Enabled  bool
	Excluded map[string]bool // income event IDs left out of projections
}

func (o IncomeOptions) skip(e domain.IncomeEvent) bool {
	return o.Excluded != nil && o.Excluded[e.ID]
}

// onOrAfter compares calendar dates, ignoring time of day.
func onOrAfter(d domain.Date, asOf time.Time) bool {
	return !d.Before(domain.NewDate(asOf).Time)
}

// IncomeForMonth returns the income landing in the target month
// (a MonthIndex value). Events dated before asOf never contribute.
func IncomeForMonth(events []domain.IncomeEvent, asOf time.Time, target int, opts IncomeOptions) float64 {
	if !opts.Enabled {
		return 0
	}

	var total float64
	for _, e := range events {
		if opts.skip(e) || !onOrAfter(e.Date, asOf) {
			continue
		}
		if contributes(e, target) {
			total += e.Amount
		}
	}
	return total
}

// contributes reports whether e pays out in month index m.
func contributes(e domain.IncomeEvent, m int) bool {
	start := MonthIndex(e.Date.Time)
	if m < start {
		return false
	}

	switch e.Frequency {
	case domain.FrequencyOneTime:
		return m == start
	case domain.FrequencyMonthly:
		return e.EndDate == nil || m <= MonthIndex(e.EndDate.Time)
	case domain.FrequencyYearly:
		if e.EndDate != nil && m > MonthIndex(e.EndDate.Time) {
			return false
		}
		return (m-start)%MonthsPerYear == 0
	}
	return false
}

// ProjectIncome totals the income expected over horizonMonths months
// starting with the month of asOf. One-time events count only when their
// date falls inside [asOf, end of horizon].
func ProjectIncome(events []domain.IncomeEvent, asOf time.Time, horizonMonths int, opts IncomeOptions) float64 {
	if !opts.Enabled || len(events) == 0 || horizonMonths <= 0 {
		return 0
	}

	first := MonthIndex(asOf)
	var total float64
	for m := first; m < first+horizonMonths; m++ {
		total += IncomeForMonth(events, asOf, m, opts)
	}
	return total
}

// IncomeContribution12 is the 12-month income total the runway calculator consumes.
func IncomeContribution12(events []domain.IncomeEvent, asOf time.Time, opts IncomeOptions) float64 {
	return ProjectIncome(events, asOf, MonthsPerYear, opts)
}

// MonthlyIncome is one point of a month-by-month income series.
type MonthlyIncome struct {
	Month  string  `json:"month"` // 2006-01
	Amount float64 `json:"amount"`
}

// IncomeSeries expands events into per-month amounts for charts.
func IncomeSeries(events []domain.IncomeEvent, asOf time.Time, months int, opts IncomeOptions) []MonthlyIncome {
	if months <= 0 {
		return []MonthlyIncome{}
	}
	first := MonthIndex(asOf)
	series := make([]MonthlyIncome, 0, months)
	for i := 0; i < months; i++ {
		series = append(series, MonthlyIncome{
			Month:  MonthLabel(first + i),
			Amount: IncomeForMonth(events, asOf, first+i, opts),
		})
	}
	return series
}

// MonthLabel renders a MonthIndex as "2006-01".
func MonthLabel(m int) string {
	return time.Date(m/MonthsPerYear, time.Month(m%MonthsPerYear+1), 1, 0, 0, 0, 0, time.UTC).Format("2006-01")
}
