package projection

import (
	"math"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// WeeksPerMonth converts weekly expenses to a monthly figure.
const WeeksPerMonth = 4.33

// MonthlyEquivalent normalizes one expense item to a monthly amount.
func MonthlyEquivalent(item domain.ExpenseItem) float64 {
	switch item.Frequency {
	case domain.ExpenseWeekly:
		return item.Amount * WeeksPerMonth
	case domain.ExpenseYearly:
		return item.Amount / MonthsPerYear
	}
	return item.Amount
}

// MonthlyExpenses sums the monthly equivalents of every item.
func MonthlyExpenses(items []domain.ExpenseItem) float64 {
	var total float64
	for _, it := range items {
		total += MonthlyEquivalent(it)
	}
	return total
}

// BurnRate picks the monthly expense figure the projections consume:
// the stored scalar in simple mode, the item sum in detailed mode.
func BurnRate(settings domain.FinanceSettings, items []domain.ExpenseItem) float64 {
	if settings.ExpenseMode == domain.ExpenseModeDetailed {
		return MonthlyExpenses(items)
	}
	return settings.MonthlyExpenses
}

// Totals are the per-category sums of effective balances.
type Totals struct {
	Cash        float64 `json:"cash"`
	Investments float64 `json:"investments"`
	Credit      float64 `json:"credit"`
	Loans       float64 `json:"loans"`
	OtherAssets float64 `json:"otherAssets"`
	Assets      float64 `json:"assets"`
	Liabilities float64 `json:"liabilities"`
	NetWorth    float64 `json:"netWorth"`
}

// Summarize totals grouped accounts. Liabilities are subtracted from assets.
func Summarize(groups domain.AccountGroups) Totals {
	sum := func(c domain.Category) float64 {
		var total float64
		for _, a := range groups[c] {
			total += a.EffectiveBalance()
		}
		return total
	}

	t := Totals{
		Cash:        sum(domain.CategoryCash),
		Investments: sum(domain.CategoryInvestments),
		Credit:      sum(domain.CategoryCredit),
		Loans:       sum(domain.CategoryLoans),
		OtherAssets: sum(domain.CategoryOtherAssets),
	}
	t.Assets = t.Cash + t.Investments + t.OtherAssets
	t.Liabilities = t.Credit + t.Loans
	t.NetWorth = t.Assets - t.Liabilities
	return t
}

// NetWorth is assets minus liabilities.
func NetWorth(groups domain.AccountGroups) float64 {
	return Summarize(groups).NetWorth
}

// AutopayAmount is what an account's autopay rule pays this cycle; zero when
// autopay is off or nothing is owed.
func AutopayAmount(a domain.Account) float64 {
	owed := a.EffectiveBalance()
	if !a.AutopayEnabled || owed <= 0 {
		return 0
	}

	kind := domain.AutopayMinimum
	if a.AutopayAmountType != nil {
		kind = *a.AutopayAmountType
	}

	switch kind {
	case domain.AutopayFullBalance:
		return owed
	case domain.AutopayCustom:
		if a.AutopayCustomAmount == nil {
			return 0
		}
		return math.Min(*a.AutopayCustomAmount, owed)
	}

	minimum := DefaultMinimumPayment(owed)
	if a.MinimumPayment != nil {
		minimum = *a.MinimumPayment
	}
	return math.Min(minimum, owed)
}
