package projection

import (
	"math"
	"sort"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

const (
	// MinimumPaymentFloor and MinimumPaymentRate define the default minimum
	// payment for a debt without one on file: max(25, 2% of balance).
	MinimumPaymentFloor = 25.0
	MinimumPaymentRate  = 0.02
)

// Strategy orders debts for the shared extra payment.
type Strategy string

const (
	// Avalanche attacks the highest interest rate first.
	Avalanche Strategy = "avalanche"
	// Snowball attacks the smallest balance first.
	Snowball Strategy = "snowball"
)

// Valid reports whether s is a known strategy.
func (s Strategy) Valid() bool {
	return s == Avalanche || s == Snowball
}

// DebtCard is one debt taking part in a payoff strategy.
type DebtCard struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	Balance        float64  `json:"balance"`
	InterestRate   float64  `json:"interestRate"` // annual, percent
	MinimumPayment *float64 `json:"minimumPayment,omitempty"`
}

// MinimumPaymentDue returns the debt's own minimum or the 2%/$25 default.
func (d DebtCard) MinimumPaymentDue() float64 {
	if d.MinimumPayment != nil {
		return *d.MinimumPayment
	}
	return DefaultMinimumPayment(d.Balance)
}

// DefaultMinimumPayment is max(25, balance*0.02).
func DefaultMinimumPayment(balance float64) float64 {
	return math.Max(MinimumPaymentFloor, balance*MinimumPaymentRate)
}

// DebtsFromAccounts turns credit and loan accounts with an outstanding
// effective balance into debt cards, keeping input order.
func DebtsFromAccounts(accounts []domain.Account) []DebtCard {
	debts := make([]DebtCard, 0, len(accounts))
	for _, a := range accounts {
		if !a.Category.IsLiability() || a.EffectiveBalance() <= 0 {
			continue
		}
		debts = append(debts, DebtCard{
			ID:             a.ID,
			Name:           a.Name,
			Balance:        a.EffectiveBalance(),
			InterestRate:   a.InterestRate,
			MinimumPayment: a.MinimumPayment,
		})
	}
	return debts
}

// RankDebts returns a copy of debts in strategy order. Ties keep input order.
func RankDebts(debts []DebtCard, strategy Strategy) []DebtCard {
	ranked := make([]DebtCard, len(debts))
	copy(ranked, debts)

	switch strategy {
	case Avalanche:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].InterestRate > ranked[j].InterestRate
		})
	case Snowball:
		sort.SliceStable(ranked, func(i, j int) bool {
			return ranked[i].Balance < ranked[j].Balance
		})
	}
	return ranked
}

// StrategyResult is the combined outcome of paying down every debt.
type StrategyResult struct {
	Strategy          Strategy `json:"strategy"`
	Months            int      `json:"months"`
	TotalInterestPaid float64  `json:"totalInterestPaid"`
	Order             []string `json:"order"`
	PaidOffMonth      []int    `json:"paidOffMonth"` // per entry of Order; 0 when never paid
	Completed         bool     `json:"completed"`
}

// RankAndSimulate pays all debts down month by month. Each month every open
// debt accrues interest and pays its own minimum; then the whole extra
// payment goes to the first open debt in strategy order. The loop stops when
// every balance is zero or after MaxPayoffMonths.
func RankAndSimulate(debts []DebtCard, strategy Strategy, extraPayment float64) StrategyResult {
	ranked := RankDebts(debts, strategy)

	result := StrategyResult{
		Strategy:     strategy,
		Order:        make([]string, len(ranked)),
		PaidOffMonth: make([]int, len(ranked)),
	}

	remaining := make([]float64, len(ranked))
	minimums := make([]float64, len(ranked))
	open := 0
	for i, d := range ranked {
		result.Order[i] = d.ID
		remaining[i] = math.Max(0, d.Balance)
		minimums[i] = d.MinimumPaymentDue()
		if remaining[i] > epsilon {
			open++
		}
	}

	month := 0
	for open > 0 && month < MaxPayoffMonths {
		month++

		for i, d := range ranked {
			if remaining[i] <= epsilon {
				continue
			}
			interest := remaining[i] * MonthlyRate(d.InterestRate)
			result.TotalInterestPaid += interest
			remaining[i] += interest
			remaining[i] -= math.Min(minimums[i], remaining[i])
		}

		for i := range ranked {
			if remaining[i] > epsilon {
				remaining[i] -= math.Min(extraPayment, remaining[i])
				break
			}
		}

		for i := range ranked {
			if remaining[i] <= epsilon && result.PaidOffMonth[i] == 0 && ranked[i].Balance > epsilon {
				remaining[i] = 0
				result.PaidOffMonth[i] = month
				open--
			}
		}
	}

	result.Months = month
	result.Completed = open == 0
	return result
}

// StrategyComparison sets both strategies side by side.
type StrategyComparison struct {
	Avalanche     StrategyResult `json:"avalanche"`
	Snowball      StrategyResult `json:"snowball"`
	InterestSaved float64        `json:"interestSaved"` // snowball minus avalanche
	MonthsSaved   int            `json:"monthsSaved"`
}

// CompareStrategies simulates both strategies with the same extra payment.
func CompareStrategies(debts []DebtCard, extraPayment float64) StrategyComparison {
	av := RankAndSimulate(debts, Avalanche, extraPayment)
	sb := RankAndSimulate(debts, Snowball, extraPayment)
	return StrategyComparison{
		Avalanche:     av,
		Snowball:      sb,
		InterestSaved: sb.TotalInterestPaid - av.TotalInterestPaid,
		MonthsSaved:   sb.Months - av.Months,
	}
}
