package projection

import "math"

const (
	// MaxPayoffMonths bounds every amortization loop (50 years). It guards
	// against runaway iteration and is not a financial assumption.
	MaxPayoffMonths = 600

	// epsilon absorbs floating-point noise when a payment exactly equals
	// the accrued interest or a balance is left with sub-cent dust.
	epsilon = 1e-9
)

// PayoffStatus distinguishes a finished simulation from one that cannot finish.
type PayoffStatus string

const (
	// PayoffNone means there was nothing to simulate (no balance or no rate).
	PayoffNone PayoffStatus = "none"
	// PayoffPaidOff means the balance reached zero.
	PayoffPaidOff PayoffStatus = "paid_off"
	// PayoffStalled means the payment never covers the accruing interest.
	PayoffStalled PayoffStatus = "stalled"
	// PayoffCapped means the balance was still shrinking at MaxPayoffMonths.
	PayoffCapped PayoffStatus = "capped"
)

// PayoffResult is the outcome of amortizing one balance.
// Months and totals are only meaningful when Status is PayoffPaidOff.
type PayoffResult struct {
	Status        PayoffStatus `json:"status"`
	Months        int          `json:"months"`
	TotalInterest float64      `json:"totalInterest"`
	TotalPaid     float64      `json:"totalPaid"`
}

// Converged reports whether the balance was fully paid.
func (r PayoffResult) Converged() bool {
	return r.Status == PayoffPaidOff
}

// MonthlyRate converts an annual percentage rate into a monthly fraction.
func MonthlyRate(annualRatePercent float64) float64 {
	return annualRatePercent / 100 / MonthsPerYear
}

// SimulatePayoff amortizes balance under a fixed monthly payment.
// A payment that does not exceed the interest accrued in some month yields
// PayoffStalled rather than a truncated total.
func SimulatePayoff(balance, annualRatePercent, monthlyPayment float64) PayoffResult {
	if balance <= 0 || annualRatePercent <= 0 {
		return PayoffResult{Status: PayoffNone}
	}

	rate := MonthlyRate(annualRatePercent)
	remaining := balance
	var totalInterest float64

	for month := 1; month <= MaxPayoffMonths; month++ {
		interest := remaining * rate
		principal := math.Min(monthlyPayment-interest, remaining)
		if principal <= epsilon {
			return PayoffResult{Status: PayoffStalled}
		}

		totalInterest += interest
		remaining -= principal

		if remaining <= epsilon {
			return PayoffResult{
				Status:        PayoffPaidOff,
				Months:        month,
				TotalInterest: totalInterest,
				TotalPaid:     balance + totalInterest,
			}
		}
	}

	return PayoffResult{
		Status:        PayoffCapped,
		Months:        MaxPayoffMonths,
		TotalInterest: totalInterest,
		TotalPaid:     balance - remaining + totalInterest,
	}
}

// InterestOnlyPayment is the smallest payment that is still stalled: paying
// more than this eventually retires the balance.
func InterestOnlyPayment(balance, annualRatePercent float64) float64 {
	if balance <= 0 || annualRatePercent <= 0 {
		return 0
	}
	return balance * MonthlyRate(annualRatePercent)
}

// RequiredPayment is the fixed monthly payment that retires balance in
// exactly months months (standard annuity formula).
func RequiredPayment(balance, annualRatePercent float64, months int) float64 {
	if balance <= 0 || months <= 0 {
		return 0
	}
	if annualRatePercent <= 0 {
		return balance / float64(months)
	}
	r := MonthlyRate(annualRatePercent)
	growth := math.Pow(1+r, float64(months))
	return balance * r * growth / (growth - 1)
}
