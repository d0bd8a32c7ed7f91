package projection

import (
	"math"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// Score bounds of the estimate.
const (
	MinCreditScore = 300
	MaxCreditScore = 850
)

// Fixed factor allocations of the score heuristic. Payment history assumes
// the best case because no payment data is tracked.
const (
	paymentHistoryPoints = 297
	historyLengthPoints  = 100
	newCreditPoints      = 85
)

// Utilization returns used credit as a percentage of the total limit,
// clamped to [0, 100]. Paid-off accounts contribute no balance.
func Utilization(accounts []domain.Account) float64 {
	var used, limit float64
	for _, a := range accounts {
		used += a.EffectiveBalance()
		if a.CreditLimit != nil {
			limit += *a.CreditLimit
		}
	}
	return UtilizationOf(used, limit)
}

// UtilizationOf is used/limit*100 with a zero-limit guard.
func UtilizationOf(used, limit float64) float64 {
	if limit <= 0 {
		return 0
	}
	return math.Min(100, math.Max(0, used/limit*100))
}

// Band is a utilization health bucket. Every threshold is exclusive:
// exactly 30% is still "good".
type Band string

const (
	BandExcellent Band = "excellent" // <= 10
	BandGood      Band = "good"      // <= 30
	BandFair      Band = "fair"      // <= 50
	BandPoor      Band = "poor"      // <= 70
	BandBad       Band = "bad"       // <= 90
	BandCritical  Band = "critical"  // > 90
)

// UtilizationBand buckets a utilization percentage.
func UtilizationBand(pct float64) Band {
	switch {
	case pct > 90:
		return BandCritical
	case pct > 70:
		return BandBad
	case pct > 50:
		return BandPoor
	case pct > 30:
		return BandFair
	case pct > 10:
		return BandGood
	}
	return BandExcellent
}

// utilizationPoints maps each band to its score allocation.
var utilizationPoints = map[Band]int{
	BandCritical:  50,
	BandBad:       100,
	BandPoor:      150,
	BandFair:      200,
	BandGood:      235,
	BandExcellent: 255,
}

// creditMixPoints rewards the number of credit accounts.
func creditMixPoints(accountCount int) int {
	switch {
	case accountCount >= 5:
		return 85
	case accountCount >= 3:
		return 60
	case accountCount >= 1:
		return 40
	}
	return 0
}

// ScoreEstimate is a heuristic credit score with its factor breakdown.
// It is guidance for the user, not a bureau score.
type ScoreEstimate struct {
	Score          int  `json:"score"`
	PaymentHistory int  `json:"paymentHistory"`
	Utilization    int  `json:"utilization"`
	HistoryLength  int  `json:"historyLength"`
	CreditMix      int  `json:"creditMix"`
	NewCredit      int  `json:"newCredit"`
	Band           Band `json:"utilizationBand"`
}

// EstimateCreditScore returns the heuristic score clamped to [300, 850].
func EstimateCreditScore(utilization float64, accountCount int) int {
	return EstimateCreditScoreDetail(utilization, accountCount).Score
}

// EstimateCreditScoreDetail is EstimateCreditScore with the per-factor points.
func EstimateCreditScoreDetail(utilization float64, accountCount int) ScoreEstimate {
	band := UtilizationBand(utilization)
	est := ScoreEstimate{
		PaymentHistory: paymentHistoryPoints,
		Utilization:    utilizationPoints[band],
		HistoryLength:  historyLengthPoints,
		CreditMix:      creditMixPoints(accountCount),
		NewCredit:      newCreditPoints,
		Band:           band,
	}
	total := est.PaymentHistory + est.Utilization + est.HistoryLength + est.CreditMix + est.NewCredit
	est.Score = min(MaxCreditScore, max(MinCreditScore, total))
	return est
}
