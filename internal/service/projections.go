package service

import (
	"context"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/projection"

	"go.opentelemetry.io/otel/attribute"
)

// Projection kinds, used as the metrics label.
const (
	KindRunway          = "runway"
	KindIncome          = "income"
	KindPayoff          = "payoff"
	KindStrategy        = "strategy"
	KindScore           = "score"
	KindRequiredPayment = "required_payment"
)

// ProjectionKinds lists every kind for the engine metrics snapshot.
var ProjectionKinds = []string{KindRunway, KindIncome, KindPayoff, KindStrategy, KindScore, KindRequiredPayment}

// ============================================================
// What-if projections: ad-hoc input, nothing is read or stored
// ============================================================

// RunwayRequest is the body of POST /v1/me/projections/runway.
type RunwayRequest struct {
	Cash            float64              `json:"cash"`
	MonthlyExpenses float64              `json:"monthlyExpenses"`
	Income          []domain.IncomeEvent `json:"income"`
	IncomeEnabled   bool                 `json:"incomeEnabled"`
	ExcludedIncome  []string             `json:"excludedIncomeIds"`
	AsOf            *domain.Date         `json:"asOf,omitempty"`
	Months          int                  `json:"months"`
}

// RunwayProjection is the runway metric with its chart series.
type RunwayProjection struct {
	Runway   projection.RunwayResult   `json:"runway"`
	Label    string                    `json:"label"`
	Income12 float64                   `json:"income12"`
	Balances []projection.BalancePoint `json:"balances"`
}

func (s *FinanceService) ProjectRunway(ctx context.Context, req *RunwayRequest) (*RunwayProjection, error) {
	_, span := tracer.Start(ctx, "FinanceService.ProjectRunway")
	defer span.End()

	if err := nonNegative("cash", req.Cash); err != nil {
		return nil, err
	}
	if err := nonNegative("monthlyExpenses", req.MonthlyExpenses); err != nil {
		return nil, err
	}
	for i := range req.Income {
		if err := validateIncome(&req.Income[i]); err != nil {
			return nil, err
		}
	}
	months := req.Months
	if months <= 0 {
		months = s.horizonMonths
	}
	if months > projection.MaxPayoffMonths {
		return nil, &domain.ErrValidation{Field: "months", Message: "must be at most 600"}
	}

	asOf := s.now()
	if req.AsOf != nil {
		asOf = req.AsOf.Time
	}
	opts := incomeOptions(&domain.FinanceSettings{
		IncomeEnabled:     req.IncomeEnabled,
		ExcludedIncomeIDs: req.ExcludedIncome,
	})

	income12 := projection.IncomeContribution12(req.Income, asOf, opts)
	runway := projection.Runway(req.Cash, req.MonthlyExpenses, income12, req.IncomeEnabled)
	s.metrics.IncrProjection(KindRunway)
	s.metrics.IncrProjection(KindIncome)

	return &RunwayProjection{
		Runway:   runway,
		Label:    projection.RunwayLabel(runway.Months),
		Income12: income12,
		Balances: projection.ProjectBalances(req.Cash, req.MonthlyExpenses, req.Income, asOf, months, opts),
	}, nil
}

// PayoffRequest is the body of POST /v1/me/projections/payoff.
type PayoffRequest struct {
	Balance      float64 `json:"balance"`
	InterestRate float64 `json:"interestRate"`
	Payment      float64 `json:"payment"`
}

// PayoffProjection is a payoff simulation plus the payment that would stall it.
type PayoffProjection struct {
	projection.PayoffResult
	InterestOnlyPayment float64 `json:"interestOnlyPayment"`
}

func (s *FinanceService) ProjectPayoff(ctx context.Context, req *PayoffRequest) (*PayoffProjection, error) {
	_, span := tracer.Start(ctx, "FinanceService.ProjectPayoff")
	defer span.End()

	if err := validateDebtInput(req.Balance, req.InterestRate); err != nil {
		return nil, err
	}
	if err := nonNegative("payment", req.Payment); err != nil {
		return nil, err
	}

	result := s.simulate(req.Balance, req.InterestRate, req.Payment)
	span.SetAttributes(attribute.String("payoff.status", string(result.Status)))
	return &PayoffProjection{
		PayoffResult:        result,
		InterestOnlyPayment: projection.InterestOnlyPayment(req.Balance, req.InterestRate),
	}, nil
}

// StrategyRequest is the body of POST /v1/me/projections/strategy.
type StrategyRequest struct {
	Debts        []projection.DebtCard `json:"debts"`
	ExtraPayment float64               `json:"extraPayment"`
}

func (s *FinanceService) ProjectStrategy(ctx context.Context, req *StrategyRequest) (*projection.StrategyComparison, error) {
	_, span := tracer.Start(ctx, "FinanceService.ProjectStrategy")
	defer span.End()

	if err := nonNegative("extraPayment", req.ExtraPayment); err != nil {
		return nil, err
	}
	for _, d := range req.Debts {
		if err := validateDebtInput(d.Balance, d.InterestRate); err != nil {
			return nil, err
		}
		if d.MinimumPayment != nil {
			if err := nonNegative("minimumPayment", *d.MinimumPayment); err != nil {
				return nil, err
			}
		}
	}

	cmp := projection.CompareStrategies(req.Debts, req.ExtraPayment)
	s.metrics.IncrProjection(KindStrategy)
	return &cmp, nil
}

// ScoreRequest is the body of POST /v1/me/projections/score. When Accounts
// is set, utilization and the account count are derived from it.
type ScoreRequest struct {
	Utilization  float64          `json:"utilization"`
	AccountCount int              `json:"accountCount"`
	Accounts     []domain.Account `json:"accounts,omitempty"`
}

func (s *FinanceService) ProjectScore(ctx context.Context, req *ScoreRequest) (*projection.ScoreEstimate, error) {
	_, span := tracer.Start(ctx, "FinanceService.ProjectScore")
	defer span.End()

	util, count := req.Utilization, req.AccountCount
	if len(req.Accounts) > 0 {
		util = projection.Utilization(req.Accounts)
		count = len(req.Accounts)
	}
	if util < 0 || util > 100 {
		return nil, &domain.ErrValidation{Field: "utilization", Message: "must be between 0 and 100"}
	}
	if count < 0 {
		return nil, &domain.ErrValidation{Field: "accountCount", Message: "must not be negative"}
	}

	est := projection.EstimateCreditScoreDetail(util, count)
	s.metrics.IncrProjection(KindScore)
	return &est, nil
}

// RequiredPaymentRequest is the body of POST /v1/me/projections/required-payment.
type RequiredPaymentRequest struct {
	Balance      float64 `json:"balance"`
	InterestRate float64 `json:"interestRate"`
	Months       int     `json:"months"`
}

// RequiredPaymentResult is the payment that retires a balance in the target
// number of months, with the simulation at that payment.
type RequiredPaymentResult struct {
	Months  int                     `json:"months"`
	Payment float64                 `json:"payment"`
	Payoff  projection.PayoffResult `json:"payoff"`
}

func (s *FinanceService) ProjectRequiredPayment(ctx context.Context, req *RequiredPaymentRequest) (*RequiredPaymentResult, error) {
	_, span := tracer.Start(ctx, "FinanceService.ProjectRequiredPayment")
	defer span.End()

	if err := validateDebtInput(req.Balance, req.InterestRate); err != nil {
		return nil, err
	}
	if req.Months < 1 || req.Months > projection.MaxPayoffMonths {
		return nil, &domain.ErrValidation{Field: "months", Message: "must be between 1 and 600"}
	}
	return s.requiredPayment(req.Balance, req.InterestRate, req.Months), nil
}

func (s *FinanceService) requiredPayment(balance, rate float64, months int) *RequiredPaymentResult {
	payment := roundUpCents(projection.RequiredPayment(balance, rate, months))
	s.metrics.IncrProjection(KindRequiredPayment)
	return &RequiredPaymentResult{
		Months:  months,
		Payment: payment,
		Payoff:  s.simulate(balance, rate, payment),
	}
}

func (s *FinanceService) simulate(balance, rate, payment float64) projection.PayoffResult {
	result := projection.SimulatePayoff(balance, rate, payment)
	s.metrics.IncrProjection(KindPayoff)
	s.metrics.IncrPayoffOutcome(string(result.Status))
	return result
}

func validateDebtInput(balance, rate float64) error {
	if err := nonNegative("balance", balance); err != nil {
		return err
	}
	return nonNegative("interestRate", rate)
}

// ============================================================
// Projections over the user's own debts
// ============================================================

// PayoffPlan is the payoff of one stored liability.
type PayoffPlan struct {
	Account             *domain.Account         `json:"account"`
	Payment             float64                 `json:"payment"`
	Payoff              projection.PayoffResult `json:"payoff"`
	InterestOnlyPayment float64                 `json:"interestOnlyPayment"`
}

// PayoffPlan simulates one of the user's credit or loan accounts. A zero
// payment means the account's autopay amount, else its minimum.
func (s *FinanceService) PayoffPlan(ctx context.Context, userID, accountID string, payment float64) (*PayoffPlan, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.PayoffPlan")
	defer span.End()

	a, err := s.liability(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if err := nonNegative("payment", payment); err != nil {
		return nil, err
	}

	plan := s.debtPayoff(*a)
	if payment > 0 {
		plan.Payment = payment
		plan.Payoff = s.simulate(a.EffectiveBalance(), a.InterestRate, payment)
	}
	return &PayoffPlan{
		Account:             a,
		Payment:             plan.Payment,
		Payoff:              plan.Payoff,
		InterestOnlyPayment: projection.InterestOnlyPayment(a.EffectiveBalance(), a.InterestRate),
	}, nil
}

// DebtStrategy compares avalanche and snowball over the user's debts. A nil
// extra payment uses the amount stored in settings.
func (s *FinanceService) DebtStrategy(ctx context.Context, userID string, extra *float64) (*projection.StrategyComparison, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.DebtStrategy")
	defer span.End()

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list accounts", err)
	}

	amount := 0.0
	if extra != nil {
		amount = *extra
	} else {
		settings, err := s.GetSettings(ctx, userID)
		if err != nil {
			return nil, err
		}
		amount = settings.ExtraDebtPayment
	}
	if err := nonNegative("extra", amount); err != nil {
		return nil, err
	}

	cmp := projection.CompareStrategies(projection.DebtsFromAccounts(accounts), amount)
	s.metrics.IncrProjection(KindStrategy)
	return &cmp, nil
}

// CardCalculation is the credit-card calculator view of one card.
type CardCalculation struct {
	AccountID     string                  `json:"accountId"`
	Balance       float64                 `json:"balance"`
	InterestRate  float64                 `json:"interestRate"`
	Minimum       float64                 `json:"minimumPayment"`
	AtMinimum     projection.PayoffResult `json:"atMinimum"`
	Target        *RequiredPaymentResult  `json:"target,omitempty"`
	StatementDate *int                    `json:"statementDate,omitempty"`
	DueDate       *domain.Date            `json:"dueDate,omitempty"`
}

// CardCalculator shows how long a card takes at its minimum payment and,
// when targetMonths > 0, the payment needed to clear it in that many months.
func (s *FinanceService) CardCalculator(ctx context.Context, userID, accountID string, targetMonths int) (*CardCalculation, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CardCalculator")
	defer span.End()

	a, err := s.liability(ctx, userID, accountID)
	if err != nil {
		return nil, err
	}
	if targetMonths < 0 || targetMonths > projection.MaxPayoffMonths {
		return nil, &domain.ErrValidation{Field: "months", Message: "must be between 1 and 600"}
	}

	balance := a.EffectiveBalance()
	minimum := projection.DefaultMinimumPayment(balance)
	if a.MinimumPayment != nil {
		minimum = *a.MinimumPayment
	}

	calc := &CardCalculation{
		AccountID:     a.ID,
		Balance:       balance,
		InterestRate:  a.InterestRate,
		Minimum:       minimum,
		AtMinimum:     s.simulate(balance, a.InterestRate, minimum),
		StatementDate: a.StatementDate,
		DueDate:       a.DueDate,
	}
	if targetMonths > 0 {
		calc.Target = s.requiredPayment(balance, a.InterestRate, targetMonths)
	}
	return calc, nil
}

func (s *FinanceService) liability(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	a, err := s.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, s.storeErr("get account", err)
	}
	if !a.Category.IsLiability() {
		return nil, &domain.ErrValidation{Field: "account", Message: "not a credit or loan account"}
	}
	return a, nil
}

// roundUpCents rounds a payment up to the next cent so that paying it never
// leaves a residue past the target month.
func roundUpCents(v float64) float64 {
	cents := v * 100
	whole := float64(int64(cents))
	if cents > whole+1e-9 {
		whole++
	}
	return whole / 100
}
