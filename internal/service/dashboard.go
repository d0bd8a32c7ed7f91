package service

import (
	"context"
	"fmt"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/observability"
	"github.com/boddenberg/runway-bfa/internal/projection"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Dashboard is every projection for one user, computed from live state.
type Dashboard struct {
	UserID          string               `json:"userId"`
	AsOf            domain.Date          `json:"asOf"`
	Accounts        domain.AccountGroups `json:"accounts"`
	Totals          projection.Totals    `json:"totals"`
	ExpenseMode     domain.ExpenseMode   `json:"expenseMode"`
	MonthlyExpenses float64              `json:"monthlyExpenses"`
	IncomeEnabled   bool                 `json:"incomeEnabled"`
	IncomeEvents    int                  `json:"incomeEvents"`
	Income12        float64              `json:"income12"`

	Runway      projection.RunwayResult `json:"runway"`
	RunwayLabel string                  `json:"runwayLabel"`

	IncomeSeries      []projection.MonthlyIncome `json:"incomeSeries"`
	BalanceProjection []projection.BalancePoint  `json:"balanceProjection"`

	Utilization     float64                       `json:"utilization"`
	UtilizationBand projection.Band               `json:"utilizationBand"`
	CreditScore     *int                          `json:"creditScore,omitempty"` // as entered by the user
	ScoreEstimate   projection.ScoreEstimate      `json:"scoreEstimate"`
	Debts           []DebtPayoff                  `json:"debts"`
	Strategies      projection.StrategyComparison `json:"strategies"`

	GeneratedAt time.Time `json:"generatedAt"`
}

// DebtPayoff is one liability paid down at its scheduled payment.
type DebtPayoff struct {
	AccountID    string                  `json:"accountId"`
	Name         string                  `json:"name"`
	Category     domain.Category         `json:"category"`
	Balance      float64                 `json:"balance"`
	InterestRate float64                 `json:"interestRate"`
	Payment      float64                 `json:"payment"`
	Autopay      float64                 `json:"autopay"`
	Payoff       projection.PayoffResult `json:"payoff"`
}

// dashboardInputs is the live state a dashboard is computed from.
type dashboardInputs struct {
	accounts []domain.Account
	income   []domain.IncomeEvent
	expenses []domain.ExpenseItem
	settings *domain.FinanceSettings
}

// Dashboard returns the user's projection dashboard, from cache when fresh.
// The four store reads run concurrently.
func (s *FinanceService) Dashboard(ctx context.Context, userID string) (*Dashboard, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, "FinanceService.Dashboard")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	key := dashboardKey(userID)
	if cached, ok := s.cache.Get(ctx, key); ok && cached != nil {
		s.metrics.IncrCacheHit(observability.CacheDashboard)
		return cached, nil
	}
	s.metrics.IncrCacheMiss(observability.CacheDashboard)

	start := time.Now()
	defer func() {
		s.metrics.RecordRequestDuration(observability.OpDashboard, time.Since(start))
	}()

	in, err := s.loadInputs(ctx, userID)
	if err != nil {
		return nil, err
	}

	d := s.buildDashboard(userID, in)
	s.metrics.IncrDashboard()
	s.cache.Set(ctx, key, d)

	s.logger.Debug("dashboard built",
		zap.String("user_id", userID),
		zap.Int("accounts", len(in.accounts)),
		zap.Float64("runway_months", d.Runway.Months),
	)
	return d, nil
}

func (s *FinanceService) loadInputs(ctx context.Context, userID string) (*dashboardInputs, error) {
	in := &dashboardInputs{}
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		accounts, err := s.store.ListAccounts(gCtx, userID)
		if err != nil {
			return s.storeErr("accounts fetch", err)
		}
		in.accounts = accounts
		return nil
	})

	g.Go(func() error {
		income, err := s.store.ListIncome(gCtx, userID)
		if err != nil {
			return s.storeErr("income fetch", err)
		}
		in.income = income
		return nil
	})

	g.Go(func() error {
		expenses, err := s.store.ListExpenses(gCtx, userID)
		if err != nil {
			return s.storeErr("expenses fetch", err)
		}
		in.expenses = expenses
		return nil
	})

	g.Go(func() error {
		settings, err := s.GetSettings(gCtx, userID)
		if err != nil {
			return fmt.Errorf("settings fetch: %w", err)
		}
		in.settings = settings
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return in, nil
}

// buildDashboard runs every projection over the loaded state.
func (s *FinanceService) buildDashboard(userID string, in *dashboardInputs) *Dashboard {
	now := s.now()
	asOf := domain.NewDate(now)
	groups := domain.GroupAccounts(in.accounts)
	totals := projection.Summarize(groups)
	opts := incomeOptions(in.settings)

	burn := projection.BurnRate(*in.settings, in.expenses)
	income12 := projection.IncomeContribution12(in.income, asOf.Time, opts)
	runway := projection.Runway(totals.Cash, burn, income12, in.settings.IncomeEnabled)

	credit := groups[domain.CategoryCredit]
	liabilities := append(append([]domain.Account{}, credit...), groups[domain.CategoryLoans]...)
	utilization := projection.Utilization(credit)

	debts := projection.DebtsFromAccounts(liabilities)
	payoffs := make([]DebtPayoff, 0, len(debts))
	for _, a := range liabilities {
		if a.EffectiveBalance() <= 0 {
			continue
		}
		payoffs = append(payoffs, s.debtPayoff(a))
	}

	s.metrics.IncrProjection(KindRunway)
	s.metrics.IncrProjection(KindIncome)
	s.metrics.IncrProjection(KindScore)
	s.metrics.IncrProjection(KindStrategy)

	return &Dashboard{
		UserID:            userID,
		AsOf:              asOf,
		Accounts:          groups,
		Totals:            totals,
		ExpenseMode:       in.settings.ExpenseMode,
		MonthlyExpenses:   burn,
		IncomeEnabled:     in.settings.IncomeEnabled,
		IncomeEvents:      len(in.income),
		Income12:          income12,
		Runway:            runway,
		RunwayLabel:       projection.RunwayLabel(runway.Months),
		IncomeSeries:      projection.IncomeSeries(in.income, asOf.Time, s.horizonMonths, opts),
		BalanceProjection: projection.ProjectBalances(totals.Cash, burn, in.income, asOf.Time, s.horizonMonths, opts),
		Utilization:       utilization,
		UtilizationBand:   projection.UtilizationBand(utilization),
		CreditScore:       in.settings.CreditScore,
		ScoreEstimate:     projection.EstimateCreditScoreDetail(utilization, len(liabilities)),
		Debts:             payoffs,
		Strategies:        projection.CompareStrategies(debts, in.settings.ExtraDebtPayment),
		GeneratedAt:       now.UTC(),
	}
}

// debtPayoff simulates one liability at its autopay amount, or at its
// minimum payment when autopay is off.
func (s *FinanceService) debtPayoff(a domain.Account) DebtPayoff {
	minimum := projection.DefaultMinimumPayment(a.EffectiveBalance())
	if a.MinimumPayment != nil {
		minimum = *a.MinimumPayment
	}
	autopay := projection.AutopayAmount(a)
	payment := minimum
	if autopay > 0 {
		payment = autopay
	}

	result := projection.SimulatePayoff(a.EffectiveBalance(), a.InterestRate, payment)
	s.metrics.IncrProjection(KindPayoff)
	s.metrics.IncrPayoffOutcome(string(result.Status))

	return DebtPayoff{
		AccountID:    a.ID,
		Name:         a.Name,
		Category:     a.Category,
		Balance:      a.EffectiveBalance(),
		InterestRate: a.InterestRate,
		Payment:      payment,
		Autopay:      autopay,
		Payoff:       result,
	}
}

// incomeOptions turns stored settings into engine options.
func incomeOptions(settings *domain.FinanceSettings) projection.IncomeOptions {
	opts := projection.IncomeOptions{Enabled: settings.IncomeEnabled}
	if len(settings.ExcludedIncomeIDs) > 0 {
		opts.Excluded = make(map[string]bool, len(settings.ExcludedIncomeIDs))
		for _, id := range settings.ExcludedIncomeIDs {
			opts.Excluded[id] = true
		}
	}
	return opts
}
