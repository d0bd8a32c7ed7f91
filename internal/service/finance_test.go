package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/cache"
	"github.com/boddenberg/runway-bfa/internal/infra/observability"
	"github.com/boddenberg/runway-bfa/internal/projection"
	"github.com/boddenberg/runway-bfa/internal/service"

	"go.uber.org/zap"
)

const userID = "user-1"

func newService(t *testing.T, store *memStore) (*service.FinanceService, *observability.Metrics) {
	t.Helper()
	c := cache.New[*service.Dashboard](5 * time.Minute)
	t.Cleanup(func() { _ = c.Close() })
	m := observability.NewMetrics()
	return service.NewFinanceService(store, c, m, zap.NewNop(), 12), m
}

func ptr[T any](v T) *T { return &v }

// seed stores a cash account, one credit card and simple-mode settings.
func seed(t *testing.T, svc *service.FinanceService) (cash, card *domain.Account) {
	t.Helper()
	ctx := context.Background()

	cash, err := svc.CreateAccount(ctx, userID, &domain.Account{
		Name: "Checking", Category: domain.CategoryCash, Balance: 9000,
	})
	if err != nil {
		t.Fatalf("create cash: %v", err)
	}
	card, err = svc.CreateAccount(ctx, userID, &domain.Account{
		Name: "Visa", Category: domain.CategoryCredit, Balance: 3000,
		InterestRate: 20, CreditLimit: ptr(10000.0),
	})
	if err != nil {
		t.Fatalf("create card: %v", err)
	}
	if _, err := svc.UpdateSettings(ctx, userID, &domain.FinanceSettings{
		MonthlyExpenses: 3000,
		ExpenseMode:     domain.ExpenseModeSimple,
	}); err != nil {
		t.Fatalf("settings: %v", err)
	}
	return cash, card
}

// --- Tests ---

func TestDashboard_Projections(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	seed(t, svc)

	d, err := svc.Dashboard(context.Background(), userID)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	if d.Runway.Days != 90 || d.Runway.Months != 3.0 {
		t.Errorf("expected runway 90 days / 3.0 months, got %+v", d.Runway)
	}
	if d.RunwayLabel != "3.0" {
		t.Errorf("expected label 3.0, got %s", d.RunwayLabel)
	}
	if d.Totals.NetWorth != 6000 {
		t.Errorf("expected net worth 6000, got %f", d.Totals.NetWorth)
	}
	if d.Utilization < 29.999 || d.Utilization > 30.001 {
		t.Errorf("expected utilization 30, got %f", d.Utilization)
	}
	if d.UtilizationBand != projection.BandGood {
		t.Errorf("expected band good at exactly 30%%, got %s", d.UtilizationBand)
	}
	if len(d.Debts) != 1 {
		t.Fatalf("expected 1 debt, got %d", len(d.Debts))
	}
	if d.Debts[0].Payment != 60 {
		t.Errorf("expected default minimum 60 (2%% of 3000), got %f", d.Debts[0].Payment)
	}
	if d.Debts[0].Payoff.Status != projection.PayoffPaidOff {
		t.Errorf("expected paid_off, got %s", d.Debts[0].Payoff.Status)
	}
	if len(d.BalanceProjection) != 12 || len(d.IncomeSeries) != 12 {
		t.Errorf("expected 12-month series, got %d/%d", len(d.BalanceProjection), len(d.IncomeSeries))
	}
	if d.ScoreEstimate.CreditMix != 40 {
		t.Errorf("expected credit mix 40 for one account, got %d", d.ScoreEstimate.CreditMix)
	}
}

func TestDashboard_IncomeExtendsRunway(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	seed(t, svc)
	ctx := context.Background()

	now := time.Now().UTC()
	nextMonth := domain.NewDate(time.Date(now.Year(), now.Month()+1, 1, 0, 0, 0, 0, time.UTC))
	if _, err := svc.CreateIncome(ctx, userID, &domain.IncomeEvent{
		Name: "Salary", Amount: 1000, Date: nextMonth, Frequency: domain.FrequencyMonthly,
	}); err != nil {
		t.Fatalf("create income: %v", err)
	}
	bonus, err := svc.CreateIncome(ctx, userID, &domain.IncomeEvent{
		Name: "Bonus", Amount: 5000, Date: nextMonth, Frequency: domain.FrequencyOneTime,
	})
	if err != nil {
		t.Fatalf("create income: %v", err)
	}

	settings, _ := svc.GetSettings(ctx, userID)
	settings.IncomeEnabled = true
	settings.ExcludedIncomeIDs = []string{bonus.ID}
	if _, err := svc.UpdateSettings(ctx, userID, settings); err != nil {
		t.Fatalf("settings: %v", err)
	}

	d, err := svc.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.Income12 != 11000 {
		t.Errorf("expected 11 salary months and no bonus, got %f", d.Income12)
	}
	// (9000 + 11000) / 3000 = 6.7
	if d.Runway.WithIncomeMonths != 6.7 {
		t.Errorf("expected 6.7 months with income, got %f", d.Runway.WithIncomeMonths)
	}
	if d.Runway.AdditionalMonthsFromIncome != 3.7 {
		t.Errorf("expected 3.7 additional months, got %f", d.Runway.AdditionalMonthsFromIncome)
	}
}

func TestDashboard_DetailedExpenses(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	seed(t, svc)
	ctx := context.Background()

	for _, e := range []domain.ExpenseItem{
		{Name: "Rent", Amount: 1200, Frequency: domain.ExpenseMonthly},
		{Name: "Insurance", Amount: 600, Frequency: domain.ExpenseYearly},
	} {
		if _, err := svc.CreateExpense(ctx, userID, &e); err != nil {
			t.Fatalf("create expense: %v", err)
		}
	}
	if _, err := svc.UpdateSettings(ctx, userID, &domain.FinanceSettings{
		MonthlyExpenses: 3000, ExpenseMode: domain.ExpenseModeDetailed,
	}); err != nil {
		t.Fatalf("settings: %v", err)
	}

	d, err := svc.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if d.MonthlyExpenses != 1250 {
		t.Errorf("expected 1200 + 600/12 = 1250, got %f", d.MonthlyExpenses)
	}
}

func TestDashboard_CachedUntilMutation(t *testing.T) {
	store := newMemStore()
	svc, m := newService(t, store)
	_, card := seed(t, svc)
	ctx := context.Background()

	first, err := svc.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if _, err := svc.Dashboard(ctx, userID); err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if got := store.callCount("ListAccounts"); got != 1 {
		t.Errorf("expected cached dashboard, store hit %d times", got)
	}

	if _, err := svc.UpdateAccount(ctx, userID, card.ID, domain.AccountPatch{IsPaidOff: ptr(true)}); err != nil {
		t.Fatalf("update: %v", err)
	}
	second, err := svc.Dashboard(ctx, userID)
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if store.callCount("ListAccounts") != 2 {
		t.Error("expected mutation to invalidate the cache")
	}
	if second.Totals.NetWorth != 9000 || first.Totals.NetWorth != 6000 {
		t.Errorf("expected paid-off card to drop out, got %f -> %f", first.Totals.NetWorth, second.Totals.NetWorth)
	}

	snap := m.Snapshot(service.ProjectionKinds, []string{store.Name()})
	if snap.DashboardsBuilt != 2 {
		t.Errorf("expected 2 dashboards built, got %d", snap.DashboardsBuilt)
	}
	if snap.CacheHitRate < 0.33 || snap.CacheHitRate > 0.34 {
		t.Errorf("expected hit rate 1/3, got %f", snap.CacheHitRate)
	}
}

func TestDashboard_StoreError(t *testing.T) {
	store := newMemStore()
	store.listErr = &domain.ErrExternalService{Service: "memory", Err: errors.New("connection refused")}
	svc, m := newService(t, store)

	_, err := svc.Dashboard(context.Background(), userID)
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var ext *domain.ErrExternalService
	if !errors.As(err, &ext) {
		t.Errorf("expected ErrExternalService in chain, got %T", err)
	}
	if got := m.Snapshot(nil, []string{"memory"}).StoreErrors; got == 0 {
		t.Error("expected store errors to be counted")
	}
}

func TestDashboard_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc, _ := newService(t, newMemStore())
	if _, err := svc.Dashboard(ctx, userID); err == nil {
		t.Fatal("expected error for cancelled context, got nil")
	}
}

func TestCreateAccount_Validation(t *testing.T) {
	svc, _ := newService(t, newMemStore())

	tests := []struct {
		name    string
		account domain.Account
		field   string
	}{
		{"missing name", domain.Account{Category: domain.CategoryCash}, "name"},
		{"unknown category", domain.Account{Name: "x", Category: "crypto"}, "category"},
		{"negative balance", domain.Account{Name: "x", Category: domain.CategoryCash, Balance: -1}, "balance"},
		{"negative rate", domain.Account{Name: "x", Category: domain.CategoryCredit, InterestRate: -2}, "interest_rate"},
		{"statement day 0", domain.Account{Name: "x", Category: domain.CategoryCredit, StatementDate: ptr(0)}, "statement_date"},
		{"statement day 32", domain.Account{Name: "x", Category: domain.CategoryCredit, StatementDate: ptr(32)}, "statement_date"},
		{"bad autopay", domain.Account{Name: "x", Category: domain.CategoryCredit, AutopayAmountType: ptr(domain.AutopayType("HALF"))}, "autopay_amount_type"},
		{"custom autopay without amount", domain.Account{
			Name: "x", Category: domain.CategoryCredit, AutopayEnabled: true, AutopayAmountType: ptr(domain.AutopayCustom),
		}, "autopay_custom_amount"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateAccount(context.Background(), userID, &tt.account)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if ve.Field != tt.field {
				t.Errorf("expected field %s, got %s", tt.field, ve.Field)
			}
		})
	}
}

func TestUpdateAccount_ValidatesPatchedAccount(t *testing.T) {
	store := newMemStore()
	svc, _ := newService(t, store)
	cash, _ := seed(t, svc)

	_, err := svc.UpdateAccount(context.Background(), userID, cash.ID, domain.AccountPatch{Balance: ptr(-5.0)})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) {
		t.Fatalf("expected validation error, got %v", err)
	}
	got, _ := store.GetAccount(context.Background(), userID, cash.ID)
	if got.Balance != 9000 {
		t.Errorf("expected balance untouched, got %f", got.Balance)
	}
}

func TestUpdateAccount_OtherUser(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	cash, _ := seed(t, svc)

	_, err := svc.UpdateAccount(context.Background(), "someone-else", cash.ID, domain.AccountPatch{Name: ptr("mine")})
	var nf *domain.ErrNotFound
	if !errors.As(err, &nf) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestIncome_CRUD(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	ctx := context.Background()

	e, err := svc.CreateIncome(ctx, userID, &domain.IncomeEvent{
		Name: "Freelance", Amount: 800, Date: domain.MustDate("2030-01-10"), Frequency: domain.FrequencyMonthly,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	_, err = svc.UpdateIncome(ctx, userID, e.ID, domain.IncomePatch{EndDate: ptr(domain.MustDate("2029-12-01"))})
	var ve *domain.ErrValidation
	if !errors.As(err, &ve) || ve.Field != "end_date" {
		t.Fatalf("expected end_date validation error, got %v", err)
	}

	updated, err := svc.UpdateIncome(ctx, userID, e.ID, domain.IncomePatch{Amount: ptr(900.0)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Amount != 900 {
		t.Errorf("expected 900, got %f", updated.Amount)
	}

	if _, err := svc.UpdateIncome(ctx, userID, "missing", domain.IncomePatch{}); err == nil {
		t.Error("expected not found for unknown income")
	}

	if err := svc.DeleteIncome(ctx, userID, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	list, _ := svc.ListIncome(ctx, userID)
	if len(list) != 0 {
		t.Errorf("expected empty list, got %d", len(list))
	}

	_, err = svc.CreateIncome(ctx, userID, &domain.IncomeEvent{
		Name: "x", Amount: 1, Date: domain.MustDate("2030-01-01"), Frequency: "weekly",
	})
	if !errors.As(err, &ve) || ve.Field != "frequency" {
		t.Errorf("expected frequency validation error, got %v", err)
	}
}

func TestExpenses_CRUD(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	ctx := context.Background()

	e, err := svc.CreateExpense(ctx, userID, &domain.ExpenseItem{Name: "Gym", Amount: 40})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if e.Frequency != domain.ExpenseMonthly {
		t.Errorf("expected monthly default, got %s", e.Frequency)
	}

	if _, err := svc.UpdateExpense(ctx, userID, e.ID, domain.ExpensePatch{Amount: ptr(-1.0)}); err == nil {
		t.Error("expected validation error for negative amount")
	}
	updated, err := svc.UpdateExpense(ctx, userID, e.ID, domain.ExpensePatch{Frequency: ptr(domain.ExpenseWeekly)})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Frequency != domain.ExpenseWeekly {
		t.Errorf("expected weekly, got %s", updated.Frequency)
	}
	if err := svc.DeleteExpense(ctx, userID, e.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
}

func TestSettings_DefaultsAndValidation(t *testing.T) {
	svc, _ := newService(t, newMemStore())
	ctx := context.Background()

	s, err := svc.GetSettings(ctx, "new-user")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if s.ExpenseMode != domain.ExpenseModeSimple || !s.IncomeEnabled || s.ExcludedIncomeIDs == nil {
		t.Errorf("unexpected defaults: %+v", s)
	}

	tests := []struct {
		name     string
		settings domain.FinanceSettings
		field    string
	}{
		{"score too high", domain.FinanceSettings{CreditScore: ptr(851)}, "credit_score"},
		{"score too low", domain.FinanceSettings{CreditScore: ptr(299)}, "credit_score"},
		{"negative expenses", domain.FinanceSettings{MonthlyExpenses: -1}, "monthly_expenses"},
		{"bad mode", domain.FinanceSettings{ExpenseMode: "fancy"}, "expense_mode"},
		{"negative extra", domain.FinanceSettings{ExtraDebtPayment: -10}, "extra_debt_payment"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.UpdateSettings(ctx, userID, &tt.settings)
			var ve *domain.ErrValidation
			if !errors.As(err, &ve) || ve.Field != tt.field {
				t.Errorf("expected %s validation error, got %v", tt.field, err)
			}
		})
	}

	for _, score := range []int{300, 850} {
		if _, err := svc.UpdateSettings(ctx, userID, &domain.FinanceSettings{CreditScore: ptr(score)}); err != nil {
			t.Errorf("score %d should be accepted: %v", score, err)
		}
	}
}
