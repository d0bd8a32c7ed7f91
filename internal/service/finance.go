// Package service provides the business logic layer (use cases).
// FinanceService owns a user's accounts, income, expenses and settings and
// builds the projection dashboard from them.
package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
	"github.com/boddenberg/runway-bfa/internal/infra/observability"
	"github.com/boddenberg/runway-bfa/internal/port"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

var tracer = otel.Tracer("service/finance")

// FinanceService orchestrates the finance store, the dashboard cache and
// the projection engine.
type FinanceService struct {
	store         port.FinanceStore
	cache         port.Cache[*Dashboard]
	metrics       *observability.Metrics
	logger        *zap.Logger
	horizonMonths int
	now           func() time.Time
}

// NewFinanceService creates the finance service with all dependencies injected.
// horizonMonths is the length of the income and balance series on the dashboard.
func NewFinanceService(
	store port.FinanceStore,
	cache port.Cache[*Dashboard],
	metrics *observability.Metrics,
	logger *zap.Logger,
	horizonMonths int,
) *FinanceService {
	if horizonMonths <= 0 {
		horizonMonths = 12
	}
	return &FinanceService{
		store:         store,
		cache:         cache,
		metrics:       metrics,
		logger:        logger,
		horizonMonths: horizonMonths,
		now:           time.Now,
	}
}

// BackendName is the name of the store in use, for health output.
func (s *FinanceService) BackendName() string {
	return s.store.Name()
}

// Ping checks the store.
func (s *FinanceService) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}

func dashboardKey(userID string) string {
	return "dashboard:" + userID
}

// invalidate drops the cached dashboard after any mutation.
func (s *FinanceService) invalidate(ctx context.Context, userID string) {
	s.cache.Delete(ctx, dashboardKey(userID))
}

// storeErr counts backend failures and wraps err with the operation name.
// Domain errors (not found, conflict) are the caller's problem, not the backend's.
func (s *FinanceService) storeErr(op string, err error) error {
	var (
		ext *domain.ErrExternalService
		cb  *domain.ErrCircuitOpen
	)
	if errors.As(err, &ext) || errors.As(err, &cb) {
		s.metrics.IncrStoreError(s.store.Name())
		s.logger.Error("store call failed", zap.String("op", op), zap.Error(err))
	}
	return fmt.Errorf("%s: %w", op, err)
}

// ============================================================
// Accounts
// ============================================================

func (s *FinanceService) ListAccounts(ctx context.Context, userID string) (domain.AccountGroups, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	accounts, err := s.store.ListAccounts(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list accounts", err)
	}
	return domain.GroupAccounts(accounts), nil
}

func (s *FinanceService) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.GetAccount")
	defer span.End()

	a, err := s.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, s.storeErr("get account", err)
	}
	return a, nil
}

func (s *FinanceService) CreateAccount(ctx context.Context, userID string, a *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateAccount")
	defer span.End()

	a.ID = ""
	a.UserID = userID
	if err := validateAccount(a); err != nil {
		return nil, err
	}

	created, err := s.store.CreateAccount(ctx, a)
	if err != nil {
		return nil, s.storeErr("create account", err)
	}
	s.invalidate(ctx, userID)

	s.logger.Info("account created",
		zap.String("user_id", userID),
		zap.String("account_id", created.ID),
		zap.String("category", string(created.Category)),
	)
	return created, nil
}

// UpdateAccount applies a field-level patch. The patched account is validated
// as a whole before anything is written.
func (s *FinanceService) UpdateAccount(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.UpdateAccount")
	defer span.End()

	current, err := s.store.GetAccount(ctx, userID, accountID)
	if err != nil {
		return nil, s.storeErr("get account", err)
	}
	next := *current
	patch.Apply(&next)
	if err := validateAccount(&next); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateAccount(ctx, userID, accountID, patch)
	if err != nil {
		return nil, s.storeErr("update account", err)
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *FinanceService) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteAccount")
	defer span.End()

	if err := s.store.DeleteAccount(ctx, userID, accountID); err != nil {
		return s.storeErr("delete account", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// ============================================================
// Income events
// ============================================================

func (s *FinanceService) ListIncome(ctx context.Context, userID string) ([]domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListIncome")
	defer span.End()

	events, err := s.store.ListIncome(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list income", err)
	}
	return events, nil
}

func (s *FinanceService) CreateIncome(ctx context.Context, userID string, e *domain.IncomeEvent) (*domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateIncome")
	defer span.End()

	e.ID = ""
	e.UserID = userID
	if err := validateIncome(e); err != nil {
		return nil, err
	}

	created, err := s.store.CreateIncome(ctx, e)
	if err != nil {
		return nil, s.storeErr("create income", err)
	}
	s.invalidate(ctx, userID)
	return created, nil
}

func (s *FinanceService) UpdateIncome(ctx context.Context, userID, incomeID string, patch domain.IncomePatch) (*domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.UpdateIncome")
	defer span.End()

	events, err := s.store.ListIncome(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list income", err)
	}
	var current *domain.IncomeEvent
	for i := range events {
		if events[i].ID == incomeID {
			current = &events[i]
			break
		}
	}
	if current == nil {
		return nil, &domain.ErrNotFound{Resource: "income event", ID: incomeID}
	}
	next := *current
	patch.Apply(&next)
	if err := validateIncome(&next); err != nil {
		return nil, err
	}

	updated, err := s.store.UpdateIncome(ctx, userID, incomeID, patch)
	if err != nil {
		return nil, s.storeErr("update income", err)
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *FinanceService) DeleteIncome(ctx context.Context, userID, incomeID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteIncome")
	defer span.End()

	if err := s.store.DeleteIncome(ctx, userID, incomeID); err != nil {
		return s.storeErr("delete income", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// ============================================================
// Expense items
// ============================================================

func (s *FinanceService) ListExpenses(ctx context.Context, userID string) ([]domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.ListExpenses")
	defer span.End()

	items, err := s.store.ListExpenses(ctx, userID)
	if err != nil {
		return nil, s.storeErr("list expenses", err)
	}
	return items, nil
}

func (s *FinanceService) CreateExpense(ctx context.Context, userID string, e *domain.ExpenseItem) (*domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.CreateExpense")
	defer span.End()

	e.ID = ""
	e.UserID = userID
	if e.Frequency == "" {
		e.Frequency = domain.ExpenseMonthly
	}
	if err := validateExpense(e); err != nil {
		return nil, err
	}

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		return nil, s.storeErr("create expense", err)
	}
	s.invalidate(ctx, userID)
	return created, nil
}

func (s *FinanceService) UpdateExpense(ctx context.Context, userID, expenseID string, patch domain.ExpensePatch) (*domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.UpdateExpense")
	defer span.End()

	if patch.Name != nil && *patch.Name == "" {
		return nil, &domain.ErrValidation{Field: "name", Message: "name is required"}
	}
	if patch.Amount != nil {
		if err := nonNegative("amount", *patch.Amount); err != nil {
			return nil, err
		}
	}
	if patch.Frequency != nil && !patch.Frequency.Valid() {
		return nil, &domain.ErrValidation{Field: "frequency", Message: "must be weekly, monthly or yearly"}
	}

	updated, err := s.store.UpdateExpense(ctx, userID, expenseID, patch)
	if err != nil {
		return nil, s.storeErr("update expense", err)
	}
	s.invalidate(ctx, userID)
	return updated, nil
}

func (s *FinanceService) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "FinanceService.DeleteExpense")
	defer span.End()

	if err := s.store.DeleteExpense(ctx, userID, expenseID); err != nil {
		return s.storeErr("delete expense", err)
	}
	s.invalidate(ctx, userID)
	return nil
}

// ============================================================
// Settings
// ============================================================

// GetSettings returns the stored settings or the defaults for a user that
// never saved any.
func (s *FinanceService) GetSettings(ctx context.Context, userID string) (*domain.FinanceSettings, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.GetSettings")
	defer span.End()

	settings, err := s.store.GetSettings(ctx, userID)
	var nf *domain.ErrNotFound
	if errors.As(err, &nf) {
		return domain.DefaultSettings(userID), nil
	}
	if err != nil {
		return nil, s.storeErr("get settings", err)
	}
	if settings.ExcludedIncomeIDs == nil {
		settings.ExcludedIncomeIDs = []string{}
	}
	return settings, nil
}

func (s *FinanceService) UpdateSettings(ctx context.Context, userID string, settings *domain.FinanceSettings) (*domain.FinanceSettings, error) {
	ctx, span := tracer.Start(ctx, "FinanceService.UpdateSettings")
	defer span.End()

	settings.UserID = userID
	if settings.ExpenseMode == "" {
		settings.ExpenseMode = domain.ExpenseModeSimple
	}
	if settings.ExcludedIncomeIDs == nil {
		settings.ExcludedIncomeIDs = []string{}
	}
	if err := validateSettings(settings); err != nil {
		return nil, err
	}
	settings.UpdatedAt = s.now().UTC()

	saved, err := s.store.UpsertSettings(ctx, settings)
	if err != nil {
		return nil, s.storeErr("save settings", err)
	}
	s.invalidate(ctx, userID)
	return saved, nil
}
