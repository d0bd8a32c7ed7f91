package port

import (
	"context"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// IncomeStore persists scheduled income events.
type IncomeStore interface {
	ListIncome(ctx context.Context, userID string) ([]domain.IncomeEvent, error)
	CreateIncome(ctx context.Context, e *domain.IncomeEvent) (*domain.IncomeEvent, error)
	UpdateIncome(ctx context.Context, userID, incomeID string, patch domain.IncomePatch) (*domain.IncomeEvent, error)
	DeleteIncome(ctx context.Context, userID, incomeID string) error
}

// ExpenseStore persists detailed expense items.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID string) ([]domain.ExpenseItem, error)
	CreateExpense(ctx context.Context, e *domain.ExpenseItem) (*domain.ExpenseItem, error)
	UpdateExpense(ctx context.Context, userID, expenseID string, patch domain.ExpensePatch) (*domain.ExpenseItem, error)
	DeleteExpense(ctx context.Context, userID, expenseID string) error
}

// SettingsStore persists one settings row per user.
// GetSettings returns *domain.ErrNotFound when the user never saved any.
type SettingsStore interface {
	GetSettings(ctx context.Context, userID string) (*domain.FinanceSettings, error)
	UpsertSettings(ctx context.Context, s *domain.FinanceSettings) (*domain.FinanceSettings, error)
}

// SnapshotStore persists point-in-time copies of a user's accounts.
type SnapshotStore interface {
	ListSnapshots(ctx context.Context, userID string) ([]domain.Snapshot, error)
	GetSnapshot(ctx context.Context, userID, snapshotID string) (*domain.Snapshot, error)
	CreateSnapshot(ctx context.Context, s *domain.Snapshot) (*domain.Snapshot, error)
	DeleteSnapshot(ctx context.Context, userID, snapshotID string) error
}
