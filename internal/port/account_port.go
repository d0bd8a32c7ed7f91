package port

import (
	"context"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// AccountStore handles account data operations. Every method is scoped to
// the owning user; a foreign ID behaves like a missing one.
type AccountStore interface {
	ListAccounts(ctx context.Context, userID string) ([]domain.Account, error)
	GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error)
	CreateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error)
	UpdateAccount(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error)
	DeleteAccount(ctx context.Context, userID, accountID string) error
	ReplaceAccounts(ctx context.Context, userID string, accounts []domain.Account) error
}
