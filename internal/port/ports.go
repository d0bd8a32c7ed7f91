// Package port defines the interfaces (ports) for external dependencies.
// Following hexagonal architecture, these ports decouple the domain/service
// layer from concrete implementations.
package port

import (
	"context"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// Cache provides generic caching with TTL. Implementations swallow backend
// errors and report them as misses.
type Cache[T any] interface {
	Get(ctx context.Context, key string) (T, bool)
	Set(ctx context.Context, key string, value T)
	Delete(ctx context.Context, key string)
}

// UserStore persists login identities.
type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)
}

// FinanceStore is everything the finance service persists. Both the
// Supabase and the SQLite adapters implement it.
type FinanceStore interface {
	AccountStore
	IncomeStore
	ExpenseStore
	SettingsStore
	SnapshotStore

	// Ping checks the backend is reachable, for /readyz.
	Ping(ctx context.Context) error
	// Name labels metrics and health output.
	Name() string
}
