package service_test

import (
	"context"
	"sync"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"

	"github.com/google/uuid"
)

// --- Mocks ---

// memStore is an in-memory port.FinanceStore. Setting listErr makes every
// List call fail.
type memStore struct {
	mu        sync.Mutex
	accounts  []domain.Account
	income    []domain.IncomeEvent
	expenses  []domain.ExpenseItem
	settings  map[string]domain.FinanceSettings
	snapshots []domain.Snapshot
	listErr   error
	calls     map[string]int
}

func newMemStore() *memStore {
	return &memStore{settings: map[string]domain.FinanceSettings{}, calls: map[string]int{}}
}

func (m *memStore) Name() string                 { return "memory" }
func (m *memStore) Ping(_ context.Context) error { return nil }

func (m *memStore) count(op string) {
	m.calls[op]++
}

func (m *memStore) callCount(op string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[op]
}

func newID(id *string) {
	if *id == "" {
		*id = uuid.NewString()
	}
}

func (m *memStore) ListAccounts(_ context.Context, userID string) ([]domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("ListAccounts")
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.Account{}
	for _, a := range m.accounts {
		if a.UserID == userID {
			out = append(out, a)
		}
	}
	return out, nil
}

func (m *memStore) GetAccount(_ context.Context, userID, accountID string) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == userID && a.ID == accountID {
			return &a, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
}

func (m *memStore) CreateAccount(_ context.Context, a *domain.Account) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&a.ID)
	a.CreatedAt = time.Now().UTC()
	m.accounts = append(m.accounts, *a)
	return a, nil
}

func (m *memStore) UpdateAccount(_ context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.accounts {
		if m.accounts[i].UserID == userID && m.accounts[i].ID == accountID {
			patch.Apply(&m.accounts[i])
			a := m.accounts[i]
			return &a, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "account", ID: accountID}
}

func (m *memStore) DeleteAccount(_ context.Context, userID, accountID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, a := range m.accounts {
		if a.UserID == userID && a.ID == accountID {
			m.accounts = append(m.accounts[:i], m.accounts[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "account", ID: accountID}
}

func (m *memStore) ReplaceAccounts(_ context.Context, userID string, accounts []domain.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	kept := []domain.Account{}
	for _, a := range m.accounts {
		if a.UserID != userID {
			kept = append(kept, a)
		}
	}
	for _, a := range accounts {
		newID(&a.ID)
		a.UserID = userID
		kept = append(kept, a)
	}
	m.accounts = kept
	return nil
}

func (m *memStore) ListIncome(_ context.Context, userID string) ([]domain.IncomeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("ListIncome")
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.IncomeEvent{}
	for _, e := range m.income {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) CreateIncome(_ context.Context, e *domain.IncomeEvent) (*domain.IncomeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&e.ID)
	m.income = append(m.income, *e)
	return e, nil
}

func (m *memStore) UpdateIncome(_ context.Context, userID, incomeID string, patch domain.IncomePatch) (*domain.IncomeEvent, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.income {
		if m.income[i].UserID == userID && m.income[i].ID == incomeID {
			patch.Apply(&m.income[i])
			e := m.income[i]
			return &e, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "income event", ID: incomeID}
}

func (m *memStore) DeleteIncome(_ context.Context, userID, incomeID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.income {
		if e.UserID == userID && e.ID == incomeID {
			m.income = append(m.income[:i], m.income[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "income event", ID: incomeID}
}

func (m *memStore) ListExpenses(_ context.Context, userID string) ([]domain.ExpenseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.count("ListExpenses")
	if m.listErr != nil {
		return nil, m.listErr
	}
	out := []domain.ExpenseItem{}
	for _, e := range m.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (m *memStore) CreateExpense(_ context.Context, e *domain.ExpenseItem) (*domain.ExpenseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&e.ID)
	m.expenses = append(m.expenses, *e)
	return e, nil
}

func (m *memStore) UpdateExpense(_ context.Context, userID, expenseID string, patch domain.ExpensePatch) (*domain.ExpenseItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.expenses {
		if m.expenses[i].UserID == userID && m.expenses[i].ID == expenseID {
			patch.Apply(&m.expenses[i])
			e := m.expenses[i]
			return &e, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "expense", ID: expenseID}
}

func (m *memStore) DeleteExpense(_ context.Context, userID, expenseID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, e := range m.expenses {
		if e.UserID == userID && e.ID == expenseID {
			m.expenses = append(m.expenses[:i], m.expenses[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "expense", ID: expenseID}
}

func (m *memStore) GetSettings(_ context.Context, userID string) (*domain.FinanceSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.settings[userID]
	if !ok {
		return nil, &domain.ErrNotFound{Resource: "settings", ID: userID}
	}
	return &s, nil
}

func (m *memStore) UpsertSettings(_ context.Context, s *domain.FinanceSettings) (*domain.FinanceSettings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.settings[s.UserID] = *s
	return s, nil
}

func (m *memStore) ListSnapshots(_ context.Context, userID string) ([]domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []domain.Snapshot{}
	for _, s := range m.snapshots {
		if s.UserID == userID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (m *memStore) GetSnapshot(_ context.Context, userID, snapshotID string) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.snapshots {
		if s.UserID == userID && s.ID == snapshotID {
			return &s, nil
		}
	}
	return nil, &domain.ErrNotFound{Resource: "snapshot", ID: snapshotID}
}

func (m *memStore) CreateSnapshot(_ context.Context, s *domain.Snapshot) (*domain.Snapshot, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	newID(&s.ID)
	s.CreatedAt = time.Now().UTC()
	m.snapshots = append(m.snapshots, *s)
	return s, nil
}

func (m *memStore) DeleteSnapshot(_ context.Context, userID, snapshotID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, s := range m.snapshots {
		if s.UserID == userID && s.ID == snapshotID {
			m.snapshots = append(m.snapshots[:i], m.snapshots[i+1:]...)
			return nil
		}
	}
	return &domain.ErrNotFound{Resource: "snapshot", ID: snapshotID}
}
