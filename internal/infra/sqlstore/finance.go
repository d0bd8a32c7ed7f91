package sqlstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"

	"github.com/jmoiron/sqlx"
)

// ============================================================
// Income events
// ============================================================

const incomeColumns = `id, user_id, name, amount, date, frequency, end_date, created_at`

func (s *Store) ListIncome(ctx context.Context, userID string) ([]domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListIncome")
	defer span.End()

	events := []domain.IncomeEvent{}
	err := s.exec(ctx, "income_events", func(ctx context.Context) error {
		events = events[:0]
		return s.db.SelectContext(ctx, &events,
			`SELECT `+incomeColumns+` FROM income_events WHERE user_id = ? ORDER BY date, id`, userID)
	})
	return events, err
}

func (s *Store) CreateIncome(ctx context.Context, e *domain.IncomeEvent) (*domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateIncome")
	defer span.End()

	stamp(&e.ID, &e.CreatedAt)
	err := s.exec(ctx, "income_events", func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, `INSERT INTO income_events (`+incomeColumns+`)
			VALUES (:id, :user_id, :name, :amount, :date, :frequency, :end_date, :created_at)`, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) UpdateIncome(ctx context.Context, userID, incomeID string, patch domain.IncomePatch) (*domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateIncome")
	defer span.End()

	var e domain.IncomeEvent
	err := s.exec(ctx, "income_events", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			err := tx.GetContext(ctx, &e, `SELECT `+incomeColumns+` FROM income_events WHERE id = ? AND user_id = ?`, incomeID, userID)
			if err != nil {
				return notFoundIfNoRows(err, "income event", incomeID)
			}
			patch.Apply(&e)
			_, err = tx.NamedExecContext(ctx, `UPDATE income_events SET
				name = :name, amount = :amount, date = :date, frequency = :frequency, end_date = :end_date
				WHERE id = :id AND user_id = :user_id`, &e)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) DeleteIncome(ctx context.Context, userID, incomeID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteIncome")
	defer span.End()

	return s.deleteOne(ctx, "income_events", "income event", userID, incomeID)
}

// ============================================================
// Expense items
// ============================================================

const expenseColumns = `id, user_id, name, amount, category, frequency, created_at`

func (s *Store) ListExpenses(ctx context.Context, userID string) ([]domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListExpenses")
	defer span.End()

	items := []domain.ExpenseItem{}
	err := s.exec(ctx, "expense_items", func(ctx context.Context) error {
		items = items[:0]
		return s.db.SelectContext(ctx, &items,
			`SELECT `+expenseColumns+` FROM expense_items WHERE user_id = ? ORDER BY created_at, id`, userID)
	})
	return items, err
}

func (s *Store) CreateExpense(ctx context.Context, e *domain.ExpenseItem) (*domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateExpense")
	defer span.End()

	stamp(&e.ID, &e.CreatedAt)
	err := s.exec(ctx, "expense_items", func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, `INSERT INTO expense_items (`+expenseColumns+`)
			VALUES (:id, :user_id, :name, :amount, :category, :frequency, :created_at)`, e)
		return err
	})
	if err != nil {
		return nil, err
	}
	return e, nil
}

func (s *Store) UpdateExpense(ctx context.Context, userID, expenseID string, patch domain.ExpensePatch) (*domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateExpense")
	defer span.End()

	var e domain.ExpenseItem
	err := s.exec(ctx, "expense_items", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			err := tx.GetContext(ctx, &e, `SELECT `+expenseColumns+` FROM expense_items WHERE id = ? AND user_id = ?`, expenseID, userID)
			if err != nil {
				return notFoundIfNoRows(err, "expense", expenseID)
			}
			patch.Apply(&e)
			_, err = tx.NamedExecContext(ctx, `UPDATE expense_items SET
				name = :name, amount = :amount, category = :category, frequency = :frequency
				WHERE id = :id AND user_id = :user_id`, &e)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (s *Store) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteExpense")
	defer span.End()

	return s.deleteOne(ctx, "expense_items", "expense", userID, expenseID)
}

// deleteOne removes a user-scoped row by id. table is always a constant.
func (s *Store) deleteOne(ctx context.Context, table, resource, userID, id string) error {
	return s.exec(ctx, table, func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ? AND user_id = ?`, table), id, userID)
		if err != nil {
			return err
		}
		return requireAffected(res, resource, id)
	})
}

// ============================================================
// Settings
// ============================================================

// settingsRow carries the excluded IDs as a JSON text column.
type settingsRow struct {
	domain.FinanceSettings
	Excluded string `db:"excluded_income_ids"`
}

const settingsColumns = `user_id, monthly_expenses, expense_mode, income_enabled,
	excluded_income_ids, credit_score, extra_debt_payment, updated_at`

func (s *Store) GetSettings(ctx context.Context, userID string) (*domain.FinanceSettings, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetSettings")
	defer span.End()

	var row settingsRow
	err := s.exec(ctx, "finance_settings", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &row, `SELECT `+settingsColumns+` FROM finance_settings WHERE user_id = ?`, userID)
		return notFoundIfNoRows(err, "settings", userID)
	})
	if err != nil {
		return nil, err
	}

	settings := row.FinanceSettings
	settings.ExcludedIncomeIDs = []string{}
	if row.Excluded != "" {
		if err := json.Unmarshal([]byte(row.Excluded), &settings.ExcludedIncomeIDs); err != nil {
			return nil, &domain.ErrExternalService{Service: BackendName + "/finance_settings", Err: err}
		}
	}
	return &settings, nil
}

func (s *Store) UpsertSettings(ctx context.Context, fs *domain.FinanceSettings) (*domain.FinanceSettings, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpsertSettings")
	defer span.End()

	if fs.ExcludedIncomeIDs == nil {
		fs.ExcludedIncomeIDs = []string{}
	}
	excluded, err := json.Marshal(fs.ExcludedIncomeIDs)
	if err != nil {
		return nil, err
	}
	fs.UpdatedAt = time.Now().UTC()
	row := settingsRow{FinanceSettings: *fs, Excluded: string(excluded)}

	err = s.exec(ctx, "finance_settings", func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, `INSERT INTO finance_settings (`+settingsColumns+`)
			VALUES (:user_id, :monthly_expenses, :expense_mode, :income_enabled,
				:excluded_income_ids, :credit_score, :extra_debt_payment, :updated_at)
			ON CONFLICT(user_id) DO UPDATE SET
				monthly_expenses = excluded.monthly_expenses,
				expense_mode = excluded.expense_mode,
				income_enabled = excluded.income_enabled,
				excluded_income_ids = excluded.excluded_income_ids,
				credit_score = excluded.credit_score,
				extra_debt_payment = excluded.extra_debt_payment,
				updated_at = excluded.updated_at`, &row)
		return err
	})
	if err != nil {
		return nil, err
	}
	return fs, nil
}
