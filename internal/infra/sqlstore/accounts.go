package sqlstore

import (
	"context"

	"github.com/boddenberg/runway-bfa/internal/domain"

	"github.com/jmoiron/sqlx"
	"go.opentelemetry.io/otel/attribute"
)

const accountColumns = `id, user_id, category, name, balance, interest_rate, credit_limit,
	due_date, statement_date, minimum_payment, is_paid_off, autopay_enabled,
	autopay_amount_type, autopay_custom_amount, created_at`

const insertAccountSQL = `INSERT INTO accounts (` + accountColumns + `) VALUES (
	:id, :user_id, :category, :name, :balance, :interest_rate, :credit_limit,
	:due_date, :statement_date, :minimum_payment, :is_paid_off, :autopay_enabled,
	:autopay_amount_type, :autopay_custom_amount, :created_at)`

const updateAccountSQL = `UPDATE accounts SET
	category = :category, name = :name, balance = :balance, interest_rate = :interest_rate,
	credit_limit = :credit_limit, due_date = :due_date, statement_date = :statement_date,
	minimum_payment = :minimum_payment, is_paid_off = :is_paid_off,
	autopay_enabled = :autopay_enabled, autopay_amount_type = :autopay_amount_type,
	autopay_custom_amount = :autopay_custom_amount
	WHERE id = :id AND user_id = :user_id`

func (s *Store) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	accounts := []domain.Account{}
	err := s.exec(ctx, "accounts", func(ctx context.Context) error {
		accounts = accounts[:0]
		return s.db.SelectContext(ctx, &accounts,
			`SELECT `+accountColumns+` FROM accounts WHERE user_id = ? ORDER BY created_at, id`, userID)
	})
	return accounts, err
}

func (s *Store) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetAccount")
	defer span.End()

	var a domain.Account
	err := s.exec(ctx, "accounts", func(ctx context.Context) error {
		return s.getAccount(ctx, s.db, userID, accountID, &a)
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) getAccount(ctx context.Context, q sqlx.QueryerContext, userID, accountID string, dst *domain.Account) error {
	err := sqlx.GetContext(ctx, q, dst,
		`SELECT `+accountColumns+` FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID)
	return notFoundIfNoRows(err, "account", accountID)
}

func (s *Store) CreateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateAccount")
	defer span.End()

	stamp(&a.ID, &a.CreatedAt)
	err := s.exec(ctx, "accounts", func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, insertAccountSQL, a)
		return err
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) UpdateAccount(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "SQLite.UpdateAccount")
	defer span.End()

	var a domain.Account
	err := s.exec(ctx, "accounts", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			if err := s.getAccount(ctx, tx, userID, accountID, &a); err != nil {
				return err
			}
			patch.Apply(&a)
			_, err := tx.NamedExecContext(ctx, updateAccountSQL, &a)
			return err
		})
	})
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (s *Store) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := tracer.Start(ctx, "SQLite.DeleteAccount")
	defer span.End()

	return s.exec(ctx, "accounts", func(ctx context.Context) error {
		res, err := s.db.ExecContext(ctx, `DELETE FROM accounts WHERE id = ? AND user_id = ?`, accountID, userID)
		if err != nil {
			return err
		}
		return requireAffected(res, "account", accountID)
	})
}

// ReplaceAccounts swaps the user's whole account set in one transaction.
func (s *Store) ReplaceAccounts(ctx context.Context, userID string, accounts []domain.Account) error {
	ctx, span := tracer.Start(ctx, "SQLite.ReplaceAccounts")
	defer span.End()
	span.SetAttributes(attribute.Int("accounts.count", len(accounts)))

	rows := make([]domain.Account, len(accounts))
	for i, a := range accounts {
		a.UserID = userID
		stamp(&a.ID, &a.CreatedAt)
		rows[i] = a
	}

	return s.exec(ctx, "accounts", func(ctx context.Context) error {
		return s.inTx(ctx, func(tx *sqlx.Tx) error {
			if _, err := tx.ExecContext(ctx, `DELETE FROM accounts WHERE user_id = ?`, userID); err != nil {
				return err
			}
			for i := range rows {
				if _, err := tx.NamedExecContext(ctx, insertAccountSQL, &rows[i]); err != nil {
					return err
				}
			}
			return nil
		})
	})
}
