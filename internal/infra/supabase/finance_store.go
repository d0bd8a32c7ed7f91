package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// ============================================================
// Income events, expense items and settings
// ============================================================

func (c *Client) ListIncome(ctx context.Context, userID string) ([]domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListIncome")
	defer span.End()

	var events []domain.IncomeEvent
	err := c.exec(ctx, "income_events", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("income_events?%s&order=date.asc", eq("user_id", userID)))
		if err != nil {
			return err
		}
		events, err = decodeRows[domain.IncomeEvent](body)
		return err
	})
	return events, err
}

func (c *Client) CreateIncome(ctx context.Context, e *domain.IncomeEvent) (*domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateIncome")
	defer span.End()

	stamp(&e.ID, &e.CreatedAt)
	row, err := toRow(e)
	if err != nil {
		return nil, err
	}

	var created *domain.IncomeEvent
	err = c.exec(ctx, "income_events", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "income_events", row)
		if err != nil {
			return err
		}
		created, err = decodeOne[domain.IncomeEvent](body, "income event", e.ID)
		return err
	})
	return created, err
}

func (c *Client) UpdateIncome(ctx context.Context, userID, incomeID string, patch domain.IncomePatch) (*domain.IncomeEvent, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateIncome")
	defer span.End()

	var updated *domain.IncomeEvent
	err := c.exec(ctx, "income_events", func(ctx context.Context) error {
		path := fmt.Sprintf("income_events?%s&%s", eq("user_id", userID), eq("id", incomeID))
		var (
			body []byte
			err  error
		)
		if fields := patch.Fields(); len(fields) > 0 {
			body, err = c.doPatch(ctx, path, fields)
		} else {
			body, err = c.doRequest(ctx, http.MethodGet, path)
		}
		if err != nil {
			return err
		}
		updated, err = decodeOne[domain.IncomeEvent](body, "income event", incomeID)
		return err
	})
	return updated, err
}

func (c *Client) DeleteIncome(ctx context.Context, userID, incomeID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteIncome")
	defer span.End()

	return c.deleteOne(ctx, "income_events", "income event", userID, incomeID)
}

func (c *Client) ListExpenses(ctx context.Context, userID string) ([]domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListExpenses")
	defer span.End()

	var items []domain.ExpenseItem
	err := c.exec(ctx, "expense_items", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("expense_items?%s&order=created_at.asc", eq("user_id", userID)))
		if err != nil {
			return err
		}
		items, err = decodeRows[domain.ExpenseItem](body)
		return err
	})
	return items, err
}

func (c *Client) CreateExpense(ctx context.Context, e *domain.ExpenseItem) (*domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateExpense")
	defer span.End()

	stamp(&e.ID, &e.CreatedAt)
	row, err := toRow(e)
	if err != nil {
		return nil, err
	}

	var created *domain.ExpenseItem
	err = c.exec(ctx, "expense_items", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "expense_items", row)
		if err != nil {
			return err
		}
		created, err = decodeOne[domain.ExpenseItem](body, "expense", e.ID)
		return err
	})
	return created, err
}

func (c *Client) UpdateExpense(ctx context.Context, userID, expenseID string, patch domain.ExpensePatch) (*domain.ExpenseItem, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateExpense")
	defer span.End()

	var updated *domain.ExpenseItem
	err := c.exec(ctx, "expense_items", func(ctx context.Context) error {
		path := fmt.Sprintf("expense_items?%s&%s", eq("user_id", userID), eq("id", expenseID))
		var (
			body []byte
			err  error
		)
		if fields := patch.Fields(); len(fields) > 0 {
			body, err = c.doPatch(ctx, path, fields)
		} else {
			body, err = c.doRequest(ctx, http.MethodGet, path)
		}
		if err != nil {
			return err
		}
		updated, err = decodeOne[domain.ExpenseItem](body, "expense", expenseID)
		return err
	})
	return updated, err
}

func (c *Client) DeleteExpense(ctx context.Context, userID, expenseID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteExpense")
	defer span.End()

	return c.deleteOne(ctx, "expense_items", "expense", userID, expenseID)
}

func (c *Client) GetSettings(ctx context.Context, userID string) (*domain.FinanceSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetSettings")
	defer span.End()

	var settings *domain.FinanceSettings
	err := c.exec(ctx, "finance_settings", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("finance_settings?%s&limit=1", eq("user_id", userID)))
		if err != nil {
			return err
		}
		settings, err = decodeOne[domain.FinanceSettings](body, "settings", userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if settings.ExcludedIncomeIDs == nil {
		settings.ExcludedIncomeIDs = []string{}
	}
	return settings, nil
}

func (c *Client) UpsertSettings(ctx context.Context, s *domain.FinanceSettings) (*domain.FinanceSettings, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpsertSettings")
	defer span.End()

	s.UpdatedAt = time.Now().UTC()
	if s.ExcludedIncomeIDs == nil {
		s.ExcludedIncomeIDs = []string{}
	}
	row, err := toRow(s)
	if err != nil {
		return nil, err
	}
	if s.CreditScore == nil {
		// omitempty drops the key; send an explicit null to clear it.
		row["credit_score"] = nil
	}

	var saved *domain.FinanceSettings
	err = c.exec(ctx, "finance_settings", func(ctx context.Context) error {
		body, err := c.doUpsert(ctx, "finance_settings?on_conflict=user_id", row)
		if err != nil {
			return err
		}
		saved, err = decodeOne[domain.FinanceSettings](body, "settings", s.UserID)
		return err
	})
	return saved, err
}
