package supabase

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

// ============================================================
// Accounts: CRUD via PostgREST
// ============================================================

func (c *Client) ListAccounts(ctx context.Context, userID string) ([]domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.ListAccounts")
	defer span.End()
	span.SetAttributes(attribute.String("user.id", userID))

	var accounts []domain.Account
	err := c.exec(ctx, "accounts", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("accounts?%s&order=created_at.asc", eq("user_id", userID)))
		if err != nil {
			return err
		}
		accounts, err = decodeRows[domain.Account](body)
		return err
	})
	return accounts, err
}

func (c *Client) GetAccount(ctx context.Context, userID, accountID string) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetAccount")
	defer span.End()

	var account *domain.Account
	err := c.exec(ctx, "accounts", func(ctx context.Context) error {
		path := fmt.Sprintf("accounts?%s&%s&limit=1", eq("user_id", userID), eq("id", accountID))
		body, err := c.doRequest(ctx, http.MethodGet, path)
		if err != nil {
			return err
		}
		account, err = decodeOne[domain.Account](body, "account", accountID)
		return err
	})
	return account, err
}

func (c *Client) CreateAccount(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateAccount")
	defer span.End()

	stamp(&a.ID, &a.CreatedAt)
	row, err := toRow(a)
	if err != nil {
		return nil, err
	}

	var created *domain.Account
	err = c.exec(ctx, "accounts", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "accounts", row)
		if err != nil {
			return err
		}
		created, err = decodeOne[domain.Account](body, "account", a.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	c.logger.Info("supabase: account created",
		zap.String("account_id", created.ID),
		zap.String("category", string(created.Category)),
	)
	return created, nil
}

func (c *Client) UpdateAccount(ctx context.Context, userID, accountID string, patch domain.AccountPatch) (*domain.Account, error) {
	ctx, span := tracer.Start(ctx, "Supabase.UpdateAccount")
	defer span.End()

	fields := patch.Fields()
	if len(fields) == 0 {
		return c.GetAccount(ctx, userID, accountID)
	}

	var updated *domain.Account
	err := c.exec(ctx, "accounts", func(ctx context.Context) error {
		body, err := c.doPatch(ctx, fmt.Sprintf("accounts?%s&%s", eq("user_id", userID), eq("id", accountID)), fields)
		if err != nil {
			return err
		}
		updated, err = decodeOne[domain.Account](body, "account", accountID)
		return err
	})
	return updated, err
}

func (c *Client) DeleteAccount(ctx context.Context, userID, accountID string) error {
	ctx, span := tracer.Start(ctx, "Supabase.DeleteAccount")
	defer span.End()

	return c.deleteOne(ctx, "accounts", "account", userID, accountID)
}

// ReplaceAccounts swaps a user's whole account set, for snapshot restore
// and imports. PostgREST has no transactions, so a failed insert leaves the
// user without accounts until the call is retried.
func (c *Client) ReplaceAccounts(ctx context.Context, userID string, accounts []domain.Account) error {
	ctx, span := tracer.Start(ctx, "Supabase.ReplaceAccounts")
	defer span.End()
	span.SetAttributes(attribute.Int("accounts.count", len(accounts)))

	rows := make([]map[string]any, 0, len(accounts))
	for i := range accounts {
		a := accounts[i]
		a.UserID = userID
		stamp(&a.ID, &a.CreatedAt)
		row, err := toRow(a)
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	return c.exec(ctx, "accounts", func(ctx context.Context) error {
		if err := c.doDelete(ctx, fmt.Sprintf("accounts?%s", eq("user_id", userID))); err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		_, err := c.doPost(ctx, "accounts", rows)
		return err
	})
}

// deleteOne removes a user-scoped row and reports ErrNotFound when nothing matched.
func (c *Client) deleteOne(ctx context.Context, table, resource, userID, id string) error {
	return c.exec(ctx, table, func(ctx context.Context) error {
		path := fmt.Sprintf("%s?%s&%s", table, eq("user_id", userID), eq("id", id))
		body, err := c.send(ctx, http.MethodDelete, path, nil, preferRepresentation)
		if err != nil {
			return err
		}
		_, err = decodeOne[map[string]any](body, resource, id)
		return err
	})
}

// stamp fills in the identity columns for new rows.
func stamp(id *string, createdAt *time.Time) {
	if *id == "" {
		*id = uuid.New().String()
	}
	if createdAt.IsZero() {
		*createdAt = time.Now().UTC()
	}
}
