package supabase

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

// ============================================================
// UserStore implementation: login identities via PostgREST
// ============================================================

// userRow exposes the password hash, which domain.User hides from JSON.
type userRow struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"password_hash"`
	CreatedAt    time.Time `json:"created_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:           r.ID,
		Email:        r.Email,
		Name:         r.Name,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt,
	}
}

func (c *Client) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.CreateUser")
	defer span.End()

	stamp(&u.ID, &u.CreatedAt)
	row := userRow{
		ID:           u.ID,
		Email:        strings.ToLower(u.Email),
		Name:         u.Name,
		PasswordHash: u.PasswordHash,
		CreatedAt:    u.CreatedAt,
	}

	var created *domain.User
	err := c.exec(ctx, "users", func(ctx context.Context) error {
		body, err := c.doPost(ctx, "users", row)
		if err != nil {
			return err
		}
		r, err := decodeOne[userRow](body, "user", u.ID)
		if err != nil {
			return err
		}
		created = r.toDomain()
		return nil
	})
	return created, err
}

func (c *Client) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByEmail")
	defer span.End()

	return c.getUser(ctx, eq("email", strings.ToLower(email)), email)
}

func (c *Client) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "Supabase.GetUserByID")
	defer span.End()

	return c.getUser(ctx, eq("id", userID), userID)
}

func (c *Client) getUser(ctx context.Context, filter, key string) (*domain.User, error) {
	var user *domain.User
	err := c.exec(ctx, "users", func(ctx context.Context) error {
		body, err := c.doRequest(ctx, http.MethodGet, fmt.Sprintf("users?%s&limit=1", filter))
		if err != nil {
			return err
		}
		r, err := decodeOne[userRow](body, "user", key)
		if err != nil {
			return err
		}
		user = r.toDomain()
		return nil
	})
	return user, err
}
