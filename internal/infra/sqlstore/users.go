package sqlstore

import (
	"context"
	"strings"

	"github.com/boddenberg/runway-bfa/internal/domain"
)

const userColumns = `id, email, name, password_hash, created_at`

func (s *Store) CreateUser(ctx context.Context, u *domain.User) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.CreateUser")
	defer span.End()

	stamp(&u.ID, &u.CreatedAt)
	u.Email = strings.ToLower(u.Email)
	err := s.exec(ctx, "users", func(ctx context.Context) error {
		_, err := s.db.NamedExecContext(ctx, `INSERT INTO users (`+userColumns+`)
			VALUES (:id, :email, :name, :password_hash, :created_at)`, u)
		return err
	})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetUserByEmail")
	defer span.End()

	var u domain.User
	err := s.exec(ctx, "users", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE email = ?`, strings.ToLower(email))
		return notFoundIfNoRows(err, "user", email)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}

func (s *Store) GetUserByID(ctx context.Context, userID string) (*domain.User, error) {
	ctx, span := tracer.Start(ctx, "SQLite.GetUserByID")
	defer span.End()

	var u domain.User
	err := s.exec(ctx, "users", func(ctx context.Context) error {
		err := s.db.GetContext(ctx, &u, `SELECT `+userColumns+` FROM users WHERE id = ?`, userID)
		return notFoundIfNoRows(err, "user", userID)
	})
	if err != nil {
		return nil, err
	}
	return &u, nil
}
