package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanhub-app/lanhub/internal/shared"
	"github.com/lanhub-app/lanhub/internal/users"
)

// Repository defines the persistence operations authentication needs.
type Repository interface {
	FindByUsername(ctx context.Context, username string) (users.User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) FindByUsername(ctx context.Context, username string) (users.User, error) {
	const query = `
		SELECT id, username, email, password_hash, is_active, is_admin, role_id, theme, created_at, last_login
		FROM users
		WHERE username = $1`
	var u users.User
	err := r.pool.QueryRow(ctx, query, username).Scan(
		&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive,
		&u.IsAdmin, &u.RoleID, &u.Theme, &u.CreatedAt, &u.LastLogin,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, fmt.Errorf("user %q: %w", username, shared.ErrNotFound)
		}
		return users.User{}, fmt.Errorf("find user by username: %w", err)
	}
	return u, nil
}

func (r *repository) TouchLastLogin(ctx context.Context, userID int64) error {
	const query = `UPDATE users SET last_login = now() WHERE id = $1`
	if _, err := r.pool.Exec(ctx, query, userID); err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
