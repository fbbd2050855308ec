package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanhub-app/lanhub/internal/platform/db"
	"github.com/lanhub-app/lanhub/internal/rbac"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Repository defines persistence operations for users.
type Repository interface {
	List(ctx context.Context, search string, page shared.Pagination) ([]User, int, error)
	Get(ctx context.Context, id int64) (User, error)
	Create(ctx context.Context, user User) (User, error)
	Update(ctx context.Context, user User) error
	UpdatePassword(ctx context.Context, id int64, passwordHash string) error
	UpdateTheme(ctx context.Context, id int64, theme string) error
	SetActive(ctx context.Context, id int64, active bool) error
	Delete(ctx context.Context, id int64) error
	PrincipalByID(ctx context.Context, userID int64) (rbac.Principal, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const userColumns = `id, username, email, password_hash, is_active, is_admin, role_id, theme, created_at, last_login`

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsAdmin,
		&u.RoleID, &u.Theme, &u.CreatedAt, &u.LastLogin)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return User{}, shared.ErrNotFound
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) List(ctx context.Context, search string, page shared.Pagination) ([]User, int, error) {
	where := ``
	args := []any{}
	if search != "" {
		where = ` WHERE username ILIKE $1 OR email ILIKE $1`
		args = append(args, "%"+search+"%")
	}

	var total int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users`+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `SELECT ` + userColumns + ` FROM users` + where +
		fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, len(args)+1, len(args)+2)
	args = append(args, page.PerPage, page.Offset())

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	var out []User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.IsActive, &u.IsAdmin,
			&u.RoleID, &u.Theme, &u.CreatedAt, &u.LastLogin); err != nil {
			return nil, 0, err
		}
		out = append(out, u)
	}
	return out, total, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return User{}, fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
		}
		return User{}, err
	}
	return u, nil
}

func (r *repository) Create(ctx context.Context, user User) (User, error) {
	now := time.Now().UTC()
	err := r.pool.QueryRow(ctx,
		`INSERT INTO users (username, email, password_hash, is_active, is_admin, role_id, theme, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`,
		user.Username, user.Email, user.PasswordHash, user.IsActive, user.IsAdmin, user.RoleID, user.Theme, now).
		Scan(&user.ID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return User{}, fmt.Errorf("user %q: %w", user.Username, shared.ErrDuplicateName)
		}
		return User{}, err
	}
	user.CreatedAt = now
	return user, nil
}

func (r *repository) Update(ctx context.Context, user User) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE users SET username = $2, email = $3, is_active = $4, is_admin = $5, role_id = $6 WHERE id = $1`,
		user.ID, user.Username, user.Email, user.IsActive, user.IsAdmin, user.RoleID)
	if err != nil {
		if db.IsUniqueViolation(err) {
			return fmt.Errorf("user %q: %w", user.Username, shared.ErrDuplicateName)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", user.ID, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) UpdatePassword(ctx context.Context, id int64, passwordHash string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET password_hash = $2 WHERE id = $1`, id, passwordHash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) UpdateTheme(ctx context.Context, id int64, theme string) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET theme = $2 WHERE id = $1`, id, theme)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) SetActive(ctx context.Context, id int64, active bool) error {
	tag, err := r.pool.Exec(ctx, `UPDATE users SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("user %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// PrincipalByID builds the guard-facing projection for a user.
func (r *repository) PrincipalByID(ctx context.Context, userID int64) (rbac.Principal, error) {
	var p rbac.Principal
	err := r.pool.QueryRow(ctx,
		`SELECT id, is_active, is_admin, role_id FROM users WHERE id = $1`, userID).
		Scan(&p.ID, &p.Active, &p.IsAdmin, &p.RoleID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return rbac.Principal{}, fmt.Errorf("user %d: %w", userID, shared.ErrNotFound)
		}
		return rbac.Principal{}, err
	}
	return p, nil
}
