package roles

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanhub-app/lanhub/internal/platform/db"
	"github.com/lanhub-app/lanhub/internal/shared"
)

// Repository defines persistence operations for roles.
type Repository interface {
	List(ctx context.Context) ([]Role, error)
	Get(ctx context.Context, id int64) (Role, error)
	Create(ctx context.Context, name, description string, permissions []string) (Role, error)
	Update(ctx context.Context, id int64, name, description string) (Role, error)
	AssignPermission(ctx context.Context, roleID int64, permission string) error
	RevokePermission(ctx context.Context, roleID int64, permission string) error
	SetPermissions(ctx context.Context, roleID int64, permissions []string) error
	UserCount(ctx context.Context, roleID int64) (int, error)
	Delete(ctx context.Context, id int64) error
	DeleteReassign(ctx context.Context, id, targetID int64) error
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context) ([]Role, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at,
		       COALESCE(array_agg(rp.permission_name ORDER BY rp.permission_name)
		                FILTER (WHERE rp.permission_name IS NOT NULL), '{}'),
		       (SELECT COUNT(*) FROM users u WHERE u.role_id = r.id)
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		GROUP BY r.id
		ORDER BY r.name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Role
	for rows.Next() {
		var role Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt,
			&role.Permissions, &role.UserCount); err != nil {
			return nil, err
		}
		out = append(out, role)
	}
	return out, rows.Err()
}

func (r *repository) Get(ctx context.Context, id int64) (Role, error) {
	var role Role
	err := r.pool.QueryRow(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at,
		       COALESCE(array_agg(rp.permission_name ORDER BY rp.permission_name)
		                FILTER (WHERE rp.permission_name IS NOT NULL), '{}'),
		       (SELECT COUNT(*) FROM users u WHERE u.role_id = r.id)
		FROM roles r
		LEFT JOIN role_permissions rp ON rp.role_id = r.id
		WHERE r.id = $1
		GROUP BY r.id`, id).
		Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt,
			&role.Permissions, &role.UserCount)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
		}
		return Role{}, err
	}
	return role, nil
}

// Create inserts the role and its permission assignments in one transaction.
func (r *repository) Create(ctx context.Context, name, description string, permissions []string) (Role, error) {
	var role Role
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		err := tx.QueryRow(ctx,
			`INSERT INTO roles (name, description, created_at, updated_at)
			 VALUES ($1, $2, $3, $3) RETURNING id, created_at, updated_at`,
			name, description, now).Scan(&role.ID, &role.CreatedAt, &role.UpdatedAt)
		if err != nil {
			if db.IsUniqueViolation(err) {
				return fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
			}
			return err
		}
		for _, perm := range permissions {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_name) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`, role.ID, perm); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Role{}, err
	}
	role.Name = name
	role.Description = description
	role.Permissions = append([]string{}, permissions...)
	return role, nil
}

func (r *repository) Update(ctx context.Context, id int64, name, description string) (Role, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE roles SET name = $2, description = $3, updated_at = $4 WHERE id = $1`,
		id, name, description, time.Now().UTC())
	if err != nil {
		if db.IsUniqueViolation(err) {
			return Role{}, fmt.Errorf("role %q: %w", name, shared.ErrDuplicateName)
		}
		return Role{}, err
	}
	if tag.RowsAffected() == 0 {
		return Role{}, fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return r.Get(ctx, id)
}

// AssignPermission is idempotent: assigning an already-held permission is a
// no-op.
func (r *repository) AssignPermission(ctx context.Context, roleID int64, permission string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO role_permissions (role_id, permission_name) VALUES ($1, $2)
		 ON CONFLICT DO NOTHING`, roleID, permission)
	return err
}

// RevokePermission is idempotent: revoking an absent permission is a no-op.
func (r *repository) RevokePermission(ctx context.Context, roleID int64, permission string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM role_permissions WHERE role_id = $1 AND permission_name = $2`, roleID, permission)
	return err
}

// SetPermissions replaces the role's permission set atomically.
func (r *repository) SetPermissions(ctx context.Context, roleID int64, permissions []string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM role_permissions WHERE role_id = $1`, roleID); err != nil {
			return err
		}
		for _, perm := range permissions {
			if _, err := tx.Exec(ctx,
				`INSERT INTO role_permissions (role_id, permission_name) VALUES ($1, $2)
				 ON CONFLICT DO NOTHING`, roleID, perm); err != nil {
				return err
			}
		}
		if _, err := tx.Exec(ctx, `UPDATE roles SET updated_at = $2 WHERE id = $1`, roleID, time.Now().UTC()); err != nil {
			return err
		}
		return nil
	})
}

func (r *repository) UserCount(ctx context.Context, roleID int64) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM users WHERE role_id = $1`, roleID).Scan(&count)
	return count, err
}

// Delete removes an unreferenced role. The users.role_id foreign key is
// declared ON DELETE RESTRICT, so a user assigned to the role after the
// service's count check still blocks the delete here.
func (r *repository) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
	if err != nil {
		if db.IsForeignKeyViolation(err) {
			return fmt.Errorf("role %d still has assigned users: %w", id, shared.ErrInUse)
		}
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
	}
	return nil
}

// DeleteReassign repoints referencing users to targetID and deletes the role
// in one transaction, so no user is ever left pointing at a missing role.
func (r *repository) DeleteReassign(ctx context.Context, id, targetID int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `UPDATE users SET role_id = $2 WHERE role_id = $1`, id, targetID); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM roles WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return fmt.Errorf("role %d: %w", id, shared.ErrNotFound)
		}
		return nil
	})
}
