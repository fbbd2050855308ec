package rbac

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanhub-app/lanhub/internal/platform/db"
)

// Repository provides PostgreSQL backed permission lookups and keeps the
// permissions table mirroring the code registry.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// RoleHasPermission reports whether the role holds the named permission.
func (r *Repository) RoleHasPermission(ctx context.Context, roleID int64, permission string) (bool, error) {
	var held bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM role_permissions WHERE role_id = $1 AND permission_name = $2)`,
		roleID, permission).Scan(&held)
	if err != nil {
		return false, err
	}
	return held, nil
}

// RolePermissions returns the permission names held by a role, sorted.
func (r *Repository) RolePermissions(ctx context.Context, roleID int64) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT permission_name FROM role_permissions WHERE role_id = $1 ORDER BY permission_name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		perms = append(perms, name)
	}
	return perms, rows.Err()
}

// Mirror reconciles the permissions table with the code registry inside one
// transaction: registry entries are upserted and rows for names no longer in
// the registry are removed, cascading out of role_permissions so roles never
// keep dangling references.
func (r *Repository) Mirror(ctx context.Context, registry *Registry) error {
	perms := registry.All()
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		for _, p := range perms {
			if _, err := tx.Exec(ctx,
				`INSERT INTO permissions (name, description) VALUES ($1, $2)
				 ON CONFLICT (name) DO UPDATE SET description = EXCLUDED.description`,
				p.Name, p.Description); err != nil {
				return err
			}
		}
		names := make([]string, 0, len(perms))
		for _, p := range perms {
			names = append(names, p.Name)
		}
		_, err := tx.Exec(ctx, `DELETE FROM permissions WHERE name <> ALL($1)`, names)
		return err
	})
}
