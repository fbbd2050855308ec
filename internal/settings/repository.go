package settings

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

// Repository defines persistence operations for settings.
type Repository interface {
	Get(ctx context.Context, key string) (Setting, error)
	All(ctx context.Context) ([]Setting, error)
	UpdateValue(ctx context.Context, key, value string) error
	UpdateValues(ctx context.Context, values map[string]string) error
	ResetValue(ctx context.Context, key string) (Setting, error)
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

const settingColumns = `key, value, type, description, category, options, default_value, updated_at`

func scanSetting(row pgx.Row) (Setting, error) {
	var s Setting
	err := row.Scan(&s.Key, &s.Value, &s.Type, &s.Description, &s.Category, &s.Options, &s.Default, &s.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Setting{}, shared.ErrNotFound
		}
		return Setting{}, err
	}
	return s, nil
}

func (r *repository) Get(ctx context.Context, key string) (Setting, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+settingColumns+` FROM settings WHERE key = $1`, key)
	s, err := scanSetting(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Setting{}, fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
		}
		return Setting{}, err
	}
	return s, nil
}

// All returns every setting ordered by category then key, so the admin form
// renders in a stable order across calls.
func (r *repository) All(ctx context.Context) ([]Setting, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+settingColumns+` FROM settings ORDER BY category, key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Setting
	for rows.Next() {
		var s Setting
		if err := rows.Scan(&s.Key, &s.Value, &s.Type, &s.Description, &s.Category, &s.Options, &s.Default, &s.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *repository) UpdateValue(ctx context.Context, key, value string) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE settings SET value = $2, updated_at = $3 WHERE key = $1`, key, value, time.Now().UTC())
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
	}
	return nil
}

// UpdateValues applies a bulk admin save atomically: all rows update or none.
func (r *repository) UpdateValues(ctx context.Context, values map[string]string) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		now := time.Now().UTC()
		for key, value := range values {
			tag, err := tx.Exec(ctx,
				`UPDATE settings SET value = $2, updated_at = $3 WHERE key = $1`, key, value, now)
			if err != nil {
				return err
			}
			if tag.RowsAffected() == 0 {
				return fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
			}
		}
		return nil
	})
}

// ResetValue restores the seeded default and returns the updated row.
func (r *repository) ResetValue(ctx context.Context, key string) (Setting, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE settings SET value = default_value, updated_at = $2 WHERE key = $1 RETURNING `+settingColumns,
		key, time.Now().UTC())
	s, err := scanSetting(row)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return Setting{}, fmt.Errorf("setting %q: %w", key, shared.ErrNotFound)
		}
		return Setting{}, err
	}
	return s, nil
}
