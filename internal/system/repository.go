package system

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) ServerVersion(ctx context.Context) (string, error) {
	var version string
	err := r.pool.QueryRow(ctx, `SELECT current_setting('server_version')`).Scan(&version)
	return version, err
}

func (r *repository) DatabaseSize(ctx context.Context) (int64, error) {
	var size int64
	err := r.pool.QueryRow(ctx, `SELECT pg_database_size(current_database())`).Scan(&size)
	return size, err
}

// TableCounts reads planner estimates rather than COUNT(*) per table; the
// console needs magnitudes, not exact figures.
func (r *repository) TableCounts(ctx context.Context) ([]TableStat, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT relname, n_live_tup FROM pg_stat_user_tables ORDER BY relname`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TableStat
	for rows.Next() {
		var t TableStat
		if err := rows.Scan(&t.Name, &t.Rows); err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

func (r *repository) ActivityCounts(ctx context.Context, since time.Time) (map[time.Time]int64, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT date_trunc('day', created_at AT TIME ZONE 'UTC') AS day, COUNT(*)
		FROM audit_logs
		WHERE created_at >= $1
		GROUP BY day`, since)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[time.Time]int64)
	for rows.Next() {
		var day time.Time
		var count int64
		if err := rows.Scan(&day, &count); err != nil {
			return nil, err
		}
		out[day.UTC()] = count
	}
	return out, rows.Err()
}
