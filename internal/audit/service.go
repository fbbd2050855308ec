package audit

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lanhub-app/lanhub/internal/shared"
)

// Filters narrow the audit listing. Zero values match everything.
type Filters struct {
	Action   string
	Resource string
	ActorID  int64
	From     time.Time
	To       time.Time
}

// Result wraps one page of entries with paging information.
type Result struct {
	Entries    []shared.AuditEntry
	Pagination shared.Pagination
}

// Repository provides read and maintenance access to the audit trail.
// Writes go through shared.AuditLogger.
type Repository interface {
	List(ctx context.Context, filters Filters, limit, offset int) ([]shared.AuditEntry, int, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Service coordinates audit trail reads.
type Service struct {
	repo Repository
}

// NewService builds an audit Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

const (
	defaultPageSize = 25
	maxPageSize     = 100
)

// Timeline returns one page of audit entries, newest first.
func (s *Service) Timeline(ctx context.Context, filters Filters, page, pageSize int) (Result, error) {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	if pageSize > maxPageSize {
		pageSize = maxPageSize
	}
	if page <= 0 {
		page = 1
	}
	entries, total, err := s.repo.List(ctx, filters, pageSize, (page-1)*pageSize)
	if err != nil {
		return Result{}, err
	}
	return Result{
		Entries:    entries,
		Pagination: shared.NewPagination(page, pageSize, total),
	}, nil
}

// Prune removes entries older than the retention window and reports how
// many rows were dropped.
func (s *Service) Prune(ctx context.Context, retention time.Duration) (int64, error) {
	if retention <= 0 {
		return 0, fmt.Errorf("%w: retention must be positive", shared.ErrValidation)
	}
	return s.repo.DeleteOlderThan(ctx, time.Now().Add(-retention))
}

type repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a PostgreSQL repository.
func NewRepository(pool *pgxpool.Pool) Repository {
	return &repository{pool: pool}
}

func (r *repository) List(ctx context.Context, filters Filters, limit, offset int) ([]shared.AuditEntry, int, error) {
	where := []string{"TRUE"}
	args := []any{}
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filters.Action != "" {
		where = append(where, "action = "+arg(filters.Action))
	}
	if filters.Resource != "" {
		where = append(where, "resource = "+arg(filters.Resource))
	}
	if filters.ActorID != 0 {
		where = append(where, "actor_id = "+arg(filters.ActorID))
	}
	if !filters.From.IsZero() {
		where = append(where, "created_at >= "+arg(filters.From))
	}
	if !filters.To.IsZero() {
		where = append(where, "created_at < "+arg(filters.To))
	}
	cond := strings.Join(where, " AND ")

	var total int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM audit_logs WHERE "+cond, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count audit logs: %w", err)
	}

	query := fmt.Sprintf(`
		SELECT id, COALESCE(actor_id, 0), action, resource, COALESCE(resource_id, 0), details, ip_address, created_at
		FROM audit_logs
		WHERE %s
		ORDER BY created_at DESC, id DESC
		LIMIT %s OFFSET %s`, cond, arg(limit), arg(offset))
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("list audit logs: %w", err)
	}
	defer rows.Close()

	var entries []shared.AuditEntry
	for rows.Next() {
		var e shared.AuditEntry
		if err := rows.Scan(&e.ID, &e.ActorID, &e.Action, &e.Resource, &e.ResourceID, &e.Details, &e.IPAddress, &e.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("scan audit log: %w", err)
		}
		entries = append(entries, e)
	}
	return entries, total, rows.Err()
}

func (r *repository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := r.pool.Exec(ctx, `DELETE FROM audit_logs WHERE created_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune audit logs: %w", err)
	}
	return tag.RowsAffected(), nil
}
