package system

import (
	"context"
	"fmt"
	"sort"
	"time"
)

const (
	defaultActivityDays = 14
	maxActivityDays     = 90
)

// TableStat is the row count for one table.
type TableStat struct {
	Name string `json:"name"`
	Rows int64  `json:"rows"`
}

// Overview summarises the database for the admin console.
type Overview struct {
	ServerVersion string      `json:"server_version"`
	SizeBytes     int64       `json:"size_bytes"`
	SizeHuman     string      `json:"size_human"`
	TableCount    int         `json:"table_count"`
	TotalRows     int64       `json:"total_rows"`
	Tables        []TableStat `json:"tables"`
	CollectedAt   time.Time   `json:"collected_at"`
}

// ActivityPoint is the audit entry count for one day.
type ActivityPoint struct {
	Date  string `json:"date"`
	Count int64  `json:"count"`
}

// Repository reads database metadata.
type Repository interface {
	ServerVersion(ctx context.Context) (string, error)
	DatabaseSize(ctx context.Context) (int64, error)
	TableCounts(ctx context.Context) ([]TableStat, error)
	// ActivityCounts returns audit entries per UTC day since the cutoff,
	// keyed by midnight of the day.
	ActivityCounts(ctx context.Context, since time.Time) (map[time.Time]int64, error)
}

// Service assembles the admin database console views.
type Service struct {
	repo Repository
}

// NewService builds a Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Overview gathers version, size and per-table row counts, largest tables
// first.
func (s *Service) Overview(ctx context.Context) (Overview, error) {
	version, err := s.repo.ServerVersion(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("system: server version: %w", err)
	}
	size, err := s.repo.DatabaseSize(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("system: database size: %w", err)
	}
	tables, err := s.repo.TableCounts(ctx)
	if err != nil {
		return Overview{}, fmt.Errorf("system: table counts: %w", err)
	}

	sort.SliceStable(tables, func(i, j int) bool {
		if tables[i].Rows != tables[j].Rows {
			return tables[i].Rows > tables[j].Rows
		}
		return tables[i].Name < tables[j].Name
	})
	var total int64
	for _, t := range tables {
		total += t.Rows
	}

	return Overview{
		ServerVersion: version,
		SizeBytes:     size,
		SizeHuman:     humanSize(size),
		TableCount:    len(tables),
		TotalRows:     total,
		Tables:        tables,
		CollectedAt:   time.Now().UTC(),
	}, nil
}

// Activity returns audit entry counts per day for the last days days,
// oldest first, with zero-count days filled in. days outside [1, 90]
// is clamped; zero means the 14-day default.
func (s *Service) Activity(ctx context.Context, days int) ([]ActivityPoint, error) {
	if days <= 0 {
		days = defaultActivityDays
	}
	if days > maxActivityDays {
		days = maxActivityDays
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	since := today.AddDate(0, 0, -(days - 1))
	counts, err := s.repo.ActivityCounts(ctx, since)
	if err != nil {
		return nil, fmt.Errorf("system: activity counts: %w", err)
	}

	out := make([]ActivityPoint, 0, days)
	for i := 0; i < days; i++ {
		day := since.AddDate(0, 0, i)
		out = append(out, ActivityPoint{Date: day.Format("Jan 02"), Count: counts[day]})
	}
	return out, nil
}

func humanSize(size int64) string {
	value := float64(size)
	for _, unit := range []string{"B", "KB", "MB", "GB"} {
		if value < 1024 {
			return fmt.Sprintf("%.1f %s", value, unit)
		}
		value /= 1024
	}
	return fmt.Sprintf("%.1f TB", value)
}
