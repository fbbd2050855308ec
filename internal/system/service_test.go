package system

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubRepository struct {
	version  string
	size     int64
	tables   []TableStat
	activity map[time.Time]int64

	since time.Time
}

func (s *stubRepository) ServerVersion(ctx context.Context) (string, error) {
	return s.version, nil
}

func (s *stubRepository) DatabaseSize(ctx context.Context) (int64, error) {
	return s.size, nil
}

func (s *stubRepository) TableCounts(ctx context.Context) ([]TableStat, error) {
	return append([]TableStat{}, s.tables...), nil
}

func (s *stubRepository) ActivityCounts(ctx context.Context, since time.Time) (map[time.Time]int64, error) {
	s.since = since
	return s.activity, nil
}

func TestOverviewSortsLargestTablesFirst(t *testing.T) {
	svc := NewService(&stubRepository{
		version: "16.3",
		size:    2048,
		tables: []TableStat{
			{Name: "audit_logs", Rows: 1500},
			{Name: "roles", Rows: 4},
			{Name: "users", Rows: 40},
			{Name: "settings", Rows: 4},
		},
	})

	overview, err := svc.Overview(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "16.3", overview.ServerVersion)
	assert.Equal(t, 4, overview.TableCount)
	assert.Equal(t, int64(1548), overview.TotalRows)

	var names []string
	for _, table := range overview.Tables {
		names = append(names, table.Name)
	}
	assert.Equal(t, []string{"audit_logs", "users", "roles", "settings"}, names,
		"largest first, equal counts by name")
}

func TestHumanSize(t *testing.T) {
	cases := map[int64]string{
		512:     "512.0 B",
		2048:    "2.0 KB",
		5 << 20: "5.0 MB",
		3 << 30: "3.0 GB",
		2 << 40: "2.0 TB",
	}
	for size, want := range cases {
		assert.Equal(t, want, humanSize(size))
	}
}

func TestActivityFillsMissingDays(t *testing.T) {
	today := time.Now().UTC().Truncate(24 * time.Hour)
	repo := &stubRepository{activity: map[time.Time]int64{
		today:                   3,
		today.AddDate(0, 0, -2): 7,
	}}
	svc := NewService(repo)

	points, err := svc.Activity(context.Background(), 3)
	require.NoError(t, err)
	require.Len(t, points, 3)
	assert.Equal(t, today.AddDate(0, 0, -2), repo.since)

	// Oldest first; the uncounted middle day reads zero.
	assert.Equal(t, int64(7), points[0].Count)
	assert.Equal(t, int64(0), points[1].Count)
	assert.Equal(t, int64(3), points[2].Count)
	assert.Equal(t, today.Format("Jan 02"), points[2].Date)
}

func TestActivityClampsRange(t *testing.T) {
	repo := &stubRepository{activity: map[time.Time]int64{}}
	svc := NewService(repo)

	points, err := svc.Activity(context.Background(), 0)
	require.NoError(t, err)
	assert.Len(t, points, 14)

	points, err = svc.Activity(context.Background(), 500)
	require.NoError(t, err)
	assert.Len(t, points, 90)
}
