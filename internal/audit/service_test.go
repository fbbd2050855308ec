package audit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lanhub-app/lanhub/internal/shared"
)

type stubRepository struct {
	entries    []shared.AuditEntry
	lastLimit  int
	lastOffset int
	lastCutoff time.Time
}

func (s *stubRepository) List(ctx context.Context, filters Filters, limit, offset int) ([]shared.AuditEntry, int, error) {
	s.lastLimit = limit
	s.lastOffset = offset
	return s.entries, len(s.entries), nil
}

func (s *stubRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	s.lastCutoff = cutoff
	return 3, nil
}

func TestTimelineClampsPaging(t *testing.T) {
	repo := &stubRepository{}
	svc := NewService(repo)
	ctx := context.Background()

	_, err := svc.Timeline(ctx, Filters{}, 0, 0)
	require.NoError(t, err)
	assert.Equal(t, defaultPageSize, repo.lastLimit)
	assert.Equal(t, 0, repo.lastOffset)

	_, err = svc.Timeline(ctx, Filters{}, 3, 1000)
	require.NoError(t, err)
	assert.Equal(t, maxPageSize, repo.lastLimit)
	assert.Equal(t, 2*maxPageSize, repo.lastOffset)
}

func TestTimelinePagination(t *testing.T) {
	repo := &stubRepository{entries: []shared.AuditEntry{
		{ID: 2, Action: "login", Resource: "auth"},
		{ID: 1, Action: "created", Resource: "users"},
	}}
	svc := NewService(repo)

	result, err := svc.Timeline(context.Background(), Filters{}, 1, 10)
	require.NoError(t, err)
	assert.Len(t, result.Entries, 2)
	assert.Equal(t, 2, result.Pagination.Total)
	assert.Equal(t, 1, result.Pagination.TotalPages)
}

func TestPrune(t *testing.T) {
	repo := &stubRepository{}
	svc := NewService(repo)

	n, err := svc.Prune(context.Background(), 30*24*time.Hour)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	assert.WithinDuration(t, time.Now().Add(-30*24*time.Hour), repo.lastCutoff, 5*time.Second)

	_, err = svc.Prune(context.Background(), 0)
	require.Error(t, err)
	assert.True(t, errors.Is(err, shared.ErrValidation))
}
