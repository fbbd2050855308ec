package settings

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestCache(t *testing.T) *Cache {
	t.Helper()
	srv := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCache(client, time.Minute)
}

func TestCacheFetchPopulatesAndReuses(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	loads := 0
	loader := func(ctx context.Context) (Setting, error) {
		loads++
		return Setting{Key: "app_name", Value: "LanHub", Type: TypeString}, nil
	}

	s, err := cache.Fetch(ctx, "app_name", loader)
	require.NoError(t, err)
	assert.Equal(t, "LanHub", s.Value)
	assert.Equal(t, 1, loads)

	s, err = cache.Fetch(ctx, "app_name", loader)
	require.NoError(t, err)
	assert.Equal(t, "LanHub", s.Value)
	assert.Equal(t, 1, loads, "second read must hit the cache")
}

func TestCacheInvalidateForcesReload(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	value := "before"
	loader := func(ctx context.Context) (Setting, error) {
		return Setting{Key: "app_name", Value: value, Type: TypeString}, nil
	}

	s, err := cache.Fetch(ctx, "app_name", loader)
	require.NoError(t, err)
	assert.Equal(t, "before", s.Value)

	value = "after"
	require.NoError(t, cache.Invalidate(ctx, "app_name"))

	s, err = cache.Fetch(ctx, "app_name", loader)
	require.NoError(t, err)
	assert.Equal(t, "after", s.Value, "invalidation must be visible to the next read")
}

func TestFetchStraddlingInvalidationDoesNotRepopulate(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan struct{})

	var first Setting
	var firstErr error
	go func() {
		defer close(done)
		first, firstErr = cache.Fetch(ctx, "app_name", func(ctx context.Context) (Setting, error) {
			close(started)
			<-release
			return Setting{Key: "app_name", Value: "old", Type: TypeString}, nil
		})
	}()

	// A write invalidates the key while the load is still in flight.
	<-started
	require.NoError(t, cache.Invalidate(ctx, "app_name"))
	close(release)
	<-done

	require.NoError(t, firstErr)
	assert.Equal(t, "old", first.Value)

	// The pre-invalidation snapshot must not have been written back;
	// the next read goes to the loader and sees the fresh value.
	s, err := cache.Fetch(ctx, "app_name", func(ctx context.Context) (Setting, error) {
		return Setting{Key: "app_name", Value: "new", Type: TypeString}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "new", s.Value)
}

func TestNilCacheFallsThrough(t *testing.T) {
	var cache *Cache
	ctx := context.Background()

	s, err := cache.Fetch(ctx, "app_name", func(ctx context.Context) (Setting, error) {
		return Setting{Key: "app_name", Value: "direct"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "direct", s.Value)
	require.NoError(t, cache.Invalidate(ctx, "app_name"))
	require.NoError(t, cache.Warm(ctx, nil))
}

func TestCacheWarm(t *testing.T) {
	cache := newTestCache(t)
	ctx := context.Background()

	require.NoError(t, cache.Warm(ctx, []Setting{
		{Key: "app_name", Value: "LanHub", Type: TypeString},
	}))

	s, err := cache.Fetch(ctx, "app_name", func(ctx context.Context) (Setting, error) {
		t.Fatal("warmed key must not hit the loader")
		return Setting{}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "LanHub", s.Value)
}
