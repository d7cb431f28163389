package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingCache struct{ err error }

func (f failingCache) Get(ctx context.Context, key string, dest interface{}) error { return f.err }
func (f failingCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	return f.err
}
func (f failingCache) DeleteByPattern(ctx context.Context, pattern string) error { return f.err }

func TestCacheServiceDisabledIsPermanentMiss(t *testing.T) {
	store := newMemoryCache()
	svc := NewCacheService(store, nil, 0, nil, false)

	require.NoError(t, svc.Set(context.Background(), "k", "v", 0))
	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)
	assert.Empty(t, store.items)
}

func TestCacheServiceRecordsHitsAndMisses(t *testing.T) {
	metrics := NewMetricsService()
	svc := NewCacheService(newMemoryCache(), metrics, time.Minute, nil, true)
	ctx := context.Background()

	var out string
	hit, err := svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, svc.Set(ctx, "k", "v", 0))
	hit, err = svc.Get(ctx, "k", &out)
	require.NoError(t, err)
	assert.True(t, hit)
	assert.Equal(t, "v", out)

	assert.Equal(t, uint64(1), metrics.cacheHitCount)
	assert.Equal(t, uint64(1), metrics.cacheMissCount)
}

func TestCacheServiceSurfacesBackendErrors(t *testing.T) {
	boom := errors.New("connection refused")
	svc := NewCacheService(failingCache{err: boom}, nil, time.Minute, nil, true)

	var out string
	hit, err := svc.Get(context.Background(), "k", &out)
	assert.False(t, hit)
	assert.ErrorIs(t, err, boom)
	assert.ErrorIs(t, svc.Invalidate(context.Background(), "editor:snapshot:*"), boom)
}
