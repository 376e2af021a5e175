package service

import (
	"context"
	"cross-site-rewards/internal/model"
	"cross-site-rewards/pkg/cache"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/metrics"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubLister struct {
	products []model.RemoteProduct
	err      error
	calls    int32
}

func (s *stubLister) ListProducts(context.Context) ([]model.RemoteProduct, error) {
	atomic.AddInt32(&s.calls, 1)
	return s.products, s.err
}

func newTestCatalogCache(t *testing.T, lister ProductLister) (*CatalogCache, *miniredis.Miniredis) {
	mr := miniredis.RunT(t)
	store := cache.NewRedisStore(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	return NewCatalogCache(store, lister, metrics.New(), zap.NewNop()), mr
}

func TestCatalogCache_ReadBeforeRefresh(t *testing.T) {
	lister := &stubLister{}
	c, _ := newTestCatalogCache(t, lister)

	_, err := c.Read(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)
	assert.Zero(t, atomic.LoadInt32(&lister.calls))
}

func TestCatalogCache_RefreshThenRead(t *testing.T) {
	lister := &stubLister{products: []model.RemoteProduct{{ID: 42, Name: "Simulator (ID: 42)"}, {ID: 7, Name: "Mug (ID: 7)"}}}
	c, mr := newTestCatalogCache(t, lister)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.NoError(t, err)
	assert.Equal(t, time.Hour, mr.TTL(CatalogCacheKey))

	snap, err := c.Read(ctx)
	require.NoError(t, err)
	assert.Equal(t, lister.products, snap.Products)
	assert.False(t, snap.FetchedAt.IsZero())

	p, ok, err := c.Lookup(ctx, 7)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "Mug (ID: 7)", p.Name)

	_, ok, err = c.Lookup(ctx, 8)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogCache_FailedRefreshKeepsCache(t *testing.T) {
	lister := &stubLister{products: []model.RemoteProduct{{ID: 42, Name: "Simulator (ID: 42)"}}}
	c, mr := newTestCatalogCache(t, lister)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.NoError(t, err)
	mr.FastForward(10 * time.Minute)
	before, err := mr.Get(CatalogCacheKey)
	require.NoError(t, err)

	failures := []error{apperrors.ErrAuthentication, apperrors.ErrRemoteUnavailable, nil}
	for _, failure := range failures {
		lister.products, lister.err = nil, failure

		_, err := c.Refresh(ctx)
		assert.Error(t, err)
		if failure != nil {
			assert.ErrorIs(t, err, failure)
		}

		after, err := mr.Get(CatalogCacheKey)
		require.NoError(t, err)
		assert.Equal(t, before, after)
		assert.Equal(t, 50*time.Minute, mr.TTL(CatalogCacheKey))
	}
}

func TestCatalogCache_Expires(t *testing.T) {
	lister := &stubLister{products: []model.RemoteProduct{{ID: 42, Name: "Simulator (ID: 42)"}}}
	c, mr := newTestCatalogCache(t, lister)
	ctx := context.Background()

	_, err := c.Refresh(ctx)
	require.NoError(t, err)
	mr.FastForward(61 * time.Minute)

	_, err = c.Read(ctx)
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)
}

func TestCatalogCache_CorruptEntryIsMiss(t *testing.T) {
	c, mr := newTestCatalogCache(t, &stubLister{})
	require.NoError(t, mr.Set(CatalogCacheKey, "not json"))

	_, err := c.Read(context.Background())
	assert.ErrorIs(t, err, apperrors.ErrCacheMiss)
}
