package service

import (
	"context"
	"cross-site-rewards/internal/model"
	"cross-site-rewards/pkg/cache"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/metrics"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	CatalogCacheKey = "xsr:remote_products"
	CatalogCacheTTL = time.Hour
)

// ProductLister fetches the receiver's product list
type ProductLister interface {
	ListProducts(ctx context.Context) ([]model.RemoteProduct, error)
}

// CatalogCache keeps the receiver's product list for the mapping editor.
// Nothing on the issuance path reads it.
type CatalogCache struct {
	store   cache.Store
	lister  ProductLister
	ttl     time.Duration
	group   singleflight.Group
	now     func() time.Time
	metrics *metrics.Metrics
	logger  *zap.Logger
}

func NewCatalogCache(store cache.Store, lister ProductLister, m *metrics.Metrics, logger *zap.Logger) *CatalogCache {
	return &CatalogCache{
		store:   store,
		lister:  lister,
		ttl:     CatalogCacheTTL,
		now:     time.Now,
		metrics: m,
		logger:  logger,
	}
}

// Refresh replaces the cached list with a fresh copy from the receiver. On
// any failure the cached list is left as it was.
func (c *CatalogCache) Refresh(ctx context.Context) (model.CatalogSnapshot, error) {
	v, err, _ := c.group.Do("refresh", func() (interface{}, error) {
		return c.refresh(ctx)
	})
	if err != nil {
		c.metrics.CacheRefreshes.WithLabelValues("failure").Inc()
		c.logger.Warn("Remote product list refresh failed", zap.Error(err))
		return model.CatalogSnapshot{}, err
	}
	c.metrics.CacheRefreshes.WithLabelValues("success").Inc()
	return v.(model.CatalogSnapshot), nil
}

func (c *CatalogCache) refresh(ctx context.Context) (model.CatalogSnapshot, error) {
	products, err := c.lister.ListProducts(ctx)
	if err != nil {
		return model.CatalogSnapshot{}, err
	}
	if len(products) == 0 {
		return model.CatalogSnapshot{}, fmt.Errorf("%w: empty product list", apperrors.ErrRemoteUnavailable)
	}

	snap := model.CatalogSnapshot{Products: products, FetchedAt: c.now().UTC()}
	b, err := json.Marshal(snap)
	if err != nil {
		return model.CatalogSnapshot{}, err
	}
	if err := c.store.Set(ctx, CatalogCacheKey, b, c.ttl); err != nil {
		return model.CatalogSnapshot{}, fmt.Errorf("storing remote product list: %w", err)
	}
	return snap, nil
}

// Read returns the cached list without touching the network.
// ErrCacheMiss means the list was never loaded or has expired.
func (c *CatalogCache) Read(ctx context.Context) (model.CatalogSnapshot, error) {
	b, err := c.store.Get(ctx, CatalogCacheKey)
	if err != nil {
		if apperrors.Is(err, cache.ErrMiss) {
			return model.CatalogSnapshot{}, apperrors.ErrCacheMiss
		}
		return model.CatalogSnapshot{}, err
	}

	var snap model.CatalogSnapshot
	if err := json.Unmarshal(b, &snap); err != nil || len(snap.Products) == 0 {
		c.logger.Warn("Ignoring unreadable remote product cache", zap.Error(err))
		return model.CatalogSnapshot{}, apperrors.ErrCacheMiss
	}
	return snap, nil
}

// Lookup finds one remote product in the cached list
func (c *CatalogCache) Lookup(ctx context.Context, id int64) (model.RemoteProduct, bool, error) {
	snap, err := c.Read(ctx)
	if err != nil {
		return model.RemoteProduct{}, false, err
	}
	p, ok := snap.ByID()[id]
	return p, ok, nil
}
