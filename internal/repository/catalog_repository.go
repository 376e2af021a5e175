package repository

import (
	"context"
	"cross-site-rewards/internal/model"
)

// ProductCatalog is the host store's product catalog
type ProductCatalog interface {
	// ListPublished returns every publicly purchasable product ordered by id
	ListPublished(ctx context.Context) ([]*model.Product, error)

	// GetProduct returns ErrProductNotFound for unknown ids
	GetProduct(ctx context.Context, id int64) (*model.Product, error)
}

// OrderRepository reads orders of the host store
type OrderRepository interface {
	GetOrder(ctx context.Context, id int64) (*model.Order, error)
}
