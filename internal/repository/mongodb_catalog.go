package repository

import (
	"context"
	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type mongodbProductCatalog struct {
	collection *mongo.Collection
}

// NewProductCatalog reads the host store's "products" collection
func NewProductCatalog(db *mongo.Database) ProductCatalog {
	return &mongodbProductCatalog{
		collection: db.Collection("products"),
	}
}

func (r *mongodbProductCatalog) ListPublished(ctx context.Context) ([]*model.Product, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"status": model.ProductStatusPublish}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	products := make([]*model.Product, 0)
	if err := cursor.All(ctx, &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (r *mongodbProductCatalog) GetProduct(ctx context.Context, id int64) (*model.Product, error) {
	var product model.Product
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&product)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrProductNotFound
		}
		return nil, err
	}
	return &product, nil
}

type mongodbOrderRepository struct {
	collection *mongo.Collection
}

// NewOrderRepository reads the host store's "orders" collection
func NewOrderRepository(db *mongo.Database) OrderRepository {
	return &mongodbOrderRepository{
		collection: db.Collection("orders"),
	}
}

func (r *mongodbOrderRepository) GetOrder(ctx context.Context, id int64) (*model.Order, error) {
	var order model.Order
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}
