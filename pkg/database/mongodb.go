package database

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoDB wraps the MongoDB client and database
type MongoDB struct {
	Client   *mongo.Client
	Database *mongo.Database
}

// Connect establishes a connection to MongoDB
func Connect(ctx context.Context, uri, dbName string) (*MongoDB, error) {
	clientOptions := options.Client().ApplyURI(uri)

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
	}

	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	mongoDB := &MongoDB{
		Client:   client,
		Database: client.Database(dbName),
	}

	if err := mongoDB.CreateIndexes(ctx); err != nil {
		return nil, fmt.Errorf("failed to create indexes: %w", err)
	}

	return mongoDB, nil
}

// CreateIndexes creates all necessary indexes for the application.
// Reward mappings and issued rewards are keyed by _id and need no extra
// unique index.
func (m *MongoDB) CreateIndexes(ctx context.Context) error {
	// Unique coupon codes; a collision makes the service draw a new code
	couponCodeIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "code", Value: 1}},
		Options: options.Index().SetUnique(true).SetName("coupon_code_unique"),
	}
	if _, err := m.Database.Collection("coupons").Indexes().CreateOne(ctx, couponCodeIndex); err != nil {
		return fmt.Errorf("failed to create coupon code index: %w", err)
	}

	orderIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "order_id", Value: 1}, {Key: "status", Value: 1}},
		Options: options.Index().SetName("order_status_index"),
	}
	if _, err := m.Database.Collection("issued_rewards").Indexes().CreateOne(ctx, orderIndex); err != nil {
		return fmt.Errorf("failed to create issued reward order index: %w", err)
	}

	productStatusIndex := mongo.IndexModel{
		Keys:    bson.D{{Key: "status", Value: 1}},
		Options: options.Index().SetName("product_status_index"),
	}
	if _, err := m.Database.Collection("products").Indexes().CreateOne(ctx, productStatusIndex); err != nil {
		return fmt.Errorf("failed to create product status index: %w", err)
	}

	return nil
}

// Disconnect closes the MongoDB connection
func (m *MongoDB) Disconnect(ctx context.Context) error {
	return m.Client.Disconnect(ctx)
}
