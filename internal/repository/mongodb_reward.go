package repository

import (
	"context"
	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ReservationLease is how long a pending reservation blocks other callers.
// It has to outlive the generate timeout of the remote call.
const ReservationLease = 60 * time.Second

type mongodbRewardMappingRepository struct {
	collection *mongo.Collection
}

// NewRewardMappingRepository creates a MongoDB-based reward mapping repository
func NewRewardMappingRepository(db *mongo.Database) RewardMappingRepository {
	return &mongodbRewardMappingRepository{
		collection: db.Collection("reward_mappings"),
	}
}

func (r *mongodbRewardMappingRepository) GetMapping(ctx context.Context, productID int64) (*model.RewardMapping, error) {
	var m model.RewardMapping
	err := r.collection.FindOne(ctx, bson.M{"_id": productID}).Decode(&m)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, apperrors.ErrMappingNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *mongodbRewardMappingRepository) SetMapping(ctx context.Context, productID, remoteProductID int64) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": productID},
		bson.M{"$set": bson.M{"remote_product_id": remoteProductID, "updated_at": time.Now()}},
		options.Update().SetUpsert(true),
	)
	return err
}

func (r *mongodbRewardMappingRepository) DeleteMapping(ctx context.Context, productID int64) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{"_id": productID})
	return err
}

// mongodbIssuedRewardRepository implements IssuedRewardRepository using MongoDB.
// The line item id is the document _id, so the insert in Reserve is the
// atomic check-and-reserve.
type mongodbIssuedRewardRepository struct {
	collection *mongo.Collection
	lease      time.Duration
	now        func() time.Time
}

// NewIssuedRewardRepository creates a MongoDB-based issued reward repository
func NewIssuedRewardRepository(db *mongo.Database) IssuedRewardRepository {
	return &mongodbIssuedRewardRepository{
		collection: db.Collection("issued_rewards"),
		lease:      ReservationLease,
		now:        time.Now,
	}
}

func (r *mongodbIssuedRewardRepository) Reserve(ctx context.Context, reward *model.IssuedReward) (model.Reservation, error) {
	now := r.now()
	res := model.Reservation{LineItemID: reward.LineItemID, Token: uuid.NewString()}

	reward.Status = model.IssuedRewardPending
	reward.Token = res.Token
	reward.ReservedAt = now
	reward.Code = ""
	reward.ClaimURL = ""
	reward.IssuedAt = nil

	_, err := r.collection.InsertOne(ctx, reward)
	if err == nil {
		return res, nil
	}
	if !mongo.IsDuplicateKeyError(err) {
		return model.Reservation{}, err
	}

	// Take over a reservation whose holder gave up without releasing it.
	takeover := r.collection.FindOneAndUpdate(ctx,
		bson.M{
			"_id":         reward.LineItemID,
			"status":      model.IssuedRewardPending,
			"reserved_at": bson.M{"$lt": now.Add(-r.lease)},
		},
		bson.M{"$set": bson.M{
			"token":             res.Token,
			"reserved_at":       now,
			"order_id":          reward.OrderID,
			"product_id":        reward.ProductID,
			"remote_product_id": reward.RemoteProductID,
		}},
	)
	if takeover.Err() == nil {
		return res, nil
	}
	if !errors.Is(takeover.Err(), mongo.ErrNoDocuments) {
		return model.Reservation{}, takeover.Err()
	}

	var existing model.IssuedReward
	if err := r.collection.FindOne(ctx, bson.M{"_id": reward.LineItemID}).Decode(&existing); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			// released between our insert and this read; the next event retries
			return model.Reservation{}, apperrors.ErrIssuanceInProgress
		}
		return model.Reservation{}, err
	}
	if existing.Status == model.IssuedRewardIssued {
		return model.Reservation{}, apperrors.ErrAlreadyIssued
	}
	return model.Reservation{}, apperrors.ErrIssuanceInProgress
}

func (r *mongodbIssuedRewardRepository) Complete(ctx context.Context, res model.Reservation, code, claimURL string) error {
	issuedAt := r.now()
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": res.LineItemID, "status": model.IssuedRewardPending, "token": res.Token},
		bson.M{"$set": bson.M{
			"status":    model.IssuedRewardIssued,
			"code":      code,
			"claim_url": claimURL,
			"issued_at": issuedAt,
		}},
	)
	if err != nil {
		return err
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("reservation for line item %d lost: %w", res.LineItemID, apperrors.ErrIssuanceInProgress)
	}
	return nil
}

func (r *mongodbIssuedRewardRepository) Release(ctx context.Context, res model.Reservation) error {
	_, err := r.collection.DeleteOne(ctx, bson.M{
		"_id":    res.LineItemID,
		"status": model.IssuedRewardPending,
		"token":  res.Token,
	})
	return err
}

func (r *mongodbIssuedRewardRepository) ListByOrder(ctx context.Context, orderID int64) ([]*model.IssuedReward, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"order_id": orderID, "status": model.IssuedRewardIssued}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	rewards := make([]*model.IssuedReward, 0)
	if err := cursor.All(ctx, &rewards); err != nil {
		return nil, err
	}
	return rewards, nil
}
