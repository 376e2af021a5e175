package repository

import (
	"context"
	"cross-site-rewards/internal/model"
)

// RewardMappingRepository stores the local product -> remote reward product association
type RewardMappingRepository interface {
	// GetMapping returns ErrMappingNotFound when the product has no reward configured
	GetMapping(ctx context.Context, productID int64) (*model.RewardMapping, error)

	SetMapping(ctx context.Context, productID, remoteProductID int64) error

	DeleteMapping(ctx context.Context, productID int64) error
}

// IssuedRewardRepository guards the one-reward-per-line-item invariant.
type IssuedRewardRepository interface {
	// Reserve atomically claims the line item for issuance.
	// Returns ErrAlreadyIssued when a reward exists and ErrIssuanceInProgress
	// when another caller holds a live reservation.
	Reserve(ctx context.Context, reward *model.IssuedReward) (model.Reservation, error)

	// Complete records the code and claim URL. It only succeeds for the
	// holder of the reservation and never overwrites an issued reward.
	Complete(ctx context.Context, res model.Reservation, code, claimURL string) error

	// Release drops a pending reservation so a later event can retry
	Release(ctx context.Context, res model.Reservation) error

	// ListByOrder returns the issued (not pending) rewards of an order
	ListByOrder(ctx context.Context, orderID int64) ([]*model.IssuedReward, error)
}
