package repository

import (
	"context"
	"cross-site-rewards/internal/model"
)

// CouponRepository defines the interface for coupon data operations
type CouponRepository interface {
	// CreateCoupon stores a new coupon and fills in its ID.
	// Returns ErrCouponAlreadyExists when the code is taken.
	CreateCoupon(ctx context.Context, coupon *model.Coupon) error

	// ListCouponsByPrefix returns coupons whose code starts with prefix, newest first
	ListCouponsByPrefix(ctx context.Context, prefix string) ([]*model.Coupon, error)

	// DeleteCoupon removes a coupon by its hex id
	DeleteCoupon(ctx context.Context, id string) error
}
