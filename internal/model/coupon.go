package model

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CodePrefix namespaces reward coupons apart from any other coupon in the store
const CodePrefix = "XSR-"

const DiscountTypePercent = "percent"

type CouponStatus string

const (
	CouponStatusActive   CouponStatus = "active"
	CouponStatusUsed     CouponStatus = "used"
	CouponStatusInactive CouponStatus = "inactive"
)

// Coupon represents a reward coupon minted on the receiver
type Coupon struct {
	ID            primitive.ObjectID `bson:"_id,omitempty" json:"id,omitempty"`
	Code          string             `bson:"code" json:"code"`
	DiscountType  string             `bson:"discount_type" json:"discount_type"`
	Amount        float64            `bson:"amount" json:"amount"` // percent of price
	ProductIDs    []int64            `bson:"product_ids" json:"product_ids"`
	UsageLimit    int32              `bson:"usage_limit" json:"usage_limit"`
	UsageCount    int32              `bson:"usage_count" json:"usage_count"` // maintained by the store checkout
	IndividualUse bool               `bson:"individual_use" json:"individual_use"`
	Description   string             `bson:"description" json:"description"`
	IsActive      bool               `bson:"is_active" json:"is_active"`
	CreatedAt     time.Time          `bson:"created_at" json:"created_at"`
}

func (c *Coupon) Status() CouponStatus {
	switch {
	case c.UsageLimit > 0 && c.UsageCount >= c.UsageLimit:
		return CouponStatusUsed
	case c.IsActive:
		return CouponStatusActive
	default:
		return CouponStatusInactive
	}
}

// CouponView is the operational listing row
type CouponView struct {
	ID         string       `json:"id"`
	Code       string       `json:"code"`
	Status     CouponStatus `json:"status"`
	UsageCount int32        `json:"usage_count"`
	UsageLimit int32        `json:"usage_limit"`
	ProductIDs []int64      `json:"product_ids"`
	CreatedAt  time.Time    `json:"created_at"`
}

func (c *Coupon) View() CouponView {
	return CouponView{
		ID:         c.ID.Hex(),
		Code:       c.Code,
		Status:     c.Status(),
		UsageCount: c.UsageCount,
		UsageLimit: c.UsageLimit,
		ProductIDs: c.ProductIDs,
		CreatedAt:  c.CreatedAt,
	}
}
