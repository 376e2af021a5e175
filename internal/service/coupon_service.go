package service

import (
	"context"
	"cross-site-rewards/internal/model"
	"cross-site-rewards/internal/repository"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/metrics"
	"fmt"
	"net/url"
	"strconv"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"go.uber.org/zap"
)

const (
	codeAlphabet    = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	codeLength      = 8
	maxCodeAttempts = 3
)

// CouponService mints reward coupons on the receiver
type CouponService struct {
	couponRepo repository.CouponRepository
	catalog    repository.ProductCatalog
	cartURL    string
	newCode    func() string
	metrics    *metrics.Metrics
	logger     *zap.Logger
}

// NewCouponService creates a new coupon service
func NewCouponService(couponRepo repository.CouponRepository, catalog repository.ProductCatalog, cartURL string, m *metrics.Metrics, logger *zap.Logger) *CouponService {
	return &CouponService{
		couponRepo: couponRepo,
		catalog:    catalog,
		cartURL:    cartURL,
		newCode:    newRewardCode,
		metrics:    m,
		logger:     logger,
	}
}

// newRewardCode returns XSR- followed by eight upper-case alphanumerics
func newRewardCode() string {
	return model.CodePrefix + shortuuid.NewWithAlphabet(codeAlphabet)[:codeLength]
}

// ListClaimableProducts returns every published product, read fresh from the catalog
func (s *CouponService) ListClaimableProducts(ctx context.Context) ([]model.RemoteProduct, error) {
	products, err := s.catalog.ListPublished(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]model.RemoteProduct, 0, len(products))
	for _, p := range products {
		out = append(out, model.RemoteProduct{
			ID:   p.ID,
			Name: fmt.Sprintf("%s (ID: %d)", p.Name, p.ID),
		})
	}
	return out, nil
}

// GenerateRewardCoupon mints one single-use, 100% coupon restricted to the
// product. Callers are responsible for not asking twice.
func (s *CouponService) GenerateRewardCoupon(ctx context.Context, rewardProductID int64) (*model.GenerateCouponResponse, error) {
	if rewardProductID <= 0 {
		return nil, fmt.Errorf("%w: reward_product_id is required", apperrors.ErrInvalidRequest)
	}

	if _, err := s.catalog.GetProduct(ctx, rewardProductID); err != nil {
		if apperrors.Is(err, apperrors.ErrProductNotFound) {
			return nil, fmt.Errorf("%w: product %d does not exist", apperrors.ErrInvalidRequest, rewardProductID)
		}
		return nil, err
	}

	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		coupon := &model.Coupon{
			Code:          s.newCode(),
			DiscountType:  model.DiscountTypePercent,
			Amount:        100,
			ProductIDs:    []int64{rewardProductID},
			UsageLimit:    1,
			IndividualUse: true,
			Description:   fmt.Sprintf("Cross-site reward for product ID %d", rewardProductID),
			IsActive:      true,
			CreatedAt:     time.Now(),
		}

		err := s.couponRepo.CreateCoupon(ctx, coupon)
		if apperrors.Is(err, apperrors.ErrCouponAlreadyExists) {
			s.logger.Warn("Coupon code collision, drawing a new one", zap.String("code", coupon.Code))
			continue
		}
		if err != nil {
			return nil, err
		}

		claimURL, err := buildClaimURL(s.cartURL, rewardProductID, coupon.Code)
		if err != nil {
			return nil, err
		}

		s.metrics.CouponsGenerated.Inc()
		s.logger.Info("Reward coupon created",
			zap.String("code", coupon.Code),
			zap.Int64("product_id", rewardProductID),
		)
		return &model.GenerateCouponResponse{Code: coupon.Code, ClaimURL: claimURL}, nil
	}

	return nil, fmt.Errorf("no unique coupon code after %d attempts", maxCodeAttempts)
}

// ListIssuedCoupons returns the coupons minted by this system, newest first
func (s *CouponService) ListIssuedCoupons(ctx context.Context) ([]model.CouponView, error) {
	coupons, err := s.couponRepo.ListCouponsByPrefix(ctx, model.CodePrefix)
	if err != nil {
		return nil, err
	}

	views := make([]model.CouponView, 0, len(coupons))
	for _, c := range coupons {
		views = append(views, c.View())
	}
	return views, nil
}

// DeleteCoupon removes one coupon by id
func (s *CouponService) DeleteCoupon(ctx context.Context, id string) error {
	if err := s.couponRepo.DeleteCoupon(ctx, id); err != nil {
		return err
	}
	s.logger.Info("Reward coupon deleted", zap.String("id", id))
	return nil
}

// buildClaimURL adds the product and the coupon to the store's cart URL
func buildClaimURL(cartURL string, productID int64, code string) (string, error) {
	u, err := url.Parse(cartURL)
	if err != nil {
		return "", fmt.Errorf("invalid cart url %q: %w", cartURL, err)
	}
	q := u.Query()
	q.Set("add-to-cart", strconv.FormatInt(productID, 10))
	q.Set("coupon_code", code)
	u.RawQuery = q.Encode()
	return u.String(), nil
}
