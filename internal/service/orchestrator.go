package service

import (
	"context"
	"cross-site-rewards/internal/model"
	"cross-site-rewards/internal/repository"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/metrics"
	"time"

	"go.uber.org/zap"
)

// releaseTimeout bounds the cleanup call made after a failed issuance, which
// runs even when the triggering request has gone away.
const releaseTimeout = 5 * time.Second

// RewardIssuer mints a coupon on the remote site
type RewardIssuer interface {
	GenerateCoupon(ctx context.Context, rewardProductID, orderID int64) (*model.GenerateCouponResponse, error)
}

// Orchestrator issues remote rewards for the line items of completed orders.
// Every line item is handled on its own; one failing item never stops the others.
type Orchestrator struct {
	orders   repository.OrderRepository
	mappings repository.RewardMappingRepository
	rewards  repository.IssuedRewardRepository
	issuer   RewardIssuer
	metrics  *metrics.Metrics
	logger   *zap.Logger
}

func NewOrchestrator(
	orders repository.OrderRepository,
	mappings repository.RewardMappingRepository,
	rewards repository.IssuedRewardRepository,
	issuer RewardIssuer,
	m *metrics.Metrics,
	logger *zap.Logger,
) *Orchestrator {
	return &Orchestrator{
		orders:   orders,
		mappings: mappings,
		rewards:  rewards,
		issuer:   issuer,
		metrics:  m,
		logger:   logger,
	}
}

// ProcessOrder handles the "order completed" event. It is safe to call any
// number of times for the same order.
func (o *Orchestrator) ProcessOrder(ctx context.Context, orderID int64) ([]model.ItemResult, error) {
	order, err := o.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	results := make([]model.ItemResult, 0, len(order.Items))
	for _, item := range order.Items {
		res := o.processItem(ctx, order, item)
		o.metrics.RewardIssuance.WithLabelValues(string(res.Outcome)).Inc()
		results = append(results, res)
	}
	return results, nil
}

func (o *Orchestrator) processItem(ctx context.Context, order *model.Order, item model.LineItem) model.ItemResult {
	result := model.ItemResult{LineItemID: item.ID, ProductID: item.ProductID}
	log := o.logger.With(
		zap.Int64("order_id", order.ID),
		zap.Int64("line_item_id", item.ID),
		zap.Int64("product_id", item.ProductID),
	)

	mapping, err := o.mappings.GetMapping(ctx, item.ProductID)
	if apperrors.Is(err, apperrors.ErrMappingNotFound) || (err == nil && mapping.RemoteProductID <= 0) {
		result.Outcome = model.OutcomeSkipped
		return result
	}
	if err != nil {
		log.Error("Failed to read reward mapping", zap.Error(err))
		return failed(result, err)
	}

	reservation, err := o.rewards.Reserve(ctx, &model.IssuedReward{
		LineItemID:      item.ID,
		OrderID:         order.ID,
		ProductID:       item.ProductID,
		RemoteProductID: mapping.RemoteProductID,
	})
	switch {
	case apperrors.Is(err, apperrors.ErrAlreadyIssued):
		result.Outcome = model.OutcomeAlreadyIssued
		return result
	case apperrors.Is(err, apperrors.ErrIssuanceInProgress):
		log.Info("Reward issuance already running for line item")
		result.Outcome = model.OutcomeInProgress
		return result
	case err != nil:
		log.Error("Failed to reserve line item", zap.Error(err))
		return failed(result, err)
	}

	log = log.With(zap.Int64("remote_product_id", mapping.RemoteProductID))

	resp, err := o.issuer.GenerateCoupon(ctx, mapping.RemoteProductID, order.ID)
	if err != nil {
		fields := []zap.Field{zap.Error(err)}
		if resp != nil && resp.Code != "" {
			// The receiver minted a coupon we cannot deliver.
			fields = append(fields, zap.String("orphaned_code", resp.Code))
		}
		log.Error("Remote reward generation failed", fields...)
		o.release(ctx, reservation, log)
		return failed(result, err)
	}

	if err := o.rewards.Complete(ctx, reservation, resp.Code, resp.ClaimURL); err != nil {
		log.Error("Reward minted but not recorded", zap.String("orphaned_code", resp.Code), zap.Error(err))
		o.release(ctx, reservation, log)
		return failed(result, err)
	}

	log.Info("Reward issued", zap.String("code", resp.Code))
	result.Outcome = model.OutcomeIssued
	result.Code = resp.Code
	return result
}

func (o *Orchestrator) release(ctx context.Context, res model.Reservation, log *zap.Logger) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()
	if err := o.rewards.Release(ctx, res); err != nil {
		log.Error("Failed to release reservation; it expires with the lease", zap.Error(err))
	}
}

func failed(result model.ItemResult, err error) model.ItemResult {
	result.Outcome = model.OutcomeFailed
	result.Error = err.Error()
	return result
}
