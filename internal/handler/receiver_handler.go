package handler

import (
	"context"
	"net/http"

	"cross-site-rewards/internal/client"
	"cross-site-rewards/internal/model"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// CouponService is what the receiver endpoints need from the coupon layer
type CouponService interface {
	ListClaimableProducts(ctx context.Context) ([]model.RemoteProduct, error)
	GenerateRewardCoupon(ctx context.Context, rewardProductID int64) (*model.GenerateCouponResponse, error)
	ListIssuedCoupons(ctx context.Context) ([]model.CouponView, error)
	DeleteCoupon(ctx context.Context, id string) error
}

// RegisterReceiverRoutes mounts the receiver API behind the shared secret
func RegisterReceiverRoutes(router *gin.Engine, secret string, svc CouponService, log *zap.Logger) {
	api := router.Group(client.APINamespace, RequireSecret(secret))
	{
		api.GET("/products", listProductsHandler(svc))
		api.POST("/generate", generateCouponHandler(svc, log))
		api.GET("/coupons", listCouponsHandler(svc))
		api.DELETE("/coupons/:id", deleteCouponHandler(svc))
	}
}

// listProductsHandler handles GET /xsr/v1/products
func listProductsHandler(svc CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		products, err := svc.ListClaimableProducts(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, products)
	}
}

// generateCouponHandler handles POST /xsr/v1/generate
func generateCouponHandler(svc CouponService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.GenerateCouponRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
		if req.RewardProductID <= 0 {
			abortWithError(c, http.StatusBadRequest, "no_product", "reward_product_id is required")
			return
		}

		out, err := svc.GenerateRewardCoupon(c.Request.Context(), int64(req.RewardProductID))
		if err != nil {
			if apperrors.Is(err, apperrors.ErrInvalidRequest) {
				abortWithError(c, http.StatusBadRequest, "no_product", err.Error())
				return
			}
			respondError(c, err)
			return
		}

		log.Info("Reward coupon handed out",
			zap.String("request_id", logger.RequestID(c)),
			zap.Int64("reward_product_id", int64(req.RewardProductID)),
			zap.Int64("sender_order_id", int64(req.OrderID)),
		)
		c.JSON(http.StatusOK, out)
	}
}

// listCouponsHandler handles GET /xsr/v1/coupons
func listCouponsHandler(svc CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		coupons, err := svc.ListIssuedCoupons(c.Request.Context())
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, coupons)
	}
}

// deleteCouponHandler handles DELETE /xsr/v1/coupons/:id
func deleteCouponHandler(svc CouponService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := svc.DeleteCoupon(c.Request.Context(), c.Param("id")); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
