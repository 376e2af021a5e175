package handler

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	"cross-site-rewards/internal/client"
	"cross-site-rewards/internal/model"
	"cross-site-rewards/internal/repository"
	"cross-site-rewards/internal/service"
	apperrors "cross-site-rewards/pkg/errors"
	"cross-site-rewards/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const htmlContentType = "text/html; charset=utf-8"

type OrderProcessor interface {
	ProcessOrder(ctx context.Context, orderID int64) ([]model.ItemResult, error)
}

type RewardRenderer interface {
	RenderOrder(ctx context.Context, orderID int64, s service.Surface) (*model.Order, []service.Fragment, error)
	RenderPreview(override string, s service.Surface) string
}

type RewardNotifier interface {
	NotifyOrder(ctx context.Context, orderID int64) (bool, error)
	SendTestEmail(ctx context.Context, to, tmpl string) error
}

type RemoteCatalog interface {
	Read(ctx context.Context) (model.CatalogSnapshot, error)
	Refresh(ctx context.Context) (model.CatalogSnapshot, error)
	Lookup(ctx context.Context, id int64) (model.RemoteProduct, bool, error)
}

// SenderDeps bundles what the sender endpoints are built from
type SenderDeps struct {
	Orchestrator OrderProcessor
	Presenter    RewardRenderer
	Notifier     RewardNotifier
	Mappings     repository.RewardMappingRepository
	Catalog      RemoteCatalog
	Logger       *zap.Logger
}

// RegisterSenderRoutes mounts the order webhook and admin API behind the
// shared secret
func RegisterSenderRoutes(router *gin.Engine, secret string, d SenderDeps) {
	api := router.Group(client.APINamespace, RequireSecret(secret))
	{
		api.POST("/orders/:order_id/completed", orderCompletedHandler(d.Orchestrator, d.Notifier, d.Logger))
		api.GET("/orders/:order_id/rewards", orderRewardsHandler(d.Presenter))
		api.POST("/orders/:order_id/rewards/email", emailRewardsHandler(d.Notifier))

		api.GET("/products/:product_id/reward", getMappingHandler(d.Mappings, d.Catalog))
		api.PUT("/products/:product_id/reward", setMappingHandler(d.Mappings, d.Logger))
		api.DELETE("/products/:product_id/reward", deleteMappingHandler(d.Mappings))

		api.GET("/remote-products", remoteProductsHandler(d.Catalog))
		api.POST("/remote-products/refresh", refreshRemoteProductsHandler(d.Catalog))

		api.POST("/template/preview", templatePreviewHandler(d.Presenter))
		api.POST("/template/test-email", testEmailHandler(d.Notifier))
	}
}

func idParam(c *gin.Context, name string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(name), 10, 64)
	if err != nil || id <= 0 {
		abortWithError(c, http.StatusBadRequest, "invalid_request", name+" must be a positive integer")
		return 0, false
	}
	return id, true
}

// orderCompletedHandler handles POST /xsr/v1/orders/:order_id/completed.
// Issuance failures are reported per item and never fail the request.
func orderCompletedHandler(orch OrderProcessor, notifier RewardNotifier, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := idParam(c, "order_id")
		if !ok {
			return
		}

		results, err := orch.ProcessOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := model.OrderCompletedResponse{OrderID: orderID, Items: results}
		if c.Query("notify") == "true" {
			sent, err := notifier.NotifyOrder(c.Request.Context(), orderID)
			if err != nil {
				log.Warn("Reward email not sent",
					zap.String("request_id", logger.RequestID(c)),
					zap.Int64("order_id", orderID),
					zap.Error(err),
				)
				resp.NotifyError = err.Error()
			}
			resp.Notified = sent
		}
		c.JSON(http.StatusOK, resp)
	}
}

// orderRewardsHandler handles GET /xsr/v1/orders/:order_id/rewards
func orderRewardsHandler(presenter RewardRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := idParam(c, "order_id")
		if !ok {
			return
		}

		_, fragments, err := presenter.RenderOrder(c.Request.Context(), orderID, service.SurfaceWeb)
		if err != nil {
			respondError(c, err)
			return
		}
		if len(fragments) == 0 {
			c.Status(http.StatusNoContent)
			return
		}
		c.Data(http.StatusOK, htmlContentType, []byte(service.JoinFragments(fragments)))
	}
}

// emailRewardsHandler handles POST /xsr/v1/orders/:order_id/rewards/email
func emailRewardsHandler(notifier RewardNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		orderID, ok := idParam(c, "order_id")
		if !ok {
			return
		}

		sent, err := notifier.NotifyOrder(c.Request.Context(), orderID)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": sent})
	}
}

// getMappingHandler handles GET /xsr/v1/products/:product_id/reward
func getMappingHandler(mappings repository.RewardMappingRepository, catalog RemoteCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := idParam(c, "product_id")
		if !ok {
			return
		}

		m, err := mappings.GetMapping(c.Request.Context(), productID)
		if err != nil {
			respondError(c, err)
			return
		}

		resp := model.RewardMappingResponse{ProductID: m.ProductID, RemoteProductID: m.RemoteProductID}
		if !m.UpdatedAt.IsZero() {
			updated := m.UpdatedAt
			resp.UpdatedAt = &updated
		}
		// The name is a convenience; a cold cache just leaves it out.
		if p, found, err := catalog.Lookup(c.Request.Context(), m.RemoteProductID); err == nil && found {
			resp.RemoteProductName = p.Name
		}
		c.JSON(http.StatusOK, resp)
	}
}

// setMappingHandler handles PUT /xsr/v1/products/:product_id/reward.
// A remote_product_id of 0 clears the mapping.
func setMappingHandler(mappings repository.RewardMappingRepository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := idParam(c, "product_id")
		if !ok {
			return
		}

		var req model.SetRewardMappingRequest
		if err := c.ShouldBindJSON(&req); err != nil || req.RemoteProductID < 0 {
			abortWithError(c, http.StatusBadRequest, "invalid_request", "remote_product_id must be a non-negative integer")
			return
		}

		remoteID := int64(req.RemoteProductID)
		var err error
		if remoteID == 0 {
			err = mappings.DeleteMapping(c.Request.Context(), productID)
		} else {
			err = mappings.SetMapping(c.Request.Context(), productID, remoteID)
		}
		if err != nil {
			respondError(c, err)
			return
		}

		log.Info("Reward mapping saved", zap.Int64("product_id", productID), zap.Int64("remote_product_id", remoteID))
		c.JSON(http.StatusOK, model.RewardMappingResponse{ProductID: productID, RemoteProductID: remoteID})
	}
}

// deleteMappingHandler handles DELETE /xsr/v1/products/:product_id/reward
func deleteMappingHandler(mappings repository.RewardMappingRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		productID, ok := idParam(c, "product_id")
		if !ok {
			return
		}
		if err := mappings.DeleteMapping(c.Request.Context(), productID); err != nil {
			respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

func catalogResponse(snap model.CatalogSnapshot) model.RemoteCatalogResponse {
	return model.RemoteCatalogResponse{
		Loaded:    true,
		FetchedAt: snap.FetchedAt.Format(time.RFC3339),
		Products:  snap.Products,
	}
}

// remoteProductsHandler handles GET /xsr/v1/remote-products. It never calls
// the receiver.
func remoteProductsHandler(catalog RemoteCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := catalog.Read(c.Request.Context())
		if errors.Is(err, apperrors.ErrCacheMiss) {
			c.JSON(http.StatusOK, model.RemoteCatalogResponse{Loaded: false, Products: []model.RemoteProduct{}})
			return
		}
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, catalogResponse(snap))
	}
}

// refreshRemoteProductsHandler handles POST /xsr/v1/remote-products/refresh
func refreshRemoteProductsHandler(catalog RemoteCatalog) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := catalog.Refresh(c.Request.Context())
		if err != nil {
			_, code := errorStatus(err)
			abortWithError(c, http.StatusBadGateway, code, "could not load the remote product list: "+err.Error())
			return
		}
		c.JSON(http.StatusOK, catalogResponse(snap))
	}
}

// templatePreviewHandler handles POST /xsr/v1/template/preview. An empty
// body previews the saved template on the web surface.
func templatePreviewHandler(presenter RewardRenderer) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.TemplatePreviewRequest
		if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
			abortWithError(c, http.StatusBadRequest, "invalid_request", "invalid request body")
			return
		}
		surface, err := service.ParseSurface(req.Surface)
		if err != nil {
			respondError(c, err)
			return
		}
		c.Data(http.StatusOK, htmlContentType, []byte(presenter.RenderPreview(req.Template, surface)))
	}
}

// testEmailHandler handles POST /xsr/v1/template/test-email
func testEmailHandler(notifier RewardNotifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req model.TestEmailRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			abortWithError(c, http.StatusBadRequest, "invalid_request", "a valid recipient address is required")
			return
		}
		if err := notifier.SendTestEmail(c.Request.Context(), req.To, req.Template); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sent": true})
	}
}
