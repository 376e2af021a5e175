package main

import (
	"context"
	"cross-site-rewards/internal/client"
	"cross-site-rewards/internal/handler"
	"cross-site-rewards/internal/repository"
	"cross-site-rewards/internal/service"
	"cross-site-rewards/pkg/cache"
	"cross-site-rewards/pkg/config"
	"cross-site-rewards/pkg/database"
	"cross-site-rewards/pkg/logger"
	"cross-site-rewards/pkg/mailer"
	"cross-site-rewards/pkg/metrics"
	"cross-site-rewards/pkg/qrcode"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zapLog, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to build logger: %v", err)
	}
	defer func() { _ = zapLog.Sync() }()

	m := metrics.New()
	router := handler.NewRouter(string(cfg.Role), zapLog, m)

	var cleanup []func(context.Context)
	switch cfg.Role {
	case config.RoleReceiver, config.RoleSender:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		mongoDB, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			cancel()
			zapLog.Fatal("Failed to connect to MongoDB", zap.Error(err))
		}
		cancel()
		cleanup = append(cleanup, func(ctx context.Context) {
			if err := mongoDB.Disconnect(ctx); err != nil {
				zapLog.Error("Error disconnecting from MongoDB", zap.Error(err))
			}
		})
		zapLog.Info("Connected to MongoDB", zap.String("database", cfg.MongoDB))

		if cfg.Role == config.RoleReceiver {
			setupReceiver(router, cfg, mongoDB, m, zapLog)
		} else {
			cleanup = append(cleanup, setupSender(router, cfg, mongoDB, m, zapLog))
		}
	default:
		zapLog.Warn("Cross-site rewards disabled; serving health and metrics only")
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		zapLog.Info("Server starting", zap.String("port", cfg.Port), zap.String("role", string(cfg.Role)))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLog.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zapLog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		zapLog.Error("Server forced to shutdown", zap.Error(err))
	}
	for i := len(cleanup) - 1; i >= 0; i-- {
		cleanup[i](ctx)
	}

	zapLog.Info("Server exited")
}

func setupReceiver(router *gin.Engine, cfg config.Config, mongoDB *database.MongoDB, m *metrics.Metrics, zapLog *zap.Logger) {
	couponRepo := repository.NewCouponRepository(mongoDB.Database)
	catalog := repository.NewProductCatalog(mongoDB.Database)

	svc := service.NewCouponService(couponRepo, catalog, cfg.CartURL, m, zapLog)
	handler.RegisterReceiverRoutes(router, cfg.Secret, svc, zapLog)
}

// setupSender wires the sender role and returns the cleanup for its Redis client.
func setupSender(router *gin.Engine, cfg config.Config, mongoDB *database.MongoDB, m *metrics.Metrics, zapLog *zap.Logger) func(context.Context) {
	orders := repository.NewOrderRepository(mongoDB.Database)
	mappings := repository.NewRewardMappingRepository(mongoDB.Database)
	rewards := repository.NewIssuedRewardRepository(mongoDB.Database)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	redisClient, err := cache.NewRedisClient(ctx, cfg.RedisURL)
	if err != nil {
		zapLog.Fatal("Failed to connect to Redis", zap.Error(err))
	}

	// Interface stays nil when SMTP is not configured.
	var mail mailer.Mailer
	if cfg.SMTP.Enabled() {
		sender, err := mailer.NewSMTPSender(cfg.SMTP.Host, cfg.SMTP.Port, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From)
		if err != nil {
			zapLog.Fatal("Invalid SMTP settings", zap.Error(err))
		}
		mail = sender
	} else {
		zapLog.Warn("SMTP not configured; reward emails are disabled")
	}

	receiver := client.NewReceiverClient(cfg.RemoteURL, cfg.Secret, cfg.ListTimeout, cfg.GenerateTimeout).WithMetrics(m)
	presenter := service.NewPresenter(orders, rewards, qrcode.NewHosted(cfg.QRBaseURL, cfg.QRSize), cfg.Template)

	handler.RegisterSenderRoutes(router, cfg.Secret, handler.SenderDeps{
		Orchestrator: service.NewOrchestrator(orders, mappings, rewards, receiver, m, zapLog),
		Presenter:    presenter,
		Notifier:     service.NewNotifier(presenter, mail, zapLog),
		Mappings:     mappings,
		Catalog:      service.NewCatalogCache(cache.NewRedisStore(redisClient), receiver, m, zapLog),
		Logger:       zapLog,
	})

	return func(context.Context) {
		if err := redisClient.Close(); err != nil {
			zapLog.Error("Error closing Redis client", zap.Error(err))
		}
	}
}
