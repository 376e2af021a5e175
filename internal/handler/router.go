package handler

import (
	"net/http"
	"os"

	"cross-site-rewards/pkg/logger"
	"cross-site-rewards/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// NewRouter returns an engine serving the endpoints every role shares.
// Role specific routes are registered on top of it.
func NewRouter(role string, log *zap.Logger, m *metrics.Metrics) *gin.Engine {
	if os.Getenv("GIN_MODE") == "" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), logger.RequestLogger(log), m.Middleware())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "role": role})
	})
	router.GET("/metrics", m.Handler())

	return router
}
