// Package metrics holds the Prometheus collectors shared by both roles.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	requestDuration *prometheus.SummaryVec
	requestTotal    *prometheus.CounterVec

	RewardIssuance   *prometheus.CounterVec
	CouponsGenerated prometheus.Counter
	RemoteRequests   *prometheus.CounterVec
	CacheRefreshes   *prometheus.CounterVec
}

// New registers every collector on a fresh registry, so tests can build as
// many instances as they like.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		requestDuration: prometheus.NewSummaryVec(prometheus.SummaryOpts{
			Name:       "http_request_duration_seconds",
			Help:       "HTTP request duration in seconds",
			Objectives: map[float64]float64{0.5: 0.05, 0.9: 0.01, 0.99: 0.001},
		}, []string{"method", "path", "status_code"}),
		requestTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "path", "status_code"}),
		RewardIssuance: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsr_reward_issuance_total",
			Help: "Line items processed by the reward orchestrator, by outcome",
		}, []string{"outcome"}),
		CouponsGenerated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "xsr_coupons_generated_total",
			Help: "Reward coupons minted by the receiver",
		}),
		RemoteRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsr_remote_requests_total",
			Help: "Outbound calls to the receiver, by endpoint and result",
		}, []string{"endpoint", "result"}),
		CacheRefreshes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "xsr_catalog_refresh_total",
			Help: "Remote catalog refresh attempts, by result",
		}, []string{"result"}),
	}
	reg.MustRegister(
		m.requestDuration,
		m.requestTotal,
		m.RewardIssuance,
		m.CouponsGenerated,
		m.RemoteRequests,
		m.CacheRefreshes,
	)
	return m
}

// Middleware records request counts and durations.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
		m.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
