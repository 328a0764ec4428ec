package router

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/mamadbah2/farmdash/internal/server/handlers"
)

// Handlers groups the route handlers. Webhook is nil when WhatsApp is not
// configured and its routes are then not mounted.
type Handlers struct {
	Analytics *handlers.AnalyticsHandler
	Records   *handlers.RecordsHandler
	Webhook   *handlers.WebhookHandler
}

// New wires the Gin engine with required routes and middlewares.
func New(h Handlers, gatherer prometheus.Gatherer, logger *zap.Logger) *gin.Engine {
	if logger == nil {
		logger = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(zapLoggerMiddleware(logger))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if gatherer != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	}

	api := r.Group("/api")
	{
		api.GET("/analytics", h.Analytics.State)
		api.POST("/analytics/refresh", h.Analytics.Refresh)
		api.GET("/analytics/alerts", h.Analytics.Alerts)
		api.GET("/analytics/export.xlsx", h.Analytics.Export)
		api.POST("/collections/:collection", h.Records.Create)
	}

	if h.Webhook != nil {
		r.GET("/webhook", h.Webhook.Verify)
		r.POST("/webhook", h.Webhook.Receive)
		r.POST("/send-message", h.Webhook.SendMessage)
	}

	logger.Info("router initialized", zap.Bool("messaging", h.Webhook != nil))

	return r
}

func zapLoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
		}
		// keep scrapes and health checks out of the info stream
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/healthz" {
			logger.Debug("request completed", fields...)
			return
		}
		logger.Info("request completed", fields...)
	}
}
