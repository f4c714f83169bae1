// Package http wires the service's HTTP surface: order intake, checkout,
// webhook ingestion, reviews, and the admin endpoints.
package http

import (
	"net/http"

	"github.com/ddebuut/storefront-api/configs"
	"github.com/ddebuut/storefront-api/internal/adapter/http/middleware"
	"github.com/ddebuut/storefront-api/internal/logging"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Handlers struct {
	Orders   *OrderHandler
	Checkout *CheckoutHandler
	Webhook  *WebhookHandler
	Reviews  *ReviewHandler
	Admin    *AdminHandler
}

func NewRouter(cfg configs.Config, h Handlers) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.MetricsMiddleware())
	r.Use(middleware.Logging(logging.Base()))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	id := middleware.NewIdentity(cfg)

	// guest checkout works without a token; a presented token must be valid
	r.POST("/orders", id.Optional(), h.Orders.CreateOrder)
	r.GET("/orders", id.Require(), h.Orders.ListMyOrders)
	r.GET("/orders/:id", id.Optional(), h.Orders.GetOrder)

	r.POST("/checkout/create", id.Optional(), h.Checkout.Create)
	r.GET("/checkout/status/:session_id", h.Checkout.Status)

	// authenticated by signature, not by bearer token
	r.POST("/webhook/stripe", h.Webhook.Handle)

	r.GET("/reviews/can-review/:product_ref", id.Require(), h.Reviews.CanReview)
	r.POST("/reviews", id.Require(), h.Reviews.Submit)
	r.GET("/products/:ref/reviews", h.Reviews.ListForProduct)

	admin := r.Group("/admin", id.RequireAdmin())
	admin.PUT("/orders/:id/status", h.Admin.UpdateOrderStatus)

	return r
}
