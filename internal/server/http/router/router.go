package router

import (
	"log/slog"
	"sync"

	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/polkiloo/checkout/internal/metrics"
	"github.com/polkiloo/checkout/internal/server/http/dto"
	"github.com/polkiloo/checkout/internal/server/http/handlers"
	"github.com/polkiloo/checkout/internal/server/http/middleware"
)

// MaxBodyBytes caps request bodies, webhooks included.
const MaxBodyBytes = 1 << 20

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

func registerValidators() error {
	validatorsOnce.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			validatorsErr = dto.RegisterValidators(v)
		}
	})
	return validatorsErr
}

// Setup configures gin router with handlers and middleware.
func Setup(facade handlers.CheckoutFacade, tokens middleware.TokenParser, m *metrics.Metrics, logger *slog.Logger) (*gin.Engine, error) {
	if err := registerValidators(); err != nil {
		return nil, err
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(gin.Recovery())
	engine.Use(middleware.RequestLogger(logger))
	engine.Use(middleware.RequestMetrics(m))
	engine.Use(middleware.DecompressRequest(MaxBodyBytes))
	engine.Use(gzip.Gzip(gzip.DefaultCompression))

	paymentHandler := handlers.NewPaymentHandler(facade)
	orderHandler := handlers.NewOrderHandler(facade)
	cartHandler := handlers.NewCartHandler(facade)
	healthHandler := handlers.NewHealthHandler(facade)

	engine.GET("/healthz", healthHandler.Check)
	engine.GET("/metrics", gin.WrapH(m.Handler()))
	engine.POST("/payments/webhook", paymentHandler.Webhook)

	api := engine.Group("")
	api.Use(middleware.Identity(tokens))

	payments := api.Group("/payments")
	payments.POST("/initiate", paymentHandler.Initiate)
	payments.GET("/status/:order_id", paymentHandler.Status)
	payments.POST("/retry/:order_id", paymentHandler.Retry)

	api.POST("/orders/:order_id/cancel", orderHandler.Cancel)

	cart := api.Group("/cart")
	cart.GET("", cartHandler.View)
	cart.POST("/items", cartHandler.AddItem)
	cart.PATCH("/items/:line_id", cartHandler.UpdateItem)
	cart.DELETE("/items/:line_id", cartHandler.RemoveItem)
	cart.POST("/coupon", cartHandler.ApplyCoupon)

	return engine, nil
}
