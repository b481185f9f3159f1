package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"delivery-service/internal/localcache"
	"delivery-service/internal/models"
	"delivery-service/internal/notify"
	"delivery-service/internal/service"
	"delivery-service/internal/store"
	"delivery-service/internal/util"
	"delivery-service/internal/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Orders is the order repository surface used over HTTP
type Orders interface {
	ListOrders(ctx context.Context) ([]models.Order, error)
	GetOrder(ctx context.Context, id string) (*models.Order, error)
	CreateOrder(ctx context.Context, in validation.OrderInput) (*models.Order, error)
	Watch(ctx context.Context, onChange func([]models.Order)) func()
}

// Lifecycle moves orders between statuses
type Lifecycle interface {
	Transition(ctx context.Context, id string, to models.OrderStatus) (*service.TransitionResult, error)
	SetPaymentStatus(ctx context.Context, id string, status models.PaymentStatus) (*service.TransitionResult, error)
	SendConfirmation(ctx context.Context, id string) (*notify.Outcome, error)
	Delete(ctx context.Context, id string) error
}

// Settings reads and writes business settings
type Settings interface {
	FetchSettings(ctx context.Context) models.Settings
	UpdateSettings(ctx context.Context, patch models.SettingsPatch) (models.Settings, error)
}

// Promos manages promo codes
type Promos interface {
	List(ctx context.Context) []models.PromoCode
	Create(ctx context.Context, in validation.PromoCodeInput) (*models.PromoCode, error)
	Update(ctx context.Context, code string, in validation.PromoCodeInput) (*models.PromoCode, error)
	Delete(ctx context.Context, code string) error
	Validate(ctx context.Context, code string, subtotal decimal.Decimal) (*service.Discount, error)
	Redeem(ctx context.Context, code string) (int, error)
}

// Catalog manages the menu
type Catalog interface {
	List(ctx context.Context) ([]models.Product, error)
	Create(ctx context.Context, in validation.ProductInput) (*models.Product, error)
	Update(ctx context.Context, id string, in validation.ProductInput) (*models.Product, error)
	Delete(ctx context.Context, id string) error
}

// Quoter prices carts
type Quoter interface {
	Quote(ctx context.Context, items []models.LineItem, promoCode string) (*service.Quote, error)
}

// Dependencies are the services exposed by the handler
type Dependencies struct {
	Orders    Orders
	Lifecycle Lifecycle
	Settings  Settings
	Promos    Promos
	Catalog   Catalog
	Checkout  Quoter
	// Ready reports whether the database is reachable; nil means always ready
	Ready func() error
}

// Handler contains HTTP handlers
type Handler struct {
	deps   Dependencies
	logger *zap.Logger
}

// NewHandler creates a new HTTP handler
func NewHandler(deps Dependencies) *Handler {
	return &Handler{
		deps:   deps,
		logger: util.GetLogger(),
	}
}

// NewMetricsServer serves only /metrics on addr
func NewMetricsServer(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return &http.Server{Addr: addr, Handler: mux}
}

// SetupRoutes sets up HTTP routes
func (h *Handler) SetupRoutes(router *gin.Engine) {
	router.Use(gin.Recovery())
	router.Use(prometheusMiddleware())
	router.Use(requestLogger(h.logger))

	router.GET("/health", h.healthCheck)
	router.GET("/ready", h.readinessCheck)

	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/orders", h.listOrders)
		v1.GET("/orders/stream", h.streamOrders)
		v1.POST("/orders", h.createOrder)
		v1.GET("/orders/:id", h.getOrder)
		v1.DELETE("/orders/:id", h.deleteOrder)
		v1.GET("/orders/:id/transitions", h.allowedTransitions)
		v1.PATCH("/orders/:id/status", h.updateStatus)
		v1.PATCH("/orders/:id/payment-status", h.updatePaymentStatus)
		v1.POST("/orders/:id/confirmation", h.sendConfirmation)

		v1.GET("/settings", h.getSettings)
		v1.PUT("/settings", h.updateSettings)

		v1.GET("/promo-codes", h.listPromos)
		v1.POST("/promo-codes", h.createPromo)
		v1.POST("/promo-codes/validate", h.validatePromo)
		v1.PUT("/promo-codes/:code", h.updatePromo)
		v1.DELETE("/promo-codes/:code", h.deletePromo)
		v1.POST("/promo-codes/:code/redeem", h.redeemPromo)

		v1.GET("/products", h.listProducts)
		v1.POST("/products", h.createProduct)
		v1.PUT("/products/:id", h.updateProduct)
		v1.DELETE("/products/:id", h.deleteProduct)

		v1.POST("/checkout/quote", h.quote)
	}
}

// healthCheck handles health check requests
func (h *Handler) healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().Unix(),
	})
}

// readinessCheck handles readiness check requests
func (h *Handler) readinessCheck(c *gin.Context) {
	if h.deps.Ready != nil {
		if err := h.deps.Ready(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":  "unavailable",
				"details": err.Error(),
			})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
		"time":   time.Now().Unix(),
	})
}

// writeError maps service errors onto HTTP statuses
func (h *Handler) writeError(c *gin.Context, err error) {
	if validation.IsValidation(err) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   err.Error(),
			"details": validation.Messages(err),
		})
		return
	}

	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, store.ErrNotFound), errors.Is(err, localcache.ErrPromoNotFound):
		status = http.StatusNotFound
	case errors.Is(err, service.ErrTerminalState),
		errors.Is(err, service.ErrInvalidTransition),
		errors.Is(err, service.ErrPromoExists):
		status = http.StatusConflict
	case errors.Is(err, localcache.ErrPromoInactive),
		errors.Is(err, localcache.ErrPromoExhausted),
		errors.Is(err, service.ErrPromoExpired):
		status = http.StatusUnprocessableEntity
	}

	if status == http.StatusInternalServerError {
		h.logger.Error("Request failed",
			zap.String("path", c.FullPath()), zap.Error(err))
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "Invalid request body",
		"details": err.Error(),
	})
}

// prometheusMiddleware collects HTTP metrics
func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		duration := time.Since(start).Seconds()
		status := strconv.Itoa(c.Writer.Status())

		util.HTTPRequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Observe(duration)

		util.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			status,
		).Inc()
	}
}

// requestLogger logs one line per request
func requestLogger(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Info("HTTP request",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)))
	}
}
