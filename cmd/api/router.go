package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/internal/shared/middleware"
	"bookstore-fulfillment/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.Metrics(c.Metrics.HTTP),
		middleware.ClientIP(),
	)

	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		// VNPay gọi không kèm token, xác thực bằng chữ ký
		setupPaymentRoutes(v1, c)

		authed := v1.Group("", middleware.Auth(c.Tokens))
		setupCheckoutRoutes(authed, c)
		setupOrderRoutes(authed, c)
		setupPromotionRoutes(authed, c)
		setupWalletRoutes(authed, c)
	}

	return router
}

// ========================================
// CHECKOUT / PAYMENT
// ========================================
func setupCheckoutRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.CartHandler.RegisterRoutes(v1)
	c.CheckoutHandler.RegisterRoutes(v1)
}

func setupPaymentRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.PaymentHandler.RegisterRoutes(v1)
}

// ========================================
// ORDER ROUTES
// ========================================
func setupOrderRoutes(v1 *gin.RouterGroup, c *container.Container) {
	c.OrderHandler.RegisterRoutes(v1)
}

// ========================================
// PROMOTION ROUTES
// ========================================
func setupPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	promotions := v1.Group("/promotions")
	{
		promotions.POST("/validate", c.PromotionHandler.ValidatePromotion)
	}
}

// ========================================
// WALLET ROUTES (seller)
// ========================================
func setupWalletRoutes(v1 *gin.RouterGroup, c *container.Container) {
	wallet := v1.Group("/wallet", middleware.RequireRole(middleware.RoleSeller))
	{
		wallet.GET("", c.WalletHandler.GetMyWallet)
		wallet.GET("/transactions", c.WalletHandler.ListTransactions)
		wallet.GET("/transactions/export", c.WalletHandler.ExportTransactions)
		wallet.POST("/withdrawals", c.WalletHandler.CreateWithdrawal)
	}
}

// ========================================
// HEALTH CHECK
// ========================================
func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()

		dbStatus := "ok"
		if err := appCtx.DB.HealthCheck(ctx); err != nil {
			dbStatus = "error: " + err.Error()
		}

		// Redis down chỉ làm mất cache, không làm API unhealthy
		cacheStatus := "ok"
		if err := appCtx.Cache.Ping(ctx); err != nil {
			cacheStatus = "degraded: " + err.Error()
		}

		statusCode := http.StatusOK
		if dbStatus != "ok" {
			statusCode = http.StatusServiceUnavailable
		}

		c.JSON(statusCode, gin.H{
			"status":      http.StatusText(statusCode),
			"service":     appCtx.Config.App.Name,
			"version":     appCtx.Config.App.Version,
			"environment": appCtx.Config.App.Environment,
			"timestamp":   time.Now().UTC().Format(time.RFC3339),
			"checks": gin.H{
				"database": dbStatus,
				"cache":    cacheStatus,
			},
		})
	}
}
