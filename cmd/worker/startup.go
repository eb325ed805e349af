package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore-fulfillment/pkg/container"
	"bookstore-fulfillment/pkg/logger"
)

// HealthChecker performs startup health checks
type HealthChecker struct {
	c *container.Container
}

func (h *HealthChecker) checkAll(ctx context.Context) error {
	checks := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"Postgres", h.c.DB.HealthCheck},
		{"Redis", h.c.Redis.HealthCheck},
	}

	for _, check := range checks {
		if err := check.fn(ctx); err != nil {
			logger.ErrorFields("health check failed", err, map[string]interface{}{"check": check.name})
			return fmt.Errorf("%s failed: %w", check.name, err)
		}
		logger.Info("✓ health check ok", map[string]interface{}{"check": check.name})
	}
	return nil
}

// startHealthServer: /health, /ready và /metrics cho worker
func startHealthServer(c *container.Container, addr string) *http.Server {
	router := gin.New()
	router.Use(gin.Recovery())

	router.GET("/health", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"status": "UP", "service": "bookstore-worker"})
	})
	router.GET("/ready", func(ctx *gin.Context) {
		checker := &HealthChecker{c: c}
		reqCtx, cancel := context.WithTimeout(ctx.Request.Context(), 3*time.Second)
		defer cancel()
		if err := checker.checkAll(reqCtx); err != nil {
			ctx.JSON(http.StatusServiceUnavailable, gin.H{"status": "NOT_READY", "error": err.Error()})
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"status": "READY"})
	})
	router.GET("/metrics", gin.WrapH(c.Metrics.Handler()))

	srv := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		logger.Info("[Health] listening", map[string]interface{}{"addr": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("[Health] server failed", err)
		}
	}()
	return srv
}
