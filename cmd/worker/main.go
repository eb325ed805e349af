package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"bookstore-fulfillment/pkg/container"
	"bookstore-fulfillment/pkg/logger"
)

func main() {
	_ = godotenv.Load()
	logger.Init(os.Getenv("APP_ENV"))
	gin.SetMode(gin.ReleaseMode)

	c, err := container.NewContainer()
	if err != nil {
		logger.Fatal("[Container] failed to initialize", err)
	}
	defer c.Cleanup()

	cfg := loadConfig(c.Config)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	err = (&HealthChecker{c: c}).checkAll(ctx)
	cancel()
	if err != nil {
		logger.Fatal("[Startup] health check failed", err)
	}

	srv, err := setupAsynqServer(cfg, initializeHandlers(c, cfg))
	if err != nil {
		logger.Fatal("[Worker] failed to start", err)
	}

	scheduler, err := setupScheduler(cfg)
	if err != nil {
		srv.Shutdown()
		logger.Fatal("[Scheduler] failed to start", err)
	}

	health := startHealthServer(c, cfg.HealthAddr)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("[Shutdown] gracefully stopping...", nil)
	scheduler.Shutdown()
	srv.Shutdown()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	_ = health.Shutdown(shutdownCtx)
	logger.Info("[Shutdown] ✓ stopped", nil)
}
