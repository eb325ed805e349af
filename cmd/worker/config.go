package main

import (
	"os"
	"strconv"

	"github.com/hibiken/asynq"

	"bookstore-fulfillment/internal/config"
	"bookstore-fulfillment/pkg/logger"
)

// Config: phần riêng của worker, còn lại lấy từ config.Config của container
type Config struct {
	RedisAddr     string
	RedisPassword string
	RedisDB       int
	Concurrency   int
	HealthAddr    string
	Jobs          config.JobConfig
}

func loadConfig(app *config.Config) *Config {
	cfg := &Config{
		RedisAddr:     app.Redis.Host,
		RedisPassword: app.Redis.Password,
		RedisDB:       app.Redis.DB,
		Concurrency:   envInt("WORKER_CONCURRENCY", 10),
		HealthAddr:    envString("WORKER_HEALTH_ADDR", ":9999"),
		Jobs:          app.Jobs,
	}

	logger.Info("[Config] worker", map[string]interface{}{
		"redis":       cfg.RedisAddr,
		"concurrency": cfg.Concurrency,
		"expiry_cron": cfg.Jobs.ExpirySweepCron,
		"outbox_cron": cfg.Jobs.OutboxRelayCron,
		"health_addr": cfg.HealthAddr,
	})
	return cfg
}

func (c *Config) redisOpt() asynq.RedisClientOpt {
	return asynq.RedisClientOpt{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

func envString(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	v, err := strconv.Atoi(os.Getenv(key))
	if err != nil || v <= 0 {
		return def
	}
	return v
}
