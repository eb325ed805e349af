package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config chứa toàn bộ application configuration
// Struct này được populate từ environment variables
type Config struct {
	App      AppConfig
	Redis    RedisConfig
	JWT      JWTConfig
	VNPay    VNPayConfig
	Checkout CheckoutConfig
	Wallet   WalletConfig
	Jobs     JobConfig
	Kafka    KafkaConfig
}

type AppConfig struct {
	Name        string
	Environment string // development, staging, production
	Port        string
	Version     string
}

type RedisConfig struct {
	Host     string
	Password string
	DB       int
}

type JWTConfig struct {
	Secret string
}

type VNPayConfig struct {
	TmnCode    string // Merchant Code (e.g., "DEMOV01")
	HashSecret string // Secret key for HMAC-SHA512
	PaymentURL string // https://sandbox.vnpayment.vn/paymentv2/vpcpay.html
	ReturnURL  string // browser return, handled by this API
	IPNURL     string // registered with VNPay out of band
	Locale     string
}

type CheckoutConfig struct {
	ReservationTTL time.Duration
	ShippingFee    decimal.Decimal // flat fee per shop order
}

type WalletConfig struct {
	MinWithdrawal decimal.Decimal
	MaxWithdrawal decimal.Decimal
}

type JobConfig struct {
	ExpirySweepCron string
	ExpiryBatchSize int
	OutboxRelayCron string
	OutboxBatchSize int
}

type KafkaConfig struct {
	Brokers     string // comma separated, empty = relay disabled
	TopicPrefix string
}

const defaultJWTSecret = "your-secret-key-change-in-production"

var (
	ErrMissingHashSecret = errors.New("VNPAY_HASH_SECRET must be set")
	ErrMissingTmnCode    = errors.New("VNPAY_TMN_CODE must be set")
)

// Load đọc config từ environment variables
func Load() (*Config, error) {
	cfg := &Config{
		App: AppConfig{
			Name:        getEnv("APP_NAME", "Bookstore Fulfillment"),
			Environment: getEnv("APP_ENV", "development"),
			Port:        getEnv("APP_PORT", "8080"),
			Version:     getEnv("APP_VERSION", "1.0.0"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		JWT: JWTConfig{
			Secret: getEnv("JWT_SECRET", defaultJWTSecret),
		},
		VNPay: VNPayConfig{
			TmnCode:    getEnv("VNPAY_TMN_CODE", ""),
			HashSecret: getEnv("VNPAY_HASH_SECRET", ""),
			PaymentURL: getEnv("VNPAY_PAYMENT_URL", "https://sandbox.vnpayment.vn/paymentv2/vpcpay.html"),
			ReturnURL:  getEnv("VNPAY_RETURN_URL", "http://localhost:8080/api/v1/payments/vnpay/return"),
			IPNURL:     getEnv("VNPAY_IPN_URL", "http://localhost:8080/api/v1/webhooks/vnpay/ipn"),
			Locale:     getEnv("VNPAY_LOCALE", "vn"),
		},
		Checkout: CheckoutConfig{
			ReservationTTL: getEnvDuration("CHECKOUT_RESERVATION_TTL", 15*time.Minute),
			ShippingFee:    getEnvDecimal("CHECKOUT_SHIPPING_FEE", decimal.Zero),
		},
		Wallet: WalletConfig{
			MinWithdrawal: getEnvDecimal("WALLET_MIN_WITHDRAWAL", decimal.NewFromInt(50000)),
			MaxWithdrawal: getEnvDecimal("WALLET_MAX_WITHDRAWAL", decimal.NewFromInt(50000000)),
		},
		Jobs: JobConfig{
			ExpirySweepCron: getEnv("JOB_EXPIRY_SWEEP_CRON", "* * * * *"),
			ExpiryBatchSize: getEnvInt("JOB_EXPIRY_BATCH_SIZE", 100),
			OutboxRelayCron: getEnv("JOB_OUTBOX_RELAY_CRON", "* * * * *"),
			OutboxBatchSize: getEnvInt("JOB_OUTBOX_BATCH_SIZE", 200),
		},
		Kafka: KafkaConfig{
			Brokers:     getEnv("KAFKA_BROKERS", ""),
			TopicPrefix: getEnv("KAFKA_TOPIC_PREFIX", "bookstore"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// Validate kiểm tra config có hợp lệ không.
// Thiếu HMAC secret là lỗi fatal ở mọi environment.
func (c *Config) Validate() error {
	if c.VNPay.HashSecret == "" {
		return ErrMissingHashSecret
	}
	if c.VNPay.TmnCode == "" {
		return ErrMissingTmnCode
	}

	if c.App.Environment == "production" && c.JWT.Secret == defaultJWTSecret {
		return fmt.Errorf("JWT_SECRET must be set in production")
	}

	if c.Checkout.ReservationTTL <= 0 {
		return fmt.Errorf("CHECKOUT_RESERVATION_TTL must be positive")
	}
	if c.Checkout.ShippingFee.IsNegative() {
		return fmt.Errorf("CHECKOUT_SHIPPING_FEE must not be negative")
	}

	if !c.Wallet.MinWithdrawal.IsPositive() || c.Wallet.MaxWithdrawal.LessThan(c.Wallet.MinWithdrawal) {
		return fmt.Errorf("wallet withdrawal bounds invalid: min=%s max=%s",
			c.Wallet.MinWithdrawal, c.Wallet.MaxWithdrawal)
	}

	if c.Jobs.ExpiryBatchSize <= 0 || c.Jobs.OutboxBatchSize <= 0 {
		return fmt.Errorf("job batch sizes must be positive")
	}

	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) decimal.Decimal {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := decimal.NewFromString(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
