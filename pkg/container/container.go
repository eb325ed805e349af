package container

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bookstore-fulfillment/internal/config"
	infraCache "bookstore-fulfillment/internal/infrastructure/cache"
	"bookstore-fulfillment/internal/infrastructure/database"
	"bookstore-fulfillment/internal/infrastructure/outbox"
	"bookstore-fulfillment/pkg/cache"
	pkgdb "bookstore-fulfillment/pkg/database"
	"bookstore-fulfillment/pkg/jwt"
	"bookstore-fulfillment/pkg/kafka"
	"bookstore-fulfillment/pkg/logger"
	"bookstore-fulfillment/pkg/metrics"

	cartHandler "bookstore-fulfillment/internal/domains/cart/handler"
	cartRepo "bookstore-fulfillment/internal/domains/cart/repository"
	cartService "bookstore-fulfillment/internal/domains/cart/service"
	checkoutHandler "bookstore-fulfillment/internal/domains/checkout/handler"
	checkoutService "bookstore-fulfillment/internal/domains/checkout/service"
	inventoryRepo "bookstore-fulfillment/internal/domains/inventory/repository"
	inventoryService "bookstore-fulfillment/internal/domains/inventory/service"
	orderHandler "bookstore-fulfillment/internal/domains/order/handler"
	orderRepo "bookstore-fulfillment/internal/domains/order/repository"
	orderService "bookstore-fulfillment/internal/domains/order/service"
	"bookstore-fulfillment/internal/domains/payment/gateway/vnpay"
	paymentHandler "bookstore-fulfillment/internal/domains/payment/handler"
	paymentJob "bookstore-fulfillment/internal/domains/payment/job"
	paymentRepo "bookstore-fulfillment/internal/domains/payment/repository"
	paymentService "bookstore-fulfillment/internal/domains/payment/service"
	promotionHandler "bookstore-fulfillment/internal/domains/promotion/handler"
	promotionRepo "bookstore-fulfillment/internal/domains/promotion/repository"
	promotionService "bookstore-fulfillment/internal/domains/promotion/service"
	walletHandler "bookstore-fulfillment/internal/domains/wallet/handler"
	walletRepo "bookstore-fulfillment/internal/domains/wallet/repository"
	walletService "bookstore-fulfillment/internal/domains/wallet/service"
)

// ========================================
// CONTAINER STRUCT
// ========================================

// Container giữ toàn bộ dependency graph, build tay theo thứ tự:
// config → infrastructure → services → handlers. api và worker dùng chung.
type Container struct {
	// Infrastructure
	Config     *config.Config
	DB         *database.PostgresDB
	Redis      *infraCache.RedisClient
	Cache      cache.Cache
	Tokens     *jwt.Verifier
	Metrics    *metrics.Registry
	Tx         *pkgdb.TxManager
	Outbox     *outbox.Writer
	Relay      *outbox.Relay
	publisher  *kafka.Publisher

	// Services
	StockLedger *inventoryService.StockLedger
	Promotions  *promotionService.Engine
	Partitioner *cartService.Partitioner
	Wallet      *walletService.Ledger
	Orders      *orderService.Service
	Reconciler  *paymentService.Reconciler
	Checkout    *checkoutService.Orchestrator

	// Handlers
	CartHandler      *cartHandler.CartHandler
	CheckoutHandler  *checkoutHandler.CheckoutHandler
	PaymentHandler   *paymentHandler.PaymentHandler
	OrderHandler     *orderHandler.OrderHandler
	WalletHandler    *walletHandler.WalletHandler
	PromotionHandler *promotionHandler.PromotionHandler

	// Jobs (worker)
	ExpireReservations *paymentJob.ExpireReservationsHandler
}

// ========================================
// CONSTRUCTOR
// ========================================

func NewContainer() (*Container, error) {
	logger.Info("initializing container", nil)
	c := &Container{}

	// STEP 1: config
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	c.Config = cfg

	// STEP 2: infrastructure
	if err := c.initInfrastructure(); err != nil {
		c.Cleanup()
		return nil, err
	}

	// STEP 3: services
	if err := c.initServices(); err != nil {
		c.Cleanup()
		return nil, fmt.Errorf("failed to init services: %w", err)
	}

	// STEP 4: handlers + jobs
	c.initHandlers()

	logger.Info("container initialized", map[string]interface{}{
		"environment": cfg.App.Environment,
		"kafka":       c.publisher != nil,
	})
	return c, nil
}

func (c *Container) initInfrastructure() error {
	dbConfig, err := config.LoadDatabaseConfig()
	if err != nil {
		return fmt.Errorf("failed to load database config: %w", err)
	}

	db := database.NewPostgresDB(dbConfig)
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := db.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.HealthCheck(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	c.DB = db
	c.Tx = pkgdb.NewTxManager(db.Pool)

	// Redis lỗi không chặn startup: cache chỉ là fast path cho callback trùng
	c.Redis = infraCache.NewRedisClient(c.Config.Redis.Host, c.Config.Redis.Password, c.Config.Redis.DB)
	if err := c.Redis.Connect(ctx); err != nil {
		logger.Warn("redis connection failed (non-critical)", map[string]interface{}{"error": err.Error()})
	}
	c.Cache = cache.NewRedisCache(c.Redis.Client, "bookstore")

	c.Tokens = jwt.NewVerifier(c.Config.JWT.Secret)
	c.Metrics = metrics.NewRegistry()

	// Outbox: writer luôn có, relay chỉ publish khi có broker
	outboxRepo := outbox.NewPostgresRepository(db.Pool)
	c.Outbox = outbox.NewWriter(outboxRepo)

	publisher, err := kafka.NewPublisher(kafka.NewClient(c.Config.Kafka.Brokers))
	switch {
	case err == nil:
		c.publisher = publisher
		c.Relay = outbox.NewRelay(outboxRepo, publisher, c.Config.Kafka.TopicPrefix)
	case errors.Is(err, kafka.ErrDisabled):
		logger.Warn("KAFKA_BROKERS empty, outbox events stay in postgres", nil)
		// interface nil thật, không phải (*kafka.Publisher)(nil)
		c.Relay = outbox.NewRelay(outboxRepo, nil, c.Config.Kafka.TopicPrefix)
	default:
		return fmt.Errorf("failed to init kafka publisher: %w", err)
	}
	return nil
}

func (c *Container) initServices() error {
	pool := c.DB.Pool
	cfg := c.Config

	c.StockLedger = inventoryService.NewStockLedger(inventoryRepo.NewPostgresRepository(pool))
	c.Promotions = promotionService.NewEngine(promotionRepo.NewPostgresRepository(pool))
	c.Partitioner = cartService.NewPartitioner(cartRepo.NewPostgresRepository(pool))

	c.Wallet = walletService.NewLedger(
		walletRepo.NewPostgresRepository(pool),
		c.Tx,
		walletService.WithdrawalLimits{Min: cfg.Wallet.MinWithdrawal, Max: cfg.Wallet.MaxWithdrawal},
		c.Metrics.Wallet,
	)

	c.Orders = orderService.NewService(orderRepo.NewPostgresRepository(pool), c.Tx, c.StockLedger, c.Wallet, c.Outbox)

	gw, err := vnpay.NewClient(vnpay.NewConfig(
		cfg.VNPay.TmnCode,
		cfg.VNPay.HashSecret,
		cfg.VNPay.PaymentURL,
		cfg.VNPay.ReturnURL,
		cfg.VNPay.Locale,
	))
	if err != nil {
		return fmt.Errorf("vnpay client: %w", err)
	}

	c.Reconciler = paymentService.NewReconciler(
		paymentRepo.NewPostgresRepository(pool),
		c.Tx,
		gw,
		c.Orders,
		c.Wallet,
		c.Outbox,
		c.Cache,
		c.Metrics.Payment,
	)

	c.Checkout = checkoutService.NewOrchestrator(
		c.Tx,
		c.Partitioner,
		c.StockLedger,
		c.Promotions,
		c.Orders,
		c.Reconciler,
		c.Outbox,
		checkoutService.FlatShipping{Fee: cfg.Checkout.ShippingFee},
		checkoutService.Config{ReservationTTL: cfg.Checkout.ReservationTTL},
		c.Metrics.Checkout,
	)
	return nil
}

func (c *Container) initHandlers() {
	c.CartHandler = cartHandler.NewCartHandler(c.Partitioner)
	c.CheckoutHandler = checkoutHandler.NewCheckoutHandler(c.Checkout)
	c.PaymentHandler = paymentHandler.NewPaymentHandler(c.Reconciler)
	c.OrderHandler = orderHandler.NewOrderHandler(c.Orders)
	c.WalletHandler = walletHandler.NewWalletHandler(c.Wallet)
	c.PromotionHandler = promotionHandler.NewPromotionHandler(c.Promotions)

	c.ExpireReservations = paymentJob.NewExpireReservationsHandler(c.Reconciler, c.Config.Jobs.ExpiryBatchSize, c.Metrics.Jobs)
}

// Cleanup đóng resource theo thứ tự ngược lúc khởi tạo.
func (c *Container) Cleanup() {
	if c.publisher != nil {
		if err := c.publisher.Close(); err != nil {
			logger.Error("failed to close kafka writer", err)
		}
	}
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			logger.Error("failed to close redis", err)
		}
	}
	if c.DB != nil {
		c.DB.Close()
	}
	logger.Info("container cleanup completed", nil)
}
