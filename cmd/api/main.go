package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shopify-preorder-layer/internal/application"
	"shopify-preorder-layer/internal/application/webhook_handlers"
	"shopify-preorder-layer/internal/config"
	apiinfra "shopify-preorder-layer/internal/infrastructure/api"
	"shopify-preorder-layer/internal/infrastructure/database"
	"shopify-preorder-layer/internal/infrastructure/encryption"
	"shopify-preorder-layer/internal/infrastructure/lock"
	"shopify-preorder-layer/internal/infrastructure/metrics"
	"shopify-preorder-layer/internal/infrastructure/notifier"
	"shopify-preorder-layer/internal/infrastructure/repository"
	shopifyinfra "shopify-preorder-layer/internal/infrastructure/shopify"
	"shopify-preorder-layer/internal/infrastructure/state"
	"shopify-preorder-layer/internal/ports"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// repositories groups the stores of the selected storage driver
type repositories struct {
	subscriptions ports.SubscriptionRepository
	preorders     ports.PreOrderRepository
	waitlist      ports.WaitlistRepository
	shops         ports.ShopRepository
}

func main() {
	// Initialize logger
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load(logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Invalid configuration")
	}
	logger = logger.Level(cfg.LogLevel)

	// Outbound GraphQL documents must match the Admin schema subset
	if err := shopifyinfra.ValidateQueries(); err != nil {
		logger.Fatal().Err(err).Msg("Invalid Shopify GraphQL documents")
	}

	ctx := context.Background()

	// Initialize infrastructure (implementations)
	encryptionService, err := encryption.NewService(cfg.EncryptionKey)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to initialize encryption service")
	}
	tokenManager := shopifyinfra.NewTokenManager(encryptionService, logger)

	repos, closeStorage, err := openStorage(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.StorageDriver).Msg("Failed to open storage")
	}
	defer closeStorage()

	locker, states, closeRedis, err := openCoordination(ctx, cfg, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("Failed to connect to Redis")
	}
	defer closeRedis()

	shopifyClient := shopifyinfra.NewClient(
		cfg.ShopifyAPIKey,
		cfg.ShopifyAPISecret,
		cfg.ShopifyAPIVersion,
		&http.Client{Timeout: 15 * time.Second},
		logger,
	)
	appMetrics := metrics.New(true)

	// Initialize application services
	installService := application.NewInstallService(
		repos.shops,
		states,
		shopifyClient,
		tokenManager,
		logger,
		cfg.AppURL,
		cfg.ShopifyScopes,
	)

	billingService := application.NewBillingService(
		repos.subscriptions,
		shopifyClient,
		installService,
		logger,
		cfg.AppURL,
		cfg.BillingTestMode,
	)

	preOrderService := application.NewPreOrderService(
		repos.preorders,
		billingService,
		locker,
		appMetrics,
		logger,
	)

	waitlistService := application.NewWaitlistService(
		repos.waitlist,
		billingService,
		shopifyClient,
		installService,
		notifier.NewLogNotifier(logger),
		locker,
		appMetrics,
		logger,
	)

	// Initialize webhook dispatcher and register handlers
	webhookDispatcher := application.NewWebhookDispatcher(logger)
	webhookDispatcher.RegisterHandler(webhook_handlers.NewInventoryLevelsHandler(logger, installService, shopifyClient, waitlistService))
	webhookDispatcher.RegisterHandler(webhook_handlers.NewAppUninstalledHandler(logger, installService))

	handler := apiinfra.NewHandler(
		installService,
		billingService,
		preOrderService,
		waitlistService,
		webhookDispatcher,
		shopifyClient,
		appMetrics,
		logger,
		cfg.AppURL,
	)
	router := apiinfra.NewRouter(handler, apiinfra.RouterOptions{
		AllowedOrigins: cfg.CORSAllowOrigin,
		SwaggerFile:    "./docs/swagger.json",
		Metrics:        appMetrics,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info().Str("port", cfg.Port).Str("storage", cfg.StorageDriver).Msg("Starting API server")
		logger.Info().Msg("Swagger documentation available at http://localhost:" + cfg.Port + "/swagger/index.html")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	sigCtx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-sigCtx.Done()

	logger.Info().Msg("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("Graceful shutdown failed")
	}
}

// openStorage connects the configured driver and returns its repositories
func openStorage(ctx context.Context, cfg *config.Config) (*repositories, func(), error) {
	if cfg.StorageDriver == config.DriverMongo {
		client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
		if err != nil {
			return nil, nil, fmt.Errorf("failed to connect to MongoDB: %w", err)
		}
		if err := client.Ping(ctx, nil); err != nil {
			return nil, nil, fmt.Errorf("failed to ping MongoDB: %w", err)
		}

		db := client.Database(cfg.MongoDatabase)
		if err := repository.EnsureMongoIndexes(ctx, db); err != nil {
			return nil, nil, err
		}
		closeFn := func() { _ = client.Disconnect(context.Background()) }
		return &repositories{
			subscriptions: repository.NewMongoSubscriptionRepository(db),
			preorders:     repository.NewMongoPreOrderRepository(db),
			waitlist:      repository.NewMongoWaitlistRepository(db),
			shops:         repository.NewMongoShopRepository(db),
		}, closeFn, nil
	}

	db, err := database.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to get database handle: %w", err)
	}
	closeFn := func() { _ = sqlDB.Close() }
	return &repositories{
		subscriptions: repository.NewGormSubscriptionRepository(db),
		preorders:     repository.NewGormPreOrderRepository(db),
		waitlist:      repository.NewGormWaitlistRepository(db),
		shops:         repository.NewGormShopRepository(db),
	}, closeFn, nil
}

// openCoordination returns Redis backed locks and OAuth states when REDIS_URL
// is set, in-process ones otherwise
func openCoordination(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (ports.Locker, ports.OAuthStateStore, func(), error) {
	if cfg.RedisURL == "" {
		logger.Warn().Msg("REDIS_URL not set, using in-process locks and OAuth state (single instance only)")
		return lock.NewLocalLocker(cfg.LockWait), state.NewMemoryStore(), func() {}, nil
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("invalid REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, nil, nil, fmt.Errorf("failed to ping redis: %w", err)
	}
	closeFn := func() { _ = client.Close() }
	return lock.NewRedisLocker(client, cfg.LockWait, logger), state.NewRedisStore(client), closeFn, nil
}
