package main

import (
	"context"
	"log"
	"os/signal"
	"syscall"
	"time"

	"github.com/wekeepgrowing/likes-market/internal/config"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/database"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/fulfillment"
	grpcServer "github.com/wekeepgrowing/likes-market/internal/infrastructure/grpc"
	httpServer "github.com/wekeepgrowing/likes-market/internal/infrastructure/http"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/provider"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/scheduler"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
	pkglogger "github.com/wekeepgrowing/likes-market/pkg/logger"
	"github.com/wekeepgrowing/likes-market/pkg/messaging"
	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := pkglogger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	logger = logger.With(
		zap.String("service", cfg.Service.Name),
		zap.String("environment", cfg.Service.Environment))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewConnection(&cfg.Database, logger)
	if err != nil {
		logger.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := database.Close(db, logger); err != nil {
			logger.Error("Failed to close database connection", zap.Error(err))
		}
	}()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(db, logger); err != nil {
			logger.Fatal("Failed to run database migrations", zap.Error(err))
		}
	}

	repos := database.NewRepositories(db, logger)

	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.Redis.Addr != "" {
		redisClient, err := messaging.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		publisher = redisClient
	} else {
		logger.Warn("Redis is not configured, order events will not be published")
	}
	defer publisher.Close()

	sealer, err := crypto.NewAESEncryptionService(cfg.Encryption.Key)
	if err != nil {
		logger.Fatal("Failed to initialize encryption", zap.Error(err))
	}

	categories, err := config.LoadCategoryMap(cfg.Fulfillment.CategoryMapPath)
	if err != nil {
		logger.Fatal("Failed to load platform category map", zap.Error(err))
	}

	credentials := usecase.NewCredentialsCache(repos.Setting, sealer, cfg.Fulfillment.APIKey, cfg.Fulfillment.CredentialsTTL, logger)
	fulfillmentClient := fulfillment.NewClient(cfg.Fulfillment.URL, credentials, cfg.Fulfillment.Timeout, logger)
	gateways := provider.NewFactory(cfg.Gateways, repos.Settlement, logger)

	events := usecase.NewOrderEventPublisher(publisher, cfg.Redis.Channel, logger)
	pricing := usecase.NewPricingService(repos.Upsell, repos.Coupon, logger)
	dispatcher := usecase.NewPaymentDispatcher(gateways, repos.Payment, logger)
	checkout := usecase.NewCheckoutService(
		repos.Order,
		repos.Payment,
		repos.Settlement,
		repos.Wallet,
		repos.Coupon,
		pricing,
		dispatcher,
		events,
		usecase.CheckoutURLs{ClientURL: cfg.Service.ClientURL, PublicURL: cfg.Service.PublicURL},
		logger,
	)
	wallets := usecase.NewWalletService(repos.Wallet, logger)
	providerOps := usecase.NewProviderOpsService(fulfillmentClient, categories, logger)
	reconciler := usecase.NewReconciliationService(
		repos.Order,
		fulfillmentClient,
		events,
		cfg.Reconciliation.BatchSize,
		usecase.RetryPolicy{Attempts: cfg.Fulfillment.Retry.Attempts, Delay: cfg.Fulfillment.Retry.Delay},
		logger,
	)
	fulfillmentDispatch := usecase.NewFulfillmentDispatchService(repos.Order, fulfillmentClient, cfg.Reconciliation.BatchSize, logger)

	grpcSrv := grpcServer.NewServer(cfg, logger)
	httpSrv := httpServer.NewServer(cfg, logger, httpServer.Dependencies{
		Checkout:    checkout,
		Coupons:     pricing,
		Wallets:     wallets,
		ProviderOps: providerOps,
		Reconciler:  reconciler,
		Dispatcher:  fulfillmentDispatch,
		Credentials: credentials,
		DBPing: func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	})

	var jobs *scheduler.Scheduler
	if cfg.Reconciliation.Enabled {
		jobs = scheduler.NewScheduler(cfg.Reconciliation, reconciler, fulfillmentDispatch, 10*time.Minute, logger)
		if err := jobs.Start(); err != nil {
			logger.Fatal("Failed to start scheduler", zap.Error(err))
		}
	} else {
		logger.Info("Reconciliation scheduler disabled")
	}

	errCh := make(chan error, 2)
	go func() {
		if err := grpcSrv.Start(); err != nil {
			errCh <- err
		}
	}()
	go func() {
		if err := httpSrv.Start(); err != nil {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("Shutdown signal received")
	case err := <-errCh:
		logger.Error("Server stopped unexpectedly", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if jobs != nil {
		if err := jobs.Stop(shutdownCtx); err != nil {
			logger.Error("Failed to stop scheduler", zap.Error(err))
		}
	}

	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown HTTP server", zap.Error(err))
	}

	if err := grpcSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Failed to shutdown gRPC server", zap.Error(err))
	}

	logger.Info("Servers shut down successfully")
}
