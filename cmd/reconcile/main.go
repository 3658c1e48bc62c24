package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/wekeepgrowing/likes-market/internal/config"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/crypto"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/database"
	"github.com/wekeepgrowing/likes-market/internal/infrastructure/fulfillment"
	"github.com/wekeepgrowing/likes-market/internal/usecase"
	pkglogger "github.com/wekeepgrowing/likes-market/pkg/logger"
	"github.com/wekeepgrowing/likes-market/pkg/messaging"
	"go.uber.org/zap"
)

func main() {
	dispatch := flag.Bool("dispatch", false, "submit paid orders to the fulfillment provider before reconciling")
	watch := flag.Bool("watch", false, "after the run, print order status events from Redis until interrupted")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger, err := pkglogger.NewZapLogger(cfg.Log)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync()

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

	repos := database.NewRepositories(db, logger)

	var redisClient messaging.RedisClient
	var publisher messaging.Publisher = messaging.NoopPublisher{}
	if cfg.Redis.Addr != "" {
		redisClient, err = messaging.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err != nil {
			logger.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		publisher = redisClient
	}
	defer publisher.Close()

	sealer, err := crypto.NewAESEncryptionService(cfg.Encryption.Key)
	if err != nil {
		logger.Fatal("Failed to initialize encryption", zap.Error(err))
	}

	credentials := usecase.NewCredentialsCache(repos.Setting, sealer, cfg.Fulfillment.APIKey, cfg.Fulfillment.CredentialsTTL, logger)
	client := fulfillment.NewClient(cfg.Fulfillment.URL, credentials, cfg.Fulfillment.Timeout, logger)
	events := usecase.NewOrderEventPublisher(publisher, cfg.Redis.Channel, logger)

	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")

	if *dispatch {
		dispatcher := usecase.NewFulfillmentDispatchService(repos.Order, client, cfg.Reconciliation.BatchSize, logger)
		report, err := dispatcher.Run(ctx)
		if err != nil {
			logger.Fatal("Dispatch run failed", zap.Error(err))
		}
		_ = encoder.Encode(report)
	}

	reconciler := usecase.NewReconciliationService(
		repos.Order,
		client,
		events,
		cfg.Reconciliation.BatchSize,
		usecase.RetryPolicy{Attempts: cfg.Fulfillment.Retry.Attempts, Delay: cfg.Fulfillment.Retry.Delay},
		logger,
	)
	report, err := reconciler.Run(ctx)
	if err != nil {
		logger.Fatal("Reconciliation run failed", zap.Error(err))
	}
	_ = encoder.Encode(report)

	if !*watch {
		return
	}
	if redisClient == nil {
		logger.Fatal("Watching requires redis.addr to be configured")
	}

	messages, err := redisClient.Subscribe(ctx, cfg.Redis.Channel)
	if err != nil {
		logger.Fatal("Failed to subscribe to order events", zap.Error(err))
	}
	logger.Info("Watching order events", zap.String("channel", cfg.Redis.Channel))

	for msg := range messages {
		var event usecase.OrderEvent
		if err := json.Unmarshal(msg.Payload, &event); err != nil {
			logger.Warn("Skipping malformed order event", zap.Error(err))
			continue
		}
		_ = encoder.Encode(event)
	}
}
