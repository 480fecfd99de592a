package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/api"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
	"auction-marketplace/internal/infrastructure/leader"
	"auction-marketplace/internal/infrastructure/natsbus"
	"auction-marketplace/internal/infrastructure/redis"
	"auction-marketplace/internal/infrastructure/sqlstore"
	"auction-marketplace/internal/services"
	"auction-marketplace/pkg/logger"
	"auction-marketplace/pkg/utils"

	redisClient "github.com/go-redis/redis/v8"
)

func main() {
	log := logger.New()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		log.Error("Invalid config", "error", err)
		os.Exit(1)
	}
	instanceID := cfg.Instance.ID
	if instanceID == "" {
		instanceID = utils.GenerateID("marketplace")
	}
	log = logger.NewService(cfg.Log.Level, "marketplace-service", instanceID)
	log.Info("Starting marketplace service", "config", cfg.GetConfigString())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize database
	db, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("Failed to open database", "driver", cfg.Database.Driver, "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Failed to close database", "error", err)
		}
	}()
	log.Info("Connected to database", "driver", cfg.Database.Driver)

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Event bus
	var eventPublisher domain.EventPublisher
	switch cfg.Events.Backend {
	case config.BackendRedis:
		eventPublisher = redis.NewEventPublisher(rdb, cfg.Events.Channel)
	case config.BackendNATS:
		conn, err := natsbus.Connect(cfg.NATS.URL, instanceID, log)
		if err != nil {
			log.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer conn.Drain()
		eventPublisher = natsbus.NewPublisher(conn, cfg.NATS.SubjectPrefix)
	default:
		log.Info("Event publishing disabled")
	}

	// Initialize repositories and services
	items := sqlstore.NewItemStore(db)
	subscriptions := services.NewSubscriptionService(
		sqlstore.NewSubscriptionRepository(db),
		redis.NewRedisTierCache(rdb),
		cfg.Cache.TierTTL,
		log,
	)

	svc := api.Services{
		Auctions:      services.NewAuctionManager(items, subscriptions, eventPublisher, log),
		Bids:          services.NewBidService(items, eventPublisher, log),
		Payments:      services.NewSettlementService(items, eventPublisher, log),
		Catalog:       services.NewCatalogService(items, sqlstore.NewCategoryRepository(db), sqlstore.NewFavoriteRepository(db), log),
		Subscriptions: subscriptions,
	}

	e := api.NewServer(svc, api.Options{JWTSecret: cfg.Auth.JWTSecret, ServiceName: "marketplace"}, log)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	leaderElection := leader.NewRedisLeaderElection(rdb, "", cfg.Leader.TTL)
	monitor := services.NewSettlementMonitor(items, leaderElection, instanceID, cfg.Monitor.Schedule, log)

	if cfg.Monitor.Enabled {
		if err := monitor.Start(runCtx); err != nil {
			log.Error("Failed to start settlement monitor", "error", err)
			os.Exit(1)
		}
		go campaign(runCtx, leaderElection, instanceID, log)
	}

	go func() {
		log.Info("Starting HTTP server", "address", cfg.Address())
		if err := e.Start(cfg.Address()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down marketplace service...")
	stop()

	// Graceful shutdown
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if cfg.Monitor.Enabled {
		if err := monitor.Stop(); err != nil {
			log.Error("Failed to stop settlement monitor", "error", err)
		}
		if err := leaderElection.ReleaseLeadership(shutdownCtx, instanceID); err != nil {
			log.Error("Failed to release leadership", "error", err)
		}
	}

	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Marketplace service stopped")
}

// campaign keeps trying to become leader until ctx is cancelled.
func campaign(ctx context.Context, election domain.LeaderElection, instanceID string, log logger.Logger) {
	for {
		wait := 10 * time.Second
		became, err := election.BecomeLeader(ctx, instanceID)
		switch {
		case err != nil:
			log.Error("Failed to attempt leadership", "error", err)
			wait = 5 * time.Second
		case became:
			log.Info("Became settlement leader")
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(wait):
		}
	}
}
