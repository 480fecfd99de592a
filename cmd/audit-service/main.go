package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"auction-marketplace/internal/audit"
	"auction-marketplace/internal/config"
	"auction-marketplace/internal/domain"
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
	log = logger.NewService(cfg.Log.Level, "audit-service", cfg.Instance.ID)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := sqlstore.Open(ctx, sqlstore.Options{
		Driver:          cfg.Database.Driver,
		DSN:             cfg.Database.DSN,
		MaxOpenConns:    cfg.Database.MaxOpenConns,
		MaxIdleConns:    cfg.Database.MaxIdleConns,
		ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
	})
	if err != nil {
		log.Error("Failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var subscriber domain.EventSubscriber
	switch cfg.Events.Backend {
	case config.BackendRedis:
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
		subscriber = redis.NewRedisEventSubscriber(rdb, cfg.Events.Channel, log)
	case config.BackendNATS:
		conn, err := natsbus.Connect(cfg.NATS.URL, utils.GenerateID("audit"), log)
		if err != nil {
			log.Error("Failed to connect to NATS", "error", err)
			os.Exit(1)
		}
		defer conn.Drain()
		subscriber = natsbus.NewSubscriber(conn, cfg.NATS.SubjectPrefix, log)
	default:
		log.Error("Audit service needs an event backend", "backend", cfg.Events.Backend)
		os.Exit(1)
	}

	listener := services.NewAuditListener(sqlstore.NewAuditRepository(db), log)

	runCtx, stop := context.WithCancel(context.Background())
	defer stop()

	go func() {
		if err := listener.Start(runCtx, subscriber); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Audit listener failed", "error", err)
			os.Exit(1)
		}
	}()

	server := &http.Server{
		Addr:              cfg.Address(),
		Handler:           audit.NewRouter(listener, log),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Starting audit service", "address", server.Addr, "backend", cfg.Events.Backend)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down audit service...")
	stop()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Audit service stopped")
}
