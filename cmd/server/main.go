package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"grocermart/internal/cache"
	"grocermart/internal/config"
	"grocermart/internal/db"
	"grocermart/internal/kafka"
	"grocermart/internal/logger"
	"grocermart/internal/repository/postgresql"
	"grocermart/internal/server"
	"grocermart/internal/service"
	"grocermart/internal/ws"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	cfg := config.Load()

	database, err := db.NewDb(ctx, cfg.DatabaseDSN)
	if err != nil {
		log.Fatal("database init failed", zap.Error(err))
	}
	defer database.GetPool().Close()

	if err := db.InitSchema(ctx, database); err != nil {
		log.Fatal("schema init failed", zap.Error(err))
	}

	orderRepo := postgresql.NewOrderRepo(database)
	userRepo := postgresql.NewUserRepo(database)
	reviewRepo := postgresql.NewReviewRepo(database)
	outboxRepo := postgresql.NewOutboxTaskRepo(database)

	orderCache := cache.NewOrderCache(orderRepo, log)
	if err := orderCache.LoadInitialData(ctx); err != nil {
		log.Fatal("cache warm-up failed", zap.Error(err))
	}

	hub := ws.NewHub(log)

	orderSvc := service.NewOrderService(database, orderRepo, userRepo, outboxRepo, orderCache, hub, cfg.OrdersTopic, log)
	reviewSvc := service.NewReviewService(database, reviewRepo, orderRepo, userRepo, log)
	authSvc := service.NewAuthService(userRepo, cfg.JWTSecret)
	userSvc := service.NewUserService(userRepo, log)

	producer := kafka.NewWriterProducer(cfg.KafkaBrokers)
	publisher := kafka.NewPublisher(database, outboxRepo, producer, kafka.PublisherConfig{
		PollInterval: cfg.OutboxPollInterval,
		BatchSize:    cfg.OutboxBatchSize,
		MaxAttempts:  cfg.OutboxMaxAttempts,
	}, log)
	go publisher.Run(ctx)

	srv := server.New(orderSvc, reviewSvc, authSvc, userSvc, ws.Handler(hub, cfg.JWTSecret, log), cfg.JWTSecret, log)
	go func() {
		if err := srv.Run(cfg.HTTPAddr); err != nil {
			log.Fatal("http server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", zap.Error(err))
	}
	publisher.Shutdown()

	log.Info("server stopped")
}
