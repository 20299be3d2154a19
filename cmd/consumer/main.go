package main

import (
	"context"
	"encoding/json"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"grocermart/internal/config"
	"grocermart/internal/logger"
	"grocermart/internal/model"
)

const groupID = "order-events-audit"

// A read-side tail of the order-events topic: logs every lifecycle event
// the outbox publisher emits.
func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	cfg := config.Load()

	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokers,
		GroupID:        groupID,
		Topic:          cfg.OrdersTopic,
		MinBytes:       10e3,
		MaxBytes:       10e6,
		CommitInterval: time.Second,
		MaxWait:        3 * time.Second,
	})
	defer func() {
		if err := r.Close(); err != nil {
			log.Error("closing reader failed", zap.Error(err))
		}
	}()

	log.Info("consumer started",
		zap.Strings("brokers", cfg.KafkaBrokers),
		zap.String("topic", cfg.OrdersTopic))

	for {
		msg, err := r.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				log.Info("consumer stopped")
				return
			}
			log.Error("read failed", zap.Error(err))
			continue
		}

		var event model.Event
		if err := json.Unmarshal(msg.Value, &event); err != nil || event.Order == nil {
			log.Warn("skipping malformed message",
				zap.String("key", string(msg.Key)),
				zap.Error(err))
			continue
		}

		log.Info("order event",
			zap.String("type", event.Type),
			zap.Int64("order_id", event.Order.ID),
			zap.String("status", string(event.Order.Status)),
			zap.Float64("total", event.Order.Total))
	}
}
