package main

import (
	"context"
	"flag"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"grocermart/internal/logger"
	"grocermart/internal/model"
	"grocermart/internal/ws"
)

// watcher subscribes to the live channel and prints order updates,
// reconnecting with a fixed delay when the connection drops.
func main() {
	url := flag.String("url", "ws://localhost:8080/ws", "websocket endpoint")
	token := flag.String("token", "", "bearer token from /api/login")
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	log := logger.New()
	defer func() {
		_ = log.Sync()
	}()

	if *token == "" {
		log.Fatal("a -token is required")
	}

	client := ws.NewClient(*url, *token, log)
	err := client.Run(ctx, func(event model.Event) {
		log.Info("order update",
			zap.String("type", event.Type),
			zap.Int64("order_id", event.Order.ID),
			zap.String("status", string(event.Order.Status)),
			zap.Float64("total", event.Order.Total))
	})
	if err != nil {
		// Out of reconnect attempts; tell the user to restart instead of
		// spinning forever.
		log.Fatal("live channel unavailable, restart the watcher", zap.Error(err))
	}
}
