package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-inventory.git/internal/config"
	kafkax "github.com/ariefcatur/go-order-inventory.git/internal/kafka"
	"github.com/ariefcatur/go-order-inventory.git/internal/orders"
	"github.com/ariefcatur/go-order-inventory.git/internal/projector"
	"github.com/ariefcatur/go-order-inventory.git/internal/redisx"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("zap: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &projector.Service{
		Redis:       rdb,
		Log:         logger,
		ServiceName: cfg.ServiceName + "-projector",
	}

	group := getenv("PROJECTOR_GROUP", "order-projector")
	workers := mustAtoi(os.Getenv("PROJECTOR_WORKERS"), "8")
	topics := []string{
		orders.TopicOrderCreated,
		orders.TopicOrderConfirmed,
		orders.TopicOrderCancelled,
		orders.TopicOrderPartiallyCancelled,
	}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, topics, workers, logger)

	done := make(chan struct{})
	go func() {
		defer close(done)
		logger.Info("projector consumer started",
			zap.String("group", group),
			zap.Strings("topics", topics),
			zap.Int("workers", workers),
		)
		if err := cons.Start(ctx, svc.Handle); err != nil {
			logger.Error("consumer exit", zap.Error(err))
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down consumer...")
	cancel()
	<-done
}

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
