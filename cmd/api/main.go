package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/ariefcatur/go-order-inventory.git/internal/config"
	"github.com/ariefcatur/go-order-inventory.git/internal/httpx"
	"github.com/ariefcatur/go-order-inventory.git/internal/inventory"
	kafkax "github.com/ariefcatur/go-order-inventory.git/internal/kafka"
	"github.com/ariefcatur/go-order-inventory.git/internal/lifecycle"
	"github.com/ariefcatur/go-order-inventory.git/internal/memory"
	"github.com/ariefcatur/go-order-inventory.git/internal/postgres"
	"github.com/ariefcatur/go-order-inventory.git/internal/redisx"
	storepkg "github.com/ariefcatur/go-order-inventory.git/internal/store"
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

	// Store backend: postgres utk produksi, memory utk dev cepat tanpa DB
	var (
		st     storepkg.Store
		reader storepkg.Reader
	)
	if cfg.StoreBackend == "memory" {
		ms := memory.New()
		st, reader = ms, ms
		logger.Warn("using in-memory store, data is not durable")
	} else {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			logger.Fatal("db connect", zap.Error(err))
		}
		defer db.Close()
		ps := postgres.NewStore(db)
		st, reader = ps, ps
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (multi-topic)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, logger)
	prod.Start(ctx)

	engine := &lifecycle.Engine{
		Store:        st,
		Ledger:       inventory.Ledger{},
		Events:       prod,
		Log:          logger,
		Service:      cfg.ServiceName,
		NumberPrefix: cfg.NumberPrefix,
	}

	router := httpx.NewRouter(logger)
	oh := &httpx.OrdersHandler{Engine: engine, Reader: reader, Redis: rdb}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	// graceful shutdown
	go func() {
		logger.Info("HTTP listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("listen", zap.Error(err))
		}
	}()

	// wait signal
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // tutup inbox -> flush & close writer
	prod.WaitClosed() // drain
}
