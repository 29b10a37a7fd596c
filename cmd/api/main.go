package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ariefcatur/go-storefront-core/internal/backend"
	"github.com/ariefcatur/go-storefront-core/internal/cart"
	"github.com/ariefcatur/go-storefront-core/internal/config"
	"github.com/ariefcatur/go-storefront-core/internal/httpx"
	kafkax "github.com/ariefcatur/go-storefront-core/internal/kafka"
	"github.com/ariefcatur/go-storefront-core/internal/payment"
	"github.com/ariefcatur/go-storefront-core/internal/postgres"
	"github.com/ariefcatur/go-storefront-core/internal/redisx"
	"github.com/ariefcatur/go-storefront-core/internal/storefront"
	"github.com/ariefcatur/go-storefront-core/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log := telemetry.InitLogger(cfg.ServiceName, cfg.LogLevel)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Cart persistence
	var persister cart.Persister = &cart.RedisPersister{Client: rdb}
	if cfg.CartBackend == "postgres" {
		db, err := postgres.Connect(ctx, cfg.PostgresDSN)
		if err != nil {
			fatal(log, "db connect", err)
		}
		defer db.Close()
		pg := &cart.PGPersister{DB: db}
		if err := pg.EnsureSchema(ctx); err != nil {
			fatal(log, "db schema", err)
		}
		persister = pg
	}

	// Kafka producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024, log)
	prod.Start(ctx)

	api := backend.New(cfg.BackendURL, cfg.BackendTimeout, log)
	carts := cart.NewRegistry(persister, api, log, cart.WithIdleTTL(cfg.CartIdleTTL))
	go carts.Run(ctx, time.Minute)
	svc := &storefront.Service{
		Backend:     api,
		Carts:       carts,
		Cache:       &redisx.SnapshotCache{Client: rdb},
		Verifier:    payment.NewVerifier(),
		Events:      prod,
		DeliveryFee: cfg.DeliveryFee,
		ServiceName: cfg.ServiceName,
		Log:         log,
	}

	router := httpx.NewRouter()
	(&httpx.CartHandler{Service: svc}).Register(router)
	(&httpx.OrdersHandler{Service: svc, Log: log}).Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr, "cart_backend", cfg.CartBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal(log, "listen", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	carts.Wait() // outstanding cart mirrors
	prod.Close()
	prod.WaitClosed()
}

func fatal(log *slog.Logger, msg string, err error) {
	log.Error(msg, "err", err)
	os.Exit(1)
}
