package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/ariefcatur/go-storefront-core/internal/config"
	"github.com/ariefcatur/go-storefront-core/internal/events"
	"github.com/ariefcatur/go-storefront-core/internal/fulfillment"
	kafkax "github.com/ariefcatur/go-storefront-core/internal/kafka"
	"github.com/ariefcatur/go-storefront-core/internal/redisx"
	"github.com/ariefcatur/go-storefront-core/internal/telemetry"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	name := cfg.ServiceName + "-fulfillment"
	log := telemetry.InitLogger(name, cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	svc := &fulfillment.Service{
		Redis:       rdb,
		Cache:       &redisx.SnapshotCache{Client: rdb},
		ServiceName: name,
		Log:         log,
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.FulfillmentGroup, events.TopicFulfillmentUpdated, cfg.FulfillmentWorkers, log)
	log.Info("fulfillment consumer started",
		"group", cfg.FulfillmentGroup, "topic", events.TopicFulfillmentUpdated, "workers", cfg.FulfillmentWorkers)
	if err := cons.Start(ctx, svc.HandleFulfillmentUpdated); err != nil && ctx.Err() == nil {
		log.Error("consumer exit", "err", err)
		stop()
		os.Exit(1)
	}
	log.Info("fulfillment consumer stopped")
}
