package main

import (
	"context"
	"log"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.uber.org/zap"

	"freshmart/internal/config"
	"freshmart/internal/events"
	"freshmart/internal/http/handlers"
	applog "freshmart/internal/log"
	"freshmart/internal/payments"
	"freshmart/internal/repos"
	"freshmart/internal/telemetry"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := applog.New(cfg.Env, cfg.Log.Level)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	applog.SetLogger(logger)
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var tp *sdktrace.TracerProvider
	if cfg.Tracing.Endpoint != "" {
		tp, err = telemetry.InitTracer(ctx, "freshmart", cfg.Env, cfg.Tracing.Endpoint)
		if err != nil {
			logger.Fatal("tracer init failed", zap.Error(err))
		}
	}

	store, err := repos.Open(ctx, cfg.DB.DSN)
	if err != nil {
		logger.Fatal("database open failed", zap.Error(err))
	}
	defer func() { _ = store.Close() }()

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			// lookups fall through to the database while redis is down
			logger.Warn("redis unreachable", zap.String("addr", cfg.Redis.Addr), zap.Error(err))
		}
		defer func() { _ = rdb.Close() }()
	}

	if cfg.Stripe.SecretKey == "" {
		logger.Warn("STRIPE_SECRET_KEY not set; checkout will fail")
	}
	deps := handlers.NewDeps(store, cfg, handlers.Collaborators{
		Gateway:  payments.NewStripeGateway(payments.StripeConfig{SecretKey: cfg.Stripe.SecretKey}),
		Webhooks: payments.StripeWebhooks{Secret: cfg.Stripe.WebhookSecret},
		Redis:    rdb,
	})
	app := handlers.NewApp(deps, handlers.AppOptions{BodyLimit: cfg.HTTP.BodyLimit})

	var wg sync.WaitGroup
	relayCtx, stopRelay := context.WithCancel(context.Background())
	if len(cfg.Kafka.Brokers) > 0 {
		producer, err := events.NewKafkaProducer(cfg.Kafka.Brokers)
		if err != nil {
			logger.Fatal("kafka producer init failed", zap.Error(err))
		}
		defer func() { _ = producer.Close() }()

		relay := events.NewRelay(store, producer)
		wg.Add(1)
		go func() {
			defer wg.Done()
			relay.Start(relayCtx)
		}()
	} else {
		logger.Info("KAFKA_BROKERS not set; order events stay in the outbox")
	}

	go func() {
		logger.Info("http listening", zap.String("addr", cfg.HTTP.Port))
		if err := app.Listen(cfg.HTTP.Port); err != nil {
			logger.Error("http listen failed", zap.Error(err))
			stop()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("http shutdown failed", zap.Error(err))
	}
	stopRelay()
	wg.Wait()

	if tp != nil {
		if err := tp.Shutdown(shutdownCtx); err != nil {
			logger.Error("tracer shutdown failed", zap.Error(err))
		}
	}
}
