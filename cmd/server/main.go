package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"cabbooking/internal/app"
	"cabbooking/internal/config"
	"cabbooking/internal/events"
	"cabbooking/internal/logger"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", logger.Err(err))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// New Relic first so the database and Redis clients are instrumented.
	nrApp := app.NewNewRelic(cfg.NewRelic, log)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	store, closeStore, err := app.NewStore(ctx, cfg, nrApp, log)
	if err != nil {
		log.Fatal("failed to open storage", logger.Err(err))
	}
	defer closeStore()

	infra := app.Infra{
		Store:    store,
		Gateway:  app.NewGateway(cfg.Gateway),
		NewRelic: nrApp,
	}

	if cfg.Redis.Enabled {
		var redisClient *goredis.Client
		redisClient, err = app.NewRedisClient(ctx, cfg.Redis, nrApp)
		if err != nil {
			log.Fatal("failed to connect to redis", logger.Err(err))
		}
		defer redisClient.Close()
		infra.Redis = redisClient
		log.Info("connected to Redis", logger.String("addr", cfg.Redis.Addr))
	}

	if cfg.Kafka.Enabled {
		publisher := events.NewPublisher(events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic))
		defer publisher.Close()
		refunds := events.NewRefundQueue(events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.RefundsTopic))
		defer refunds.Close()

		infra.Events = publisher
		infra.Refunds = refunds
		log.Info("publishing to Kafka",
			logger.String("events_topic", cfg.Kafka.EventsTopic),
			logger.String("refunds_topic", cfg.Kafka.RefundsTopic))
	}

	container := app.NewContainer(cfg, infra, log)

	runCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hubDone := make(chan struct{})
	go func() {
		container.Hub.Run(runCtx)
		close(hubDone)
	}()

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      container.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Info("starting server",
			logger.String("port", cfg.Server.Port),
			logger.String("storage", cfg.Storage.Driver),
			logger.String("gateway", infra.Gateway.Name()))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server error", logger.Err(err))
			stop()
		}
	}()

	<-runCtx.Done()
	log.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("server forced to shutdown", logger.Err(err))
	}
	<-hubDone

	log.Info("server exited")
}
