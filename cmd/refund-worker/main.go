// Command refund-worker settles refunds queued on the Kafka refunds topic.
package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"cabbooking/internal/app"
	"cabbooking/internal/config"
	"cabbooking/internal/events"
	"cabbooking/internal/logger"
	"cabbooking/internal/service"
)

func main() {
	cfg := config.Load()

	log, err := logger.New(logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()
	log = log.Named("refund-worker")

	if err := cfg.Validate(); err != nil {
		log.Fatal("invalid configuration", logger.Err(err))
	}
	if !cfg.Kafka.Enabled {
		log.Fatal("the refund worker consumes from Kafka; set KAFKA_ENABLED=true")
	}
	if cfg.Storage.Driver != "postgres" {
		log.Fatal("the refund worker needs shared storage; set STORAGE_DRIVER=postgres")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	nrApp := app.NewNewRelic(cfg.NewRelic, log)
	if nrApp != nil {
		defer nrApp.Shutdown(5 * time.Second)
	}

	openCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	store, closeStore, err := app.NewStore(openCtx, cfg, nrApp, log)
	cancel()
	if err != nil {
		log.Fatal("failed to open storage", logger.Err(err))
	}
	defer closeStore()

	publisher := events.NewPublisher(events.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.EventsTopic))
	defer publisher.Close()
	payments := service.NewPaymentService(store, app.NewGateway(cfg.Gateway), cfg.Gateway.Currency, log).
		WithEvents(publisher, nil)

	reader := events.NewReader(cfg.Kafka.Brokers, cfg.Kafka.RefundsTopic, cfg.Kafka.GroupID)
	defer reader.Close()

	metricsServer := &http.Server{Addr: ":" + cfg.Server.Port, Handler: promhttp.Handler()}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("metrics server error", logger.Err(err))
		}
	}()

	log.Info("consuming refunds",
		logger.String("topic", cfg.Kafka.RefundsTopic),
		logger.String("group", cfg.Kafka.GroupID))
	if err := events.NewRefundConsumer(reader, payments, log).Run(ctx); err != nil {
		log.Error("refund consumer stopped", logger.Err(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	_ = metricsServer.Shutdown(shutdownCtx)
	log.Info("refund worker exited")
}
