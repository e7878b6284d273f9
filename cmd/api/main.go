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

	"dispatch/internal/api"
	"dispatch/internal/application/factories/infrastructure"
	"dispatch/internal/config"
	"dispatch/internal/infrastructure/kafka"
	redisInfra "dispatch/internal/infrastructure/redis"
	"dispatch/internal/usecase"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = config.NewLogger(os.Stdout, cfg.Log).With("service", "shipping-ops-producer")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg, logger)
	defer infraFactory.Close()

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	infraFactory.EnsureTopics(ctx)

	publisher := kafka.NewPublisher(infraFactory.KafkaProducer(), cfg.Kafka.Topic, logger)
	snapshots := redisInfra.NewSnapshotStore(redisClient, cfg.Snapshot.KeyPrefix, logger)

	validator, err := api.NewRequestValidator()
	if err != nil {
		logger.Error("failed to build request validator", "error", err)
		os.Exit(1)
	}

	submitUC := usecase.NewSubmitShipment(publisher, snapshots, cfg.Snapshot.TTL, logger)

	handlers := api.NewHandlers(submitUC, nil, validator, logger)
	apiHandler := api.NewProducerRouter(handlers, redisClient, logger)

	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           apiHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		logger.Info("server starting", "port", cfg.HTTP.Port, "topic", cfg.Kafka.Topic)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("listen failed", "error", err)
			cancel()
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down server")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
	}

	logger.Info("server exiting")
}
