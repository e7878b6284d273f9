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
	"dispatch/internal/consumer"
	"dispatch/internal/infrastructure/kafka"
	"dispatch/internal/infrastructure/postgres"
	redisInfra "dispatch/internal/infrastructure/redis"
	"dispatch/internal/usecase"

	"golang.org/x/sync/errgroup"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.New()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	logger = config.NewLogger(os.Stdout, cfg.Log).With("service", "dispatch-orchestrator-consumer")
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	infraFactory := infrastructure.NewFactory(cfg, logger)
	defer infraFactory.Close()

	pgPool, err := infraFactory.Postgres(ctx)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	if err := postgres.EnsureSchema(ctx, pgPool); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	redisClient, err := infraFactory.Redis(ctx)
	if err != nil {
		logger.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}

	infraFactory.EnsureTopics(ctx)

	shipmentRepo := postgres.NewShipmentRepository(pgPool)
	snapshots := redisInfra.NewSnapshotStore(redisClient, cfg.Snapshot.KeyPrefix, logger)

	reconcileUC := usecase.NewReconcileShipment(shipmentRepo, snapshots, logger)
	getShipmentUC := usecase.NewGetShipment(redisClient, shipmentRepo, cfg.Consumer.RecordCacheTTL)

	kafkaConsumer := kafka.NewConsumer(kafka.ConsumerConfig{
		Brokers:     cfg.Kafka.Brokers,
		Topic:       cfg.Kafka.Topic,
		GroupID:     cfg.Kafka.GroupID,
		StartOffset: cfg.Kafka.StartOffset,
	}, logger)
	defer kafkaConsumer.Close()

	deadLetters := kafka.NewDeadLetterWriter(infraFactory.KafkaProducer())

	loop := consumer.NewLoop(kafkaConsumer, reconcileUC, deadLetters, consumer.Config{
		DLTTopic:        cfg.Kafka.DLTTopic,
		Lanes:           cfg.Consumer.Workers,
		LaneBuffer:      cfg.Consumer.LaneBuffer,
		FetchRetryDelay: cfg.Consumer.FetchRetryDelay,
	}, logger)

	handlers := api.NewHandlers(nil, getShipmentUC, nil, logger)
	srv := &http.Server{
		Addr:              ":" + cfg.HTTP.Port,
		Handler:           api.NewConsumerRouter(handlers),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("consumer started",
			"topic", cfg.Kafka.Topic, "group_id", cfg.Kafka.GroupID, "dlt_topic", cfg.Kafka.DLTTopic)
		return loop.Run(gctx)
	})

	g.Go(func() error {
		logger.Info("query server starting", "port", cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutdownCancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error("consumer stopped with error", "error", err)
		os.Exit(1)
	}

	logger.Info("consumer exiting")
}
