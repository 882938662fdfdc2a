package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/internal/config"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/consumer"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/logger"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/queue/sqs"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/repository/clickhouse"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "dead-letter-consumer")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	if !cfg.SQS.Enabled() || !cfg.ClickHouse.Enabled() {
		log.Fatal("Dead-letter consumer requires SQS_QUEUE_URL and CLICKHOUSE_HOST")
	}

	log.Info("Starting dead-letter consumer",
		zap.String("queue_url", cfg.SQS.QueueURL))

	ctx := context.Background()

	// Initialize ClickHouse client
	chClient, err := clickhouse.NewClient(ctx, &cfg.ClickHouse, log)
	if err != nil {
		log.Fatal("Failed to create ClickHouse client", zap.Error(err))
	}
	defer func() {
		if err := chClient.Close(); err != nil {
			log.Error("Failed to close ClickHouse client", zap.Error(err))
		}
	}()

	repo := clickhouse.NewRepository(chClient, log)

	// Initialize schema (create tables if not exist)
	if err := repo.InitSchema(ctx); err != nil {
		log.Fatal("Failed to initialize schema", zap.Error(err))
	}
	log.Info("Database schema initialized")

	sqsClient, err := sqs.NewClient(ctx, cfg.SQS, log)
	if err != nil {
		log.Fatal("Failed to create SQS client", zap.Error(err))
	}

	c := consumer.NewConsumer(cfg, sqsClient, repo, log)

	// Health and dead-letter summary endpoints
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if err := repo.Ping(r.Context()); err != nil {
			log.Warn("Health check failed", zap.Error(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("/dead-letters", func(w http.ResponseWriter, r *http.Request) {
		window := 24 * time.Hour
		if raw := r.URL.Query().Get("window"); raw != "" {
			parsed, err := time.ParseDuration(raw)
			if err != nil || parsed <= 0 {
				http.Error(w, "window must be a positive duration", http.StatusBadRequest)
				return
			}
			window = parsed
		}

		counts, err := repo.CountDeadLetters(r.Context(), time.Now().Add(-window))
		if err != nil {
			log.Error("Failed to count dead letters", zap.Error(err))
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		if err := json.NewEncoder(w).Encode(counts); err != nil {
			log.Error("Failed to encode dead letter counts", zap.Error(err))
		}
	})

	server := &http.Server{
		Addr:              ":" + cfg.Consumer.HealthCheckPort,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("Health check server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Health check server error", zap.Error(err))
		}
	}()

	consumerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	log.Info("Consumer starting")

	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := c.Start(consumerCtx); err != nil {
			log.Error("Consumer error", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down consumer gracefully")
	cancel()
	<-done

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down health check server", zap.Error(err))
	}
}
