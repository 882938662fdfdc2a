package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/DentaMind/SmartDentalAI-sub016/docs"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/archive"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/config"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/handler"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/idempotency"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/logger"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/producer"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/registry"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/repository/clickhouse"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/service"
	"github.com/DentaMind/SmartDentalAI-sub016/internal/stats"
)

// @title Practice Event Ingestion API
// @version 1.0
// @description Ingests dental practice telemetry events, validates them against an evolving schema registry and serves traffic and schema statistics.
// @host localhost:8080
// @BasePath /
// @schemes http https
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Initialize logger
	log, err := logger.New(cfg.Service.Environment, "api")
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer func(log *zap.Logger) {
		_ = log.Sync()
	}(log)

	log.Info("Starting ingestion API",
		zap.String("port", cfg.Service.APIPort),
		zap.Bool("archive_enabled", cfg.ClickHouse.Enabled()),
		zap.Bool("valkey_enabled", cfg.Valkey.Enabled()))

	docs.SwaggerInfo.Host = cfg.Service.Host

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var (
		registryOpts []registry.Option
		statsOpts    []stats.Option
		eventOpts    []service.EventServiceOption
		background   sync.WaitGroup
	)

	// Audit archive is optional; without it the registry and stats stay in memory only
	archiveCtx, cancelArchive := context.WithCancel(context.Background())
	defer cancelArchive()

	if cfg.ClickHouse.Enabled() {
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
		if err := repo.InitSchema(ctx); err != nil {
			log.Fatal("Failed to initialize schema", zap.Error(err))
		}

		archiver := archive.NewArchiver(repo, archive.Config{
			BufferSize:   cfg.Archive.BufferSize,
			MaxBatchSize: cfg.Archive.MaxBatchSize,
			FlushTimeout: cfg.Archive.FlushTimeout,
		}, log)

		background.Add(1)
		go func() {
			defer background.Done()
			archiver.Start(archiveCtx)
		}()

		registryOpts = append(registryOpts, registry.WithArchiver(archiver))
		statsOpts = append(statsOpts, stats.WithArchiver(archiver))
		eventOpts = append(eventOpts, service.WithArchiveStats(archiver))
	}

	reg := registry.New(registry.Config{
		MaxRecentErrors: cfg.Registry.MaxRecentErrors,
		ErrorRetention:  cfg.Registry.ErrorRetention,
	}, log, registryOpts...)

	aggregator := stats.NewAggregator(stats.Config{
		MinuteRetention:  cfg.Stats.MinuteRetention,
		HourRetention:    cfg.Stats.HourRetention,
		WarningErrorRate: cfg.Stats.WarningErrorRate,
		ExpectTraffic:    cfg.Stats.ExpectTraffic,
	}, log, statsOpts...)

	if cfg.Valkey.IdempotencyEnabled {
		store, err := newIdempotencyStore(ctx, cfg.Valkey, log)
		if err != nil {
			log.Fatal("Failed to create idempotency store", zap.Error(err))
		}
		defer store.Close()
		eventOpts = append(eventOpts, service.WithIdempotency(store, cfg.Valkey.IdempotencyFailOpen))
	}

	eventService := service.NewEventService(reg, aggregator, log, eventOpts...)
	schemaService := service.NewSchemaService(reg, aggregator, log)

	if cfg.Registry.SeedCatalog {
		seeded := schemaService.SeedCatalog(producer.CatalogSpecs())
		log.Info("Schema catalog seeded", zap.Int("event_types", seeded))
	}

	h := handler.NewHandler(eventService, schemaService, handler.Config{
		MaxBatchSize: cfg.Ingest.MaxBatchSize,
		MaxBodyBytes: cfg.Ingest.MaxBodyBytes,
	}, log)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Service.APIPort),
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("API server starting", zap.String("address", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start API server", zap.Error(err))
		}
	}()

	<-ctx.Done()
	log.Info("Shutting down API server gracefully")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Failed to shut down API server", zap.Error(err))
	}

	cancelArchive()
	background.Wait()

	if archived, err := eventService.ArchiveStats(); err == nil {
		log.Info("Audit archive stopped",
			zap.Int64("written", archived.Written),
			zap.Int64("dropped", archived.Dropped),
			zap.Int64("failed", archived.Failed))
	}
}

// newIdempotencyStore prefers Valkey so duplicates are caught across replicas
func newIdempotencyStore(ctx context.Context, cfg config.Valkey, log *zap.Logger) (idempotency.Store, error) {
	if !cfg.Enabled() {
		log.Info("Using in-memory idempotency store",
			zap.Int("capacity", cfg.MemoryCapacity),
			zap.Duration("ttl", cfg.IdempotencyTTL))
		return idempotency.NewMemoryStore(cfg.IdempotencyTTL, cfg.MemoryCapacity), nil
	}

	store, err := idempotency.NewValkeyStore(cfg, log)
	if err != nil {
		return nil, err
	}
	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("failed to ping valkey: %w", err)
	}
	return store, nil
}
