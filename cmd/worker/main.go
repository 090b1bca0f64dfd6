package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flood-exposure-viewer/internal/app"
	"github.com/flood-exposure-viewer/internal/config"
	"github.com/flood-exposure-viewer/internal/pkg/logger"
	"github.com/flood-exposure-viewer/internal/pkg/metrics"
	"github.com/flood-exposure-viewer/internal/repository/cache"
	redisRepo "github.com/flood-exposure-viewer/internal/repository/redis"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/flood-exposure-viewer/internal/worker"
	"github.com/flood-exposure-viewer/internal/worker/dataset"
	"github.com/flood-exposure-viewer/internal/worker/export"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// Check if worker is enabled
	if !cfg.Worker.Enabled {
		fmt.Println("Worker is disabled in configuration. Set WORKER_ENABLED=true to enable.")
		os.Exit(0)
	}
	if !cfg.Redis.Enabled {
		fmt.Println("Export worker requires Redis. Set REDIS_ENABLED=true.")
		os.Exit(1)
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting CSV Export Worker")
	log.Info("Configuration loaded",
		zap.String("consumer_group", cfg.Worker.ConsumerGroup),
		zap.String("data_source", cfg.Data.Source),
		zap.Duration("export_timeout", cfg.Worker.ExportTimeout),
		zap.Int("max_retries", cfg.Worker.MaxRetries))

	// 3. Open data source
	source, err := app.OpenDataSource(cfg, log)
	if err != nil {
		log.Fatal("Failed to open data source", zap.Error(err))
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Error("Failed to close data source", zap.Error(err))
		}
	}()

	// 4. Connect to Redis
	redisClient, err := cache.NewRedis(&cfg.Redis, log)
	if err != nil {
		log.Fatal("Failed to connect to Redis", zap.Error(err))
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			log.Error("Failed to close Redis connection", zap.Error(err))
		}
	}()

	// 5. Initialize repositories
	cacheRepo := cache.NewCacheRepository(redisClient)
	streamRepo := redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)

	// 6. Initialize use cases
	m := metrics.New()

	datasetUC := usecase.NewDatasetUseCase(
		source.Assets,
		source.Boundaries,
		source.GroundTruth,
		cacheRepo,
		cfg.Cache.GroundTruthTTL,
		log,
	)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), time.Minute)
	err = datasetUC.LoadScenarios(loadCtx)
	loadCancel()
	if err != nil {
		log.Fatal("Failed to load scenario datasets", zap.Error(err))
	}

	// Выгрузки не публикуют смену сценария, publisher не нужен
	sessions := usecase.NewSessionManager(
		datasetUC,
		app.RendererFactory(cfg.Viewer, log),
		app.SessionOptions(cfg.Viewer, m),
		nil,
		app.SessionManagerConfig(cfg.Viewer),
		log,
	)
	defer sessions.Close()

	exportUC := usecase.NewExportUseCase(sessions, streamRepo, cacheRepo, cfg.Cache.ExportTTL, log)

	// 7. Create worker manager and register workers
	workerManager := worker.NewWorkerManager(cfg.Worker.ExportTimeout+5*time.Second, log)
	workerManager.Register(dataset.NewLoaderWorker(datasetUC, cfg.Worker.MaxRetries, cfg.Worker.RetryDelay, log))
	workerManager.Register(export.NewExportWorker(
		streamRepo,
		exportUC,
		cfg.Worker.ConsumerGroup,
		cfg.Worker.ExportTimeout,
		m,
		log,
	))

	// 8. Setup graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Start workers
	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// Метрики воркера на отдельном порту, 0 отключает
	var metricsApp *fiber.App
	if cfg.Worker.MetricsPort > 0 {
		metricsApp = fiber.New(fiber.Config{DisableStartupMessage: true})
		metricsApp.Get("/metrics", m.Handler())
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Worker.MetricsPort)
		go func() {
			if err := metricsApp.Listen(addr); err != nil {
				log.Error("Metrics server stopped", zap.Error(err))
			}
		}()
		log.Info("Metrics server started", zap.String("address", addr))
	}

	// Wait for interrupt signal
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan
	log.Info("Received shutdown signal")

	// Stop workers first so the in-flight export finishes, then cancel the rest
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}
	cancel()

	if metricsApp != nil {
		if err := metricsApp.Shutdown(); err != nil {
			log.Error("Metrics server shutdown error", zap.Error(err))
		}
	}

	log.Info("Worker shutdown complete")
}
