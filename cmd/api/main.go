package main

// @title Flood Exposure Viewer API
// @version 1.0.0
// @description Сервис просмотра публичных объектов в зонах затопления по сценариям 2025 и 2050 годов.
// @description
// @description Основные возможности:
// @description - Сессии просмотра: год, муниципалитет, видимые категории
// @description - Легенда со сводкой по категориям и эталонными итогами
// @description - Выгрузка объектов в CSV, синхронно и через очередь воркера
// @description - Справочники категорий и муниципалитетов, статистика

// @license.name MIT
// @license.url https://opensource.org/licenses/MIT

// @host localhost:8080
// @BasePath /
// @schemes http https

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flood-exposure-viewer/internal/app"
	"github.com/flood-exposure-viewer/internal/config"
	httpDelivery "github.com/flood-exposure-viewer/internal/delivery/http"
	"github.com/flood-exposure-viewer/internal/delivery/http/handler"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/logger"
	"github.com/flood-exposure-viewer/internal/pkg/metrics"
	"github.com/flood-exposure-viewer/internal/repository/cache"
	redisRepo "github.com/flood-exposure-viewer/internal/repository/redis"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/flood-exposure-viewer/internal/worker"
	"github.com/flood-exposure-viewer/internal/worker/dataset"
	"github.com/flood-exposure-viewer/internal/worker/session"
	"go.uber.org/zap"
)

func main() {
	// 1. Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	// 2. Initialize logger
	log, err := logger.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer log.Sync()

	log.Info("Starting Flood Exposure Viewer")
	log.Info("Configuration loaded",
		zap.String("env", cfg.Server.Env),
		zap.String("server_addr", cfg.GetServerAddr()),
		zap.String("data_source", cfg.Data.Source),
		zap.Bool("redis_enabled", cfg.Redis.Enabled),
	)

	// 3. Open data source (GeoJSON directory or PostGIS)
	source, err := app.OpenDataSource(cfg, log)
	if err != nil {
		log.Fatal("Failed to open data source", zap.Error(err))
	}
	defer func() {
		if err := source.Close(); err != nil {
			log.Error("Failed to close data source", zap.Error(err))
		}
	}()

	checks := make(map[string]handler.HealthCheck)
	if source.Health != nil {
		checks["postgres"] = source.Health
	}

	// 4. Connect to Redis (optional: cache, scenario events, export queue)
	var (
		redisClient *cache.Redis
		cacheRepo   repository.CacheRepository
		streamRepo  repository.StreamRepository
		publisher   usecase.ChangePublisher
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(&cfg.Redis, log)
		if err != nil {
			log.Fatal("Failed to connect to Redis", zap.Error(err))
		}
		defer func() {
			if err := redisClient.Close(); err != nil {
				log.Error("Failed to close Redis connection", zap.Error(err))
			}
		}()

		cacheRepo = cache.NewCacheRepository(redisClient)
		streamRepo = redisRepo.NewStreamRepository(redisClient.Client(), cfg.Worker.StreamReadTimeout, log)
		publisher = usecase.NewStreamChangePublisher(streamRepo)
		checks["redis"] = redisClient.Health
	} else {
		log.Warn("Redis disabled: no cache, scenario events or queued exports")
	}

	// 5. Initialize Use Cases
	m := metrics.New()

	datasetUC := usecase.NewDatasetUseCase(
		source.Assets,
		source.Boundaries,
		source.GroundTruth,
		cacheRepo,
		cfg.Cache.GroundTruthTTL,
		log,
	)

	// Объекты и зоны затопления нужны до первой сессии
	loadCtx, loadCancel := context.WithTimeout(context.Background(), time.Minute)
	err = datasetUC.LoadScenarios(loadCtx)
	loadCancel()
	if err != nil {
		log.Fatal("Failed to load scenario datasets", zap.Error(err))
	}

	sessions := usecase.NewSessionManager(
		datasetUC,
		app.RendererFactory(cfg.Viewer, log),
		app.SessionOptions(cfg.Viewer, m),
		publisher,
		app.SessionManagerConfig(cfg.Viewer),
		log,
	)
	defer sessions.Close()

	exportUC := usecase.NewExportUseCase(sessions, streamRepo, cacheRepo, cfg.Cache.ExportTTL, log)
	statsUC := usecase.NewStatsUseCase(datasetUC, cacheRepo, cfg.Cache.StatsTTL, log)

	log.Info("Use cases initialized")

	// 6. Background workers: boundaries and ground truth arrive after sessions start
	workerManager := worker.NewWorkerManager(worker.DefaultShutdownTimeout, log)
	workerManager.Register(dataset.NewLoaderWorker(datasetUC, cfg.Worker.MaxRetries, cfg.Worker.RetryDelay, log))
	workerManager.Register(session.NewSweeperWorker(sessions, cfg.Viewer.SweepInterval, log))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := workerManager.Start(ctx); err != nil {
		log.Fatal("Failed to start workers", zap.Error(err))
	}

	// 7. Initialize HTTP Handlers
	sessionHandler := handler.NewSessionHandler(sessions, cfg.Viewer.LegendWait, log)
	catalogHandler := handler.NewCatalogHandler(datasetUC, sessions, cfg.Viewer.Methodology, checks, log)
	exportHandler := handler.NewExportHandler(exportUC, log)
	statsHandler := handler.NewStatsHandler(statsUC, log)

	// 8. Initialize HTTP Server
	server := httpDelivery.NewServer(
		cfg,
		log,
		sessionHandler,
		catalogHandler,
		exportHandler,
		statsHandler,
		m.Handler(),
	)

	// 9. Start server in goroutine
	go func() {
		if err := server.Start(); err != nil {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started successfully",
		zap.String("address", cfg.GetServerAddr()),
		zap.String("env", cfg.Server.Env),
	)

	// 10. Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server gracefully...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server shutdown error", zap.Error(err))
	}

	cancel()
	if err := workerManager.Stop(); err != nil {
		log.Error("Error stopping workers", zap.Error(err))
	}

	log.Info("Server stopped successfully")
}
