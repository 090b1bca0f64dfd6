// Package app собирает общие зависимости для cmd/api, cmd/worker и cmd/viewerctl
package app

import (
	"context"
	"fmt"

	"github.com/flood-exposure-viewer/internal/config"
	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/eventloop"
	"github.com/flood-exposure-viewer/internal/renderer/headless"
	"github.com/flood-exposure-viewer/internal/repository/file"
	"github.com/flood-exposure-viewer/internal/repository/postgres"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/paulmach/orb/maptile"
	"go.uber.org/zap"
)

// DataSource - репозитории наборов данных выбранного источника
type DataSource struct {
	Assets      repository.AssetRepository
	Boundaries  repository.BoundaryRepository
	GroundTruth repository.GroundTruthRepository

	// Health проверяет соединение с базой, nil для файлового источника
	Health func(ctx context.Context) error

	close func() error
}

// OpenDataSource открывает источник из DATA_SOURCE: каталог GeoJSON/CSV или PostGIS
func OpenDataSource(cfg *config.Config, logger *zap.Logger) (*DataSource, error) {
	switch cfg.Data.Source {
	case config.DataSourceFile:
		layout := file.Layout{
			Dir:               cfg.Data.Dir,
			AssetsPattern:     cfg.Data.AssetsPattern,
			FloodplainPattern: cfg.Data.FloodplainPattern,
			BoundariesFile:    cfg.Data.BoundariesFile,
			GroundTruthFile:   cfg.Data.GroundTruthFile,
		}
		logger.Info("Using file data source", zap.String("dir", layout.Dir))
		return &DataSource{
			Assets:      file.NewAssetRepository(layout, logger),
			Boundaries:  file.NewBoundaryRepository(layout, logger),
			GroundTruth: file.NewGroundTruthRepository(layout, logger),
			close:       func() error { return nil },
		}, nil

	case config.DataSourcePostgres:
		db, err := postgres.New(&cfg.Database, logger)
		if err != nil {
			return nil, err
		}
		return &DataSource{
			Assets:      postgres.NewAssetRepository(db),
			Boundaries:  postgres.NewBoundaryRepository(db),
			GroundTruth: postgres.NewGroundTruthRepository(db),
			Health:      db.Health,
			close:       db.Close,
		}, nil

	default:
		return nil, fmt.Errorf("unsupported data source %q", cfg.Data.Source)
	}
}

// Close освобождает соединения источника
func (d *DataSource) Close() error {
	if d.close == nil {
		return nil
	}
	return d.close()
}

// RendererOptions переводит настройки VIEWER_* в параметры headless рендерера
func RendererOptions(cfg config.ViewerConfig) headless.Options {
	opts := headless.DefaultOptions()
	if cfg.TileZoom > 0 {
		opts.TileZoom = maptile.Zoom(cfg.TileZoom)
	}
	if cfg.TileBuffer > 0 {
		opts.TileBuffer = cfg.TileBuffer
	}
	if cfg.HitTolerance > 0 {
		opts.HitTolerance = cfg.HitTolerance
	}
	return opts
}

// RendererFactory создает headless рендерер на цикле событий сессии
func RendererFactory(cfg config.ViewerConfig, logger *zap.Logger) usecase.RendererFactory {
	opts := RendererOptions(cfg)
	return func(sched eventloop.Scheduler) repository.RendererState {
		return headless.New(sched, opts, logger)
	}
}

// SessionOptions собирает настройки сессий. metrics может быть nil.
func SessionOptions(cfg config.ViewerConfig, metrics usecase.MetricsRecorder) usecase.SessionOptions {
	return usecase.SessionOptions{
		LayerSync: usecase.LayerSyncOptions{ShowFloodGrowth: cfg.ShowFloodGrowth},
		Viewport:  usecase.DefaultViewportOptions(),
		Metrics:   metrics,
	}
}

// SessionManagerConfig собирает ограничения менеджера сессий
func SessionManagerConfig(cfg config.ViewerConfig) usecase.SessionManagerConfig {
	return usecase.SessionManagerConfig{
		MaxSessions:         cfg.MaxSessions,
		IdleTTL:             cfg.SessionIdleTTL,
		DefaultYear:         domain.Year(cfg.DefaultYear),
		DefaultMunicipality: domain.NormalizeMunicipality(cfg.DefaultMunicipality),
	}
}
