package usecase

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Dataset - снимок загруженных наборов данных. Коллекции только для чтения.
type Dataset struct {
	Assets            map[domain.Year]*geojson.FeatureCollection
	Floodplains       map[domain.Year]*geojson.FeatureCollection
	Boundaries        *geojson.FeatureCollection
	Bounds            domain.BoundsIndex
	GroundTruth       domain.GroundTruth
	BoundariesLoaded  bool
	GroundTruthLoaded bool
	UpdatedAt         time.Time
}

// DatasetUseCase загружает наборы данных и рассылает уведомления о загрузке
type DatasetUseCase struct {
	assetRepo    repository.AssetRepository
	boundaryRepo repository.BoundaryRepository
	truthRepo    repository.GroundTruthRepository
	cacheRepo    repository.CacheRepository
	cacheTTL     time.Duration
	logger       *zap.Logger

	mu        sync.RWMutex
	data      Dataset
	listeners []func(domain.Command)
}

// NewDatasetUseCase создает новый экземпляр DatasetUseCase. cacheRepo может быть nil.
func NewDatasetUseCase(
	assetRepo repository.AssetRepository,
	boundaryRepo repository.BoundaryRepository,
	truthRepo repository.GroundTruthRepository,
	cacheRepo repository.CacheRepository,
	cacheTTL time.Duration,
	logger *zap.Logger,
) *DatasetUseCase {
	return &DatasetUseCase{
		assetRepo:    assetRepo,
		boundaryRepo: boundaryRepo,
		truthRepo:    truthRepo,
		cacheRepo:    cacheRepo,
		cacheTTL:     cacheTTL,
		logger:       logger,
		data: Dataset{
			Assets:      make(map[domain.Year]*geojson.FeatureCollection),
			Floodplains: make(map[domain.Year]*geojson.FeatureCollection),
			Boundaries:  geojson.NewFeatureCollection(),
			Bounds:      make(domain.BoundsIndex),
			GroundTruth: make(domain.GroundTruth),
		},
	}
}

// Subscribe подписывает на команды BoundariesLoaded и GroundTruthLoaded
func (uc *DatasetUseCase) Subscribe(fn func(domain.Command)) {
	uc.mu.Lock()
	defer uc.mu.Unlock()
	uc.listeners = append(uc.listeners, fn)
}

// LoadScenarios загружает объекты и зоны затопления всех сценариев.
// Ошибка объектов фатальна, ошибка зоны затопления только логируется.
func (uc *DatasetUseCase) LoadScenarios(ctx context.Context) error {
	assets := make(map[domain.Year]*geojson.FeatureCollection, len(domain.ScenarioYears))
	floodplains := make(map[domain.Year]*geojson.FeatureCollection, len(domain.ScenarioYears))

	for _, y := range domain.ScenarioYears {
		fc, err := uc.assetRepo.LoadAssets(ctx, y)
		if err != nil {
			return fmt.Errorf("load assets %d: %w", y, err)
		}
		if n := domain.NormalizeCategories(fc); n > 0 {
			uc.logger.Warn("Assets without category",
				zap.Int("year", int(y)),
				zap.Int("count", n))
		}
		assets[y] = fc

		flood, err := uc.assetRepo.LoadFloodplain(ctx, y)
		if err != nil {
			uc.logger.Warn("Failed to load floodplain, layer will be empty",
				zap.Int("year", int(y)),
				zap.Error(err))
			flood = geojson.NewFeatureCollection()
		}
		floodplains[y] = flood

		uc.logger.Info("Scenario loaded",
			zap.Int("year", int(y)),
			zap.Int("assets", len(fc.Features)),
			zap.Int("floodplain_features", len(flood.Features)))
	}

	uc.mu.Lock()
	uc.data.Assets = assets
	uc.data.Floodplains = floodplains
	uc.data.UpdatedAt = time.Now()
	uc.mu.Unlock()

	return nil
}

// LoadBoundaries загружает границы, считает bounds и уведомляет подписчиков
func (uc *DatasetUseCase) LoadBoundaries(ctx context.Context) error {
	fc, err := uc.boundaryRepo.LoadBoundaries(ctx)
	if err != nil {
		return fmt.Errorf("load boundaries: %w", err)
	}

	bounds := domain.BuildBoundsIndex(fc)

	uc.mu.Lock()
	uc.data.Boundaries = fc
	uc.data.Bounds = bounds
	uc.data.BoundariesLoaded = true
	uc.data.UpdatedAt = time.Now()
	uc.mu.Unlock()

	uc.logger.Info("Boundaries loaded",
		zap.Int("features", len(fc.Features)),
		zap.Int("municipalities", len(bounds)))

	uc.notify(domain.BoundariesLoaded{Collection: fc, Bounds: bounds})
	return nil
}

// LoadGroundTruth загружает эталонные итоги, используя кеш когда возможно
func (uc *DatasetUseCase) LoadGroundTruth(ctx context.Context) error {
	totals, err := uc.fetchGroundTruth(ctx)
	if err != nil {
		return err
	}

	uc.mu.Lock()
	uc.data.GroundTruth = totals
	uc.data.GroundTruthLoaded = true
	uc.data.UpdatedAt = time.Now()
	uc.mu.Unlock()

	uc.logger.Info("Ground truth loaded", zap.Int("municipalities", len(totals)))

	uc.notify(domain.GroundTruthLoaded{Totals: totals})
	return nil
}

func (uc *DatasetUseCase) fetchGroundTruth(ctx context.Context) (domain.GroundTruth, error) {
	// 1. Проверяем кеш
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetGroundTruth(ctx)
		if err == nil && cached != nil {
			uc.logger.Debug("Ground truth fetched from cache")
			return cached, nil
		}
		if err != nil {
			uc.logger.Warn("Failed to get ground truth from cache", zap.Error(err))
		}
	}

	// 2. Читаем из источника
	totals, err := uc.truthRepo.LoadGroundTruth(ctx)
	if err != nil {
		return nil, fmt.Errorf("load ground truth: %w", err)
	}

	// 3. Кешируем
	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetGroundTruth(ctx, totals, uc.cacheTTL); err != nil {
			uc.logger.Warn("Failed to cache ground truth", zap.Error(err))
		}
	}

	return totals, nil
}

// Snapshot возвращает текущий снимок данных
func (uc *DatasetUseCase) Snapshot() Dataset {
	uc.mu.RLock()
	defer uc.mu.RUnlock()

	ds := uc.data
	ds.Assets = make(map[domain.Year]*geojson.FeatureCollection, len(uc.data.Assets))
	for y, fc := range uc.data.Assets {
		ds.Assets[y] = fc
	}
	ds.Floodplains = make(map[domain.Year]*geojson.FeatureCollection, len(uc.data.Floodplains))
	for y, fc := range uc.data.Floodplains {
		ds.Floodplains[y] = fc
	}
	return ds
}

// Municipalities возвращает справочник муниципалитетов с bounds
func (uc *DatasetUseCase) Municipalities() []domain.Municipality {
	uc.mu.RLock()
	defer uc.mu.RUnlock()
	return domain.KnownMunicipalities(uc.data.Bounds)
}

func (uc *DatasetUseCase) notify(cmd domain.Command) {
	uc.mu.RLock()
	listeners := make([]func(domain.Command), len(uc.listeners))
	copy(listeners, uc.listeners)
	uc.mu.RUnlock()

	for _, fn := range listeners {
		fn(cmd)
	}
}
