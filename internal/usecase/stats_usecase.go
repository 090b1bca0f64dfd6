package usecase

import (
	"context"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"go.uber.org/zap"
)

// StatsUseCase обрабатывает бизнес-логику для статистики наборов данных
type StatsUseCase struct {
	dataset   *DatasetUseCase
	cacheRepo repository.CacheRepository
	ttl       time.Duration
	logger    *zap.Logger
}

// NewStatsUseCase создает новый экземпляр StatsUseCase. cacheRepo может быть nil.
func NewStatsUseCase(
	dataset *DatasetUseCase,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *StatsUseCase {
	return &StatsUseCase{
		dataset:   dataset,
		cacheRepo: cacheRepo,
		ttl:       ttl,
		logger:    logger,
	}
}

// GetStatistics возвращает статистику, используя кеш когда возможно
func (uc *StatsUseCase) GetStatistics(ctx context.Context) (*domain.Statistics, error) {
	snapshot := uc.dataset.Snapshot()

	// 1. Проверяем кеш, устаревшая запись игнорируется
	if uc.cacheRepo != nil {
		cached, err := uc.cacheRepo.GetStats(ctx)
		if err == nil && cached != nil && !cached.LastUpdated.Before(snapshot.UpdatedAt) {
			uc.logger.Debug("Statistics fetched from cache")
			return cached, nil
		}
		if err != nil {
			uc.logger.Warn("Failed to get stats from cache", zap.Error(err))
		}
	}

	// 2. Считаем по снимку
	stats := ComputeStatistics(snapshot)

	// 3. Кешируем
	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetStats(ctx, stats, uc.ttl); err != nil {
			uc.logger.Warn("Failed to cache stats", zap.Error(err))
		}
	}

	return stats, nil
}

// ComputeStatistics считает уникальные объекты по годам, категориям и муниципалитетам
func ComputeStatistics(ds Dataset) *domain.Statistics {
	stats := &domain.Statistics{
		Assets: domain.AssetStats{
			ByYear:     make(map[domain.Year]int),
			ByCategory: make(map[domain.Category]int),
		},
		Coverage: domain.CoverageStats{
			BoundariesLoaded:  ds.BoundariesLoaded,
			GroundTruthLoaded: ds.GroundTruthLoaded,
			Municipalities:    len(ds.Bounds),
		},
		LastUpdated: ds.UpdatedAt,
	}

	perMun := make(map[string]map[domain.Year]int)
	unknown := make(map[string]struct{})

	for _, y := range domain.ScenarioYears {
		fc := ds.Assets[y]
		if fc == nil {
			continue
		}
		for _, a := range DedupeFeatures(fc.Features) {
			stats.Assets.ByYear[y]++
			stats.Assets.ByCategory[a.Category]++
			if !a.Category.IsKnown() {
				unknown[a.UniqueID] = struct{}{}
			}
			if perMun[a.Municipality] == nil {
				perMun[a.Municipality] = make(map[domain.Year]int)
			}
			perMun[a.Municipality][y]++
		}
	}
	stats.Assets.Unknown = len(unknown)

	for _, m := range domain.KnownMunicipalities(ds.Bounds) {
		gt := 0
		for _, n := range ds.GroundTruth.Totals(m.Key) {
			gt += n
		}
		stats.Municipality = append(stats.Municipality, domain.MunicipalityStats{
			Key:              m.Key,
			Label:            m.Label,
			Assets2025:       perMun[m.Key][domain.Year2025],
			Assets2050:       perMun[m.Key][domain.Year2050],
			GroundTruthTotal: gt,
			HasBounds:        m.Bounds != nil,
		})
	}

	return stats
}
