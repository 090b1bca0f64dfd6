package usecase

import (
	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// FeatureCatalog читает объекты сценарного слоя из рендерера
type FeatureCatalog struct {
	renderer repository.Renderer
	logger   *zap.Logger
}

// NewFeatureCatalog создает новый экземпляр FeatureCatalog
func NewFeatureCatalog(renderer repository.Renderer, logger *zap.Logger) *FeatureCatalog {
	return &FeatureCatalog{
		renderer: renderer,
		logger:   logger,
	}
}

// GetFeatures возвращает уникальные объекты муниципалитета для года.
// Слой года должен быть видимым. Отсутствующий слой дает пустой результат.
func (c *FeatureCatalog) GetFeatures(year domain.Year, municipality string) []domain.AssetFeature {
	layerID := domain.AssetLayerID(year)
	sourceID, ok := c.renderer.LayerSource(layerID)
	if !ok {
		c.logger.Debug("Asset layer not loaded yet", zap.String("layer", layerID))
		return nil
	}

	raw := c.renderer.QuerySourceFeatures(sourceID, domain.Eq(domain.PropMunicipality, municipality))
	features := DedupeFeatures(raw)

	c.logger.Debug("Features fetched",
		zap.Int("year", int(year)),
		zap.String("municipality", municipality),
		zap.Int("raw", len(raw)),
		zap.Int("unique", len(features)))

	return features
}

// DedupeFeatures оставляет по одному объекту на UNIQUE_ID.
// При повторе побеждает последний, позиция остается от первого. Объекты без ID отбрасываются.
func DedupeFeatures(raw []*geojson.Feature) []domain.AssetFeature {
	out := make([]domain.AssetFeature, 0, len(raw))
	index := make(map[string]int, len(raw))

	for _, f := range raw {
		if f == nil {
			continue
		}
		a := domain.AssetFromFeature(f)
		if a.UniqueID == "" {
			continue
		}
		if i, ok := index[a.UniqueID]; ok {
			out[i] = a
			continue
		}
		index[a.UniqueID] = len(out)
		out = append(out, a)
	}

	return out
}
