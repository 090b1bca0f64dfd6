package repository

import (
	"context"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/paulmach/orb/geojson"
)

// AssetRepository определяет методы загрузки сценарных наборов данных
type AssetRepository interface {
	// LoadAssets возвращает точки объектов для сценарного года
	LoadAssets(ctx context.Context, year domain.Year) (*geojson.FeatureCollection, error)

	// LoadFloodplain возвращает полигоны зоны затопления для сценарного года
	LoadFloodplain(ctx context.Context, year domain.Year) (*geojson.FeatureCollection, error)
}
