package repository

import (
	"context"

	"github.com/paulmach/orb/geojson"
)

// BoundaryRepository определяет методы для работы с границами муниципалитетов
type BoundaryRepository interface {
	// LoadBoundaries возвращает полигоны границ со свойством MUN
	LoadBoundaries(ctx context.Context) (*geojson.FeatureCollection, error)
}
