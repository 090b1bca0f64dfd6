package file

import (
	"context"

	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

type boundaryRepository struct {
	layout Layout
	logger *zap.Logger
}

// NewBoundaryRepository создает новый экземпляр BoundaryRepository
func NewBoundaryRepository(layout Layout, logger *zap.Logger) repository.BoundaryRepository {
	return &boundaryRepository{
		layout: layout,
		logger: logger,
	}
}

func (r *boundaryRepository) LoadBoundaries(ctx context.Context) (*geojson.FeatureCollection, error) {
	path := r.layout.path(r.layout.BoundariesFile)
	fc, err := readFeatureCollection(ctx, path)
	if err != nil {
		r.logger.Error("Failed to read boundaries", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	r.logger.Debug("Boundaries loaded", zap.String("path", path), zap.Int("features", len(fc.Features)))
	return fc, nil
}
