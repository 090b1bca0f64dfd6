package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"
)

// Layout - расположение файлов набора данных
type Layout struct {
	Dir               string
	AssetsPattern     string // fmt-шаблон с годом, например assets_%d.geojson
	FloodplainPattern string
	BoundariesFile    string
	GroundTruthFile   string
}

func (l Layout) path(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(l.Dir, name)
}

type assetRepository struct {
	layout Layout
	logger *zap.Logger
}

// NewAssetRepository создает новый экземпляр AssetRepository поверх GeoJSON файлов
func NewAssetRepository(layout Layout, logger *zap.Logger) repository.AssetRepository {
	return &assetRepository{
		layout: layout,
		logger: logger,
	}
}

func (r *assetRepository) LoadAssets(ctx context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	return r.load(ctx, fmt.Sprintf(r.layout.AssetsPattern, int(year)))
}

func (r *assetRepository) LoadFloodplain(ctx context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	return r.load(ctx, fmt.Sprintf(r.layout.FloodplainPattern, int(year)))
}

func (r *assetRepository) load(ctx context.Context, name string) (*geojson.FeatureCollection, error) {
	path := r.layout.path(name)
	fc, err := readFeatureCollection(ctx, path)
	if err != nil {
		r.logger.Error("Failed to read GeoJSON", zap.String("path", path), zap.Error(err))
		return nil, err
	}

	r.logger.Debug("GeoJSON loaded",
		zap.String("path", path),
		zap.Int("features", len(fc.Features)))
	return fc, nil
}

// readFeatureCollection читает FeatureCollection. Пустые features отбрасываются.
func readFeatureCollection(ctx context.Context, path string) (*geojson.FeatureCollection, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	features := fc.Features[:0]
	for _, f := range fc.Features {
		if f != nil && f.Geometry != nil {
			features = append(features, f)
		}
	}
	fc.Features = features

	return fc, nil
}
