package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
)

type assetRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewAssetRepository создает новый экземпляр AssetRepository
func NewAssetRepository(db *DB) repository.AssetRepository {
	return &assetRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type assetRow struct {
	featureRow
	UniqueID     string         `db:"unique_id"`
	Category     string         `db:"asset"`
	Municipality string         `db:"mun"`
	Name         sql.NullString `db:"name"`
	County       sql.NullString `db:"county"`
}

// LoadAssets возвращает объекты в зоне затопления для сценарного года
func (r *assetRepository) LoadAssets(ctx context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	query := `
		SELECT
			unique_id, asset, mun, name, county,
			ST_AsGeoJSON(geom) as geometry_json
		FROM flood_assets
		WHERE year = $1
		ORDER BY id
	`

	var rows []assetRow
	if err := r.db.SelectContext(ctx, &rows, query, int(year)); err != nil {
		r.logger.Error("Failed to load assets", zap.Int("year", int(year)), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		f, err := decodeFeature(row.Geometry)
		if err != nil {
			r.logger.Warn("Skipping asset with invalid geometry",
				zap.String("unique_id", row.UniqueID), zap.Error(err))
			continue
		}
		f.Properties[domain.PropUniqueID] = row.UniqueID
		f.Properties[domain.PropCategory] = row.Category
		f.Properties[domain.PropMunicipality] = row.Municipality
		setOptional(f.Properties, domain.PropName, row.Name)
		setOptional(f.Properties, domain.PropCounty, row.County)
		fc.Append(f)
	}

	r.logger.Debug("Assets loaded", zap.Int("year", int(year)), zap.Int("features", len(fc.Features)))
	return fc, nil
}

// LoadFloodplain возвращает упрощенные полигоны зоны затопления
func (r *assetRepository) LoadFloodplain(ctx context.Context, year domain.Year) (*geojson.FeatureCollection, error) {
	query := fmt.Sprintf(`
		SELECT ST_AsGeoJSON(ST_SimplifyPreserveTopology(geom, %g)) as geometry_json
		FROM floodplains
		WHERE year = $1
		ORDER BY id
	`, FloodplainSimplifyTolerance)

	var rows []featureRow
	if err := r.db.SelectContext(ctx, &rows, query, int(year)); err != nil {
		r.logger.Error("Failed to load floodplain", zap.Int("year", int(year)), zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		f, err := decodeFeature(row.Geometry)
		if err != nil {
			r.logger.Warn("Skipping floodplain polygon", zap.Error(err))
			continue
		}
		fc.Append(f)
	}

	return fc, nil
}
