package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"
	"github.com/paulmach/orb/geojson"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
)

type boundaryRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewBoundaryRepository создает новый экземпляр BoundaryRepository
func NewBoundaryRepository(db *DB) repository.BoundaryRepository {
	return &boundaryRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type boundaryRow struct {
	featureRow
	Municipality string `db:"mun"`
}

// LoadBoundaries возвращает полигоны муниципалитетов
func (r *boundaryRepository) LoadBoundaries(ctx context.Context) (*geojson.FeatureCollection, error) {
	query := `
		SELECT mun, ST_AsGeoJSON(geom) as geometry_json
		FROM municipal_boundaries
		ORDER BY mun
	`

	var rows []boundaryRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("Failed to load boundaries", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	fc := geojson.NewFeatureCollection()
	for _, row := range rows {
		f, err := decodeFeature(row.Geometry)
		if err != nil {
			r.logger.Warn("Skipping boundary", zap.String("mun", row.Municipality), zap.Error(err))
			continue
		}
		f.Properties[domain.PropMunicipality] = row.Municipality
		fc.Append(f)
	}

	return fc, nil
}
