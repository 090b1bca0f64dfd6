package postgres

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
)

type groundTruthRepository struct {
	db     *sqlx.DB
	logger *zap.Logger
}

// NewGroundTruthRepository создает новый экземпляр GroundTruthRepository
func NewGroundTruthRepository(db *DB) repository.GroundTruthRepository {
	return &groundTruthRepository{
		db:     db.DB,
		logger: db.logger,
	}
}

type assetTotalRow struct {
	Municipality string          `db:"mun"`
	Category     string          `db:"asset"`
	Total        int             `db:"total"`
	Percent      sql.NullFloat64 `db:"percent"`
}

// LoadGroundTruth возвращает эталонные итоги по муниципалитетам
func (r *groundTruthRepository) LoadGroundTruth(ctx context.Context) (domain.GroundTruth, error) {
	query := `
		SELECT mun, asset, total, percent
		FROM asset_totals
		WHERE total >= 0
	`

	var rows []assetTotalRow
	if err := r.db.SelectContext(ctx, &rows, query); err != nil {
		r.logger.Error("Failed to load asset totals", zap.Error(err))
		return nil, errors.ErrDatabaseError
	}

	totals := make(domain.GroundTruth)
	for _, row := range rows {
		totals.Set(
			domain.NormalizeMunicipality(row.Municipality),
			domain.Category(row.Category),
			domain.GroundTruthTotal{
				Total:      row.Total,
				Percent:    row.Percent.Float64,
				HasPercent: row.Percent.Valid,
			},
		)
	}

	return totals, nil
}
