package testhelpers

import (
	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/repository/postgres"
)

// NewAssetRepositoryForTest creates an asset repository with test database and logger
func NewAssetRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.AssetRepository {
	return postgres.NewAssetRepository(postgres.NewDBForTest(db, logger))
}

// NewBoundaryRepositoryForTest creates a boundary repository with test database and logger
func NewBoundaryRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.BoundaryRepository {
	return postgres.NewBoundaryRepository(postgres.NewDBForTest(db, logger))
}

// NewGroundTruthRepositoryForTest creates a ground truth repository with test database and logger
func NewGroundTruthRepositoryForTest(db *sqlx.DB, logger *zap.Logger) repository.GroundTruthRepository {
	return postgres.NewGroundTruthRepository(postgres.NewDBForTest(db, logger))
}
