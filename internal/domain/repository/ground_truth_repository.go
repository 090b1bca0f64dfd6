package repository

import (
	"context"

	"github.com/flood-exposure-viewer/internal/domain"
)

// GroundTruthRepository определяет методы загрузки эталонных итогов
type GroundTruthRepository interface {
	// LoadGroundTruth возвращает итоги по муниципалитетам и категориям
	LoadGroundTruth(ctx context.Context) (domain.GroundTruth, error)
}
