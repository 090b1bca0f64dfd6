package repository

import (
	"context"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/google/uuid"
)

// CacheRepository определяет методы для работы с кешем
type CacheRepository interface {
	// Get получает значение из кеша по ключу
	Get(ctx context.Context, key string) ([]byte, error)

	// Set сохраняет значение в кеше с TTL
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete удаляет значение из кеша
	Delete(ctx context.Context, key string) error

	// Exists проверяет существование ключа
	Exists(ctx context.Context, key string) (bool, error)

	// GetGroundTruth получает эталонные итоги из кеша
	GetGroundTruth(ctx context.Context) (domain.GroundTruth, error)

	// SetGroundTruth сохраняет эталонные итоги в кеше
	SetGroundTruth(ctx context.Context, totals domain.GroundTruth, ttl time.Duration) error

	// GetExport получает фоновую выгрузку
	GetExport(ctx context.Context, id uuid.UUID) (*domain.ExportRecord, error)

	// SetExport сохраняет фоновую выгрузку
	SetExport(ctx context.Context, record *domain.ExportRecord, ttl time.Duration) error

	// GetStats получает статистику наборов данных
	GetStats(ctx context.Context) (*domain.Statistics, error)

	// SetStats сохраняет статистику наборов данных
	SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error
}
