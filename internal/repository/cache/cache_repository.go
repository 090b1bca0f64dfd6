package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ключи кеша
const (
	keyGroundTruth = "ground_truth:current"
	keyStats       = "stats:current"
	keyExportFmt   = "export:%s"
)

// ExportKey возвращает ключ фоновой выгрузки
func ExportKey(id uuid.UUID) string {
	return fmt.Sprintf(keyExportFmt, id.String())
}

type cacheRepository struct {
	client *redis.Client
	logger *zap.Logger
}

func NewCacheRepository(redis *Redis) repository.CacheRepository {
	return &cacheRepository{
		client: redis.Client(),
		logger: redis.logger,
	}
}

func (r *cacheRepository) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil // Cache miss
	}
	if err != nil {
		r.logger.Error("Failed to get from cache", zap.String("key", key), zap.Error(err))
		return nil, fmt.Errorf("cache get error: %w", err)
	}

	r.logger.Debug("Cache hit", zap.String("key", key))
	return val, nil
}

func (r *cacheRepository) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := r.client.Set(ctx, key, value, ttl).Err()
	if err != nil {
		r.logger.Error("Failed to set cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache set error: %w", err)
	}

	r.logger.Debug("Cache set", zap.String("key", key), zap.Duration("ttl", ttl))
	return nil
}

func (r *cacheRepository) Delete(ctx context.Context, key string) error {
	err := r.client.Del(ctx, key).Err()
	if err != nil {
		r.logger.Error("Failed to delete from cache", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("cache delete error: %w", err)
	}

	r.logger.Debug("Cache deleted", zap.String("key", key))
	return nil
}

func (r *cacheRepository) Exists(ctx context.Context, key string) (bool, error) {
	val, err := r.client.Exists(ctx, key).Result()
	if err != nil {
		r.logger.Error("Failed to check cache existence", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("cache exists error: %w", err)
	}

	return val > 0, nil
}

// GetGroundTruth получает эталонные итоги. nil, nil при промахе.
func (r *cacheRepository) GetGroundTruth(ctx context.Context) (domain.GroundTruth, error) {
	var totals domain.GroundTruth
	found, err := r.getJSON(ctx, keyGroundTruth, &totals)
	if err != nil || !found {
		return nil, err
	}
	return totals, nil
}

func (r *cacheRepository) SetGroundTruth(ctx context.Context, totals domain.GroundTruth, ttl time.Duration) error {
	return r.setJSON(ctx, keyGroundTruth, totals, ttl)
}

// GetExport получает фоновую выгрузку. nil, nil если ее нет или TTL истек.
func (r *cacheRepository) GetExport(ctx context.Context, id uuid.UUID) (*domain.ExportRecord, error) {
	var record domain.ExportRecord
	found, err := r.getJSON(ctx, ExportKey(id), &record)
	if err != nil || !found {
		return nil, err
	}
	return &record, nil
}

func (r *cacheRepository) SetExport(ctx context.Context, record *domain.ExportRecord, ttl time.Duration) error {
	return r.setJSON(ctx, ExportKey(record.RequestID), record, ttl)
}

// GetStats получает статистику из кеша
func (r *cacheRepository) GetStats(ctx context.Context) (*domain.Statistics, error) {
	var stats domain.Statistics
	found, err := r.getJSON(ctx, keyStats, &stats)
	if err != nil || !found {
		return nil, err
	}
	return &stats, nil
}

// SetStats сохраняет статистику в кеше
func (r *cacheRepository) SetStats(ctx context.Context, stats *domain.Statistics, ttl time.Duration) error {
	return r.setJSON(ctx, keyStats, stats, ttl)
}

func (r *cacheRepository) getJSON(ctx context.Context, key string, dst interface{}) (bool, error) {
	data, err := r.Get(ctx, key)
	if err != nil {
		return false, err
	}
	if data == nil {
		return false, nil
	}

	if err := json.Unmarshal(data, dst); err != nil {
		r.logger.Error("Failed to unmarshal cached value", zap.String("key", key), zap.Error(err))
		return false, fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return true, nil
}

func (r *cacheRepository) setJSON(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	data, err := json.Marshal(value)
	if err != nil {
		r.logger.Error("Failed to marshal cache value", zap.String("key", key), zap.Error(err))
		return fmt.Errorf("marshal %s: %w", key, err)
	}

	return r.Set(ctx, key, data, ttl)
}
