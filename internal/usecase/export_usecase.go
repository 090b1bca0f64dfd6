package usecase

import (
	"context"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportUseCase ставит фоновые выгрузки в очередь и обрабатывает их
type ExportUseCase struct {
	sessions   *SessionManager
	streamRepo repository.StreamRepository
	cacheRepo  repository.CacheRepository
	ttl        time.Duration
	logger     *zap.Logger
}

// NewExportUseCase создает новый экземпляр ExportUseCase.
// Без streamRepo и cacheRepo фоновые выгрузки недоступны.
func NewExportUseCase(
	sessions *SessionManager,
	streamRepo repository.StreamRepository,
	cacheRepo repository.CacheRepository,
	ttl time.Duration,
	logger *zap.Logger,
) *ExportUseCase {
	return &ExportUseCase{
		sessions:   sessions,
		streamRepo: streamRepo,
		cacheRepo:  cacheRepo,
		ttl:        ttl,
		logger:     logger,
	}
}

// Enabled сообщает, доступна ли очередь выгрузок
func (uc *ExportUseCase) Enabled() bool {
	return uc.streamRepo != nil && uc.cacheRepo != nil
}

// Enqueue сохраняет запись pending и публикует запрос в стрим
func (uc *ExportUseCase) Enqueue(ctx context.Context, municipality string, years []domain.Year) (*domain.ExportRecord, error) {
	if !uc.Enabled() {
		return nil, errors.ErrExportQueueUnavailable
	}

	mun := domain.NormalizeMunicipality(municipality)
	if mun == "" {
		return nil, errors.ErrInvalidMunicipality
	}
	for _, y := range years {
		if !y.Valid() {
			return nil, errors.ErrInvalidYear
		}
	}
	years = domain.NormalizeYears(years)
	if len(years) == 0 {
		years = []domain.Year{domain.DefaultYear}
	}

	now := time.Now().UTC()
	record := &domain.ExportRecord{
		RequestID:    uuid.New(),
		Status:       domain.ExportStatusPending,
		Municipality: mun,
		Years:        years,
		UpdatedAt:    now,
	}
	if err := uc.cacheRepo.SetExport(ctx, record, uc.ttl); err != nil {
		return nil, errors.ErrCacheError.WithDetails(map[string]interface{}{"reason": err.Error()})
	}

	event := domain.ExportRequestEvent{
		RequestID:    record.RequestID,
		Municipality: mun,
		Years:        years,
		RequestedAt:  now,
	}
	if err := uc.streamRepo.PublishToStream(ctx, domain.StreamExportRequest, event); err != nil {
		return nil, errors.ErrExportQueueUnavailable.WithDetails(map[string]interface{}{"reason": err.Error()})
	}

	uc.logger.Info("Export enqueued",
		zap.String("request_id", record.RequestID.String()),
		zap.String("municipality", mun),
		zap.Int("years", len(years)))

	return record, nil
}

// Get возвращает запись выгрузки
func (uc *ExportUseCase) Get(ctx context.Context, id uuid.UUID) (*domain.ExportRecord, error) {
	if uc.cacheRepo == nil {
		return nil, errors.ErrExportQueueUnavailable
	}

	record, err := uc.cacheRepo.GetExport(ctx, id)
	if err != nil {
		return nil, errors.ErrCacheError.WithDetails(map[string]interface{}{"reason": err.Error()})
	}
	if record == nil {
		return nil, errors.ErrExportNotFound
	}
	return record, nil
}

// Process строит CSV во временной сессии и сохраняет результат
func (uc *ExportUseCase) Process(ctx context.Context, event domain.ExportRequestEvent) domain.ExportDoneEvent {
	logger := uc.logger.With(zap.String("request_id", event.RequestID.String()))

	years := domain.NormalizeYears(event.Years)
	if len(years) == 0 {
		years = []domain.Year{domain.DefaultYear}
	}

	record := &domain.ExportRecord{
		RequestID:    event.RequestID,
		Municipality: event.Municipality,
		Years:        years,
	}

	file, err := uc.build(ctx, event.Municipality, years)
	record.UpdatedAt = time.Now().UTC()
	if err != nil {
		record.Status = domain.ExportStatusFailed
		record.Error = err.Error()
		logger.Warn("Export failed", zap.Error(err))
	} else {
		record.Status = domain.ExportStatusReady
		record.Filename = file.Filename
		record.Rows = file.Rows
		record.Content = file.Content
		logger.Info("Export ready",
			zap.String("filename", file.Filename),
			zap.Int("rows", file.Rows))
	}

	if uc.cacheRepo != nil {
		if err := uc.cacheRepo.SetExport(ctx, record, uc.ttl); err != nil {
			logger.Error("Failed to store export", zap.Error(err))
		}
	}

	return domain.ExportDoneEvent{
		RequestID: record.RequestID,
		Status:    record.Status,
		Filename:  record.Filename,
		Rows:      record.Rows,
		Error:     record.Error,
	}
}

func (uc *ExportUseCase) build(ctx context.Context, municipality string, years []domain.Year) (*ExportFile, error) {
	sel := domain.NewSelection(years[0], municipality)
	s := uc.sessions.Detached(ctx, sel)
	defer s.Close()

	return s.Export(ctx, years)
}
