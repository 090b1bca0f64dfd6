package usecase

import (
	"context"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
)

// StreamChangePublisher публикует смену сценария в Redis Stream
type StreamChangePublisher struct {
	streamRepo repository.StreamRepository
}

// NewStreamChangePublisher создает новый экземпляр StreamChangePublisher
func NewStreamChangePublisher(streamRepo repository.StreamRepository) *StreamChangePublisher {
	return &StreamChangePublisher{streamRepo: streamRepo}
}

// PublishScenarioChange реализует ChangePublisher
func (p *StreamChangePublisher) PublishScenarioChange(ctx context.Context, event domain.ScenarioChangedEvent) error {
	return p.streamRepo.PublishToStream(ctx, domain.StreamScenarioChanged, event)
}
