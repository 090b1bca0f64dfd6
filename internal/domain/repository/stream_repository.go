package repository

import (
	"context"

	"github.com/flood-exposure-viewer/internal/domain"
)

// StreamRepository - очередь выгрузок и события смены сценария поверх Redis Streams.
// Имена стримов объявлены в domain (StreamExportRequest, StreamExportDone, StreamScenarioChanged).
type StreamRepository interface {
	// CreateConsumerGroup идемпотентна, существующая группа не ошибка
	CreateConsumerGroup(ctx context.Context, stream, group string) error

	// ConsumeStream сначала отдает неподтвержденные сообщения consumer'а, затем новые.
	// Канал закрывается при отмене ctx.
	ConsumeStream(ctx context.Context, stream, group, consumer string) (<-chan domain.StreamMessage, error)

	AckMessage(ctx context.Context, stream, group, messageID string) error

	// PublishToStream сериализует payload в JSON поле "data"
	PublishToStream(ctx context.Context, stream string, payload interface{}) error
}
