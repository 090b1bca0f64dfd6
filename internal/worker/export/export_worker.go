package export

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/domain/repository"
	"github.com/flood-exposure-viewer/internal/worker"
	"go.uber.org/zap"
)

// Processor строит CSV по запросу выгрузки
type Processor interface {
	Process(ctx context.Context, event domain.ExportRequestEvent) domain.ExportDoneEvent
}

// StreamMetrics считает обработанные сообщения стрима
type StreamMetrics interface {
	ObserveStreamMessage(stream string, err error)
}

type noopMetrics struct{}

func (noopMetrics) ObserveStreamMessage(string, error) {}

// ExportWorker читает stream:export:request и публикует результаты в stream:export:done
type ExportWorker struct {
	*worker.BaseWorker
	streamRepo    repository.StreamRepository
	processor     Processor
	metrics       StreamMetrics
	consumerName  string
	exportTimeout time.Duration
}

// NewExportWorker создает новый ExportWorker. metrics может быть nil.
func NewExportWorker(
	streamRepo repository.StreamRepository,
	processor Processor,
	consumerGroup string,
	exportTimeout time.Duration,
	metrics StreamMetrics,
	logger *zap.Logger,
) *ExportWorker {
	hostname, _ := os.Hostname()
	consumerName := fmt.Sprintf("%s-%d", hostname, os.Getpid())

	if metrics == nil {
		metrics = noopMetrics{}
	}
	if exportTimeout <= 0 {
		exportTimeout = 30 * time.Second
	}

	return &ExportWorker{
		BaseWorker:    worker.NewBaseWorker("csv-export", consumerGroup, logger),
		streamRepo:    streamRepo,
		processor:     processor,
		metrics:       metrics,
		consumerName:  consumerName,
		exportTimeout: exportTimeout,
	}
}

// Start запускает воркер
func (w *ExportWorker) Start(ctx context.Context) error {
	logger := w.Logger()
	logger.Info("Starting ExportWorker",
		zap.String("consumer_group", w.ConsumerGroup()),
		zap.String("consumer_name", w.consumerName))

	// Создаем consumer group
	if err := w.streamRepo.CreateConsumerGroup(ctx, domain.StreamExportRequest, w.ConsumerGroup()); err != nil {
		logger.Error("Failed to create consumer group", zap.Error(err))
		return fmt.Errorf("failed to create consumer group: %w", err)
	}

	runCtx, cancel := w.Context(ctx)
	defer cancel()

	messages, err := w.streamRepo.ConsumeStream(runCtx, domain.StreamExportRequest, w.ConsumerGroup(), w.consumerName)
	if err != nil {
		return fmt.Errorf("failed to consume stream: %w", err)
	}

	// Основной цикл обработки
	for {
		select {
		case <-w.StopChan():
			logger.Info("Worker stopped")
			return nil

		case <-ctx.Done():
			logger.Info("Context cancelled")
			return ctx.Err()

		case msg, ok := <-messages:
			if !ok {
				if w.IsStopped() {
					return nil
				}
				return ctx.Err()
			}
			w.handle(runCtx, msg)
		}
	}
}

// handle обрабатывает одно сообщение. Сообщение подтверждается всегда:
// результат ошибки сохраняется в записи выгрузки, повтор не поможет.
func (w *ExportWorker) handle(ctx context.Context, msg domain.StreamMessage) {
	logger := w.Logger().With(zap.String("message_id", msg.ID))

	event, err := parseMessage(msg)
	if err != nil {
		logger.Warn("Failed to parse message, skipping", zap.Error(err))
		w.metrics.ObserveStreamMessage(domain.StreamExportRequest, err)
		w.ack(ctx, msg.ID)
		return
	}

	exportCtx, cancel := context.WithTimeout(ctx, w.exportTimeout)
	done := w.processor.Process(exportCtx, *event)
	cancel()

	if err := w.streamRepo.PublishToStream(ctx, domain.StreamExportDone, done); err != nil {
		logger.Error("Failed to publish done event",
			zap.String("request_id", event.RequestID.String()),
			zap.Error(err))
	}

	var procErr error
	if done.Status == domain.ExportStatusFailed {
		procErr = fmt.Errorf("export failed: %s", done.Error)
	}
	w.metrics.ObserveStreamMessage(domain.StreamExportRequest, procErr)

	w.ack(ctx, msg.ID)

	logger.Info("Export request processed",
		zap.String("request_id", event.RequestID.String()),
		zap.String("status", string(done.Status)),
		zap.Int("rows", done.Rows))
}

func (w *ExportWorker) ack(ctx context.Context, messageID string) {
	if err := w.streamRepo.AckMessage(ctx, domain.StreamExportRequest, w.ConsumerGroup(), messageID); err != nil {
		// Не критично - сообщение будет переобработано
		w.Logger().Error("Failed to ack message", zap.String("message_id", messageID), zap.Error(err))
	}
}

// parseMessage парсит сообщение из стрима в ExportRequestEvent
func parseMessage(msg domain.StreamMessage) (*domain.ExportRequestEvent, error) {
	if msg.Data == "" {
		return nil, fmt.Errorf("empty message payload")
	}

	var event domain.ExportRequestEvent
	if err := json.Unmarshal([]byte(msg.Data), &event); err != nil {
		return nil, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if event.Municipality == "" {
		return nil, fmt.Errorf("event %s has no municipality", event.RequestID)
	}

	return &event, nil
}
