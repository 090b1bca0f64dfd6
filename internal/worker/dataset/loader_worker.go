package dataset

import (
	"context"
	"sync"
	"time"

	"github.com/flood-exposure-viewer/internal/worker"
	"go.uber.org/zap"
)

// Loader загружает наборы данных, которые приходят после старта сессий
type Loader interface {
	LoadBoundaries(ctx context.Context) error
	LoadGroundTruth(ctx context.Context) error
}

// LoaderWorker загружает границы и эталонные итоги в фоне.
// Загрузки независимы: ошибка одной не мешает другой.
type LoaderWorker struct {
	*worker.BaseWorker
	loader      Loader
	maxAttempts int
	retryDelay  time.Duration
}

// NewLoaderWorker создает новый LoaderWorker
func NewLoaderWorker(loader Loader, maxAttempts int, retryDelay time.Duration, logger *zap.Logger) *LoaderWorker {
	return &LoaderWorker{
		BaseWorker:  worker.NewBaseWorker("dataset-loader", "", logger),
		loader:      loader,
		maxAttempts: maxAttempts,
		retryDelay:  retryDelay,
	}
}

// Start загружает данные и завершается. Ошибки загрузки только логируются:
// сессии продолжают работать без bounds или без эталонных итогов.
func (w *LoaderWorker) Start(ctx context.Context) error {
	runCtx, cancel := w.Context(ctx)
	defer cancel()

	var wg sync.WaitGroup
	run := func(op string, fn func(context.Context) error) {
		defer wg.Done()
		if err := w.Retry(runCtx, op, w.maxAttempts, w.retryDelay, fn); err != nil {
			w.Logger().Error("Dataset load failed", zap.String("operation", op), zap.Error(err))
		}
	}

	wg.Add(2)
	go run("load_boundaries", w.loader.LoadBoundaries)
	go run("load_ground_truth", w.loader.LoadGroundTruth)
	wg.Wait()

	return nil
}
