package session

import (
	"context"
	"time"

	"github.com/flood-exposure-viewer/internal/worker"
	"go.uber.org/zap"
)

// Sweeper закрывает сессии без активности
type Sweeper interface {
	Sweep(now time.Time) int
}

// SweeperWorker периодически убирает простаивающие сессии
type SweeperWorker struct {
	*worker.BaseWorker
	sessions Sweeper
	interval time.Duration
	now      func() time.Time
}

// NewSweeperWorker создает новый SweeperWorker
func NewSweeperWorker(sessions Sweeper, interval time.Duration, logger *zap.Logger) *SweeperWorker {
	if interval <= 0 {
		interval = time.Minute
	}
	return &SweeperWorker{
		BaseWorker: worker.NewBaseWorker("session-sweeper", "", logger),
		sessions:   sessions,
		interval:   interval,
		now:        time.Now,
	}
}

// Start запускает воркер
func (w *SweeperWorker) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.StopChan():
			return nil
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if n := w.sessions.Sweep(w.now()); n > 0 {
				w.Logger().Info("Idle sessions closed", zap.Int("count", n))
			}
		}
	}
}
