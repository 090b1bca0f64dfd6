package worker

import (
	"context"
)

// Worker - фоновая задача сервиса: загрузчик данных, уборщик сессий или потребитель стрима
type Worker interface {
	// Start запускает воркер и блокируется до остановки или завершения работы
	Start(ctx context.Context) error

	// Stop сигнализирует воркеру о завершении
	Stop() error

	// Name возвращает имя воркера
	Name() string
}
