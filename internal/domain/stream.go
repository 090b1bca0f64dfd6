package domain

import (
	"time"

	"github.com/google/uuid"
)

// Stream names
const (
	StreamExportRequest   = "stream:export:request"
	StreamExportDone      = "stream:export:done"
	StreamScenarioChanged = "stream:scenario:changed"
)

// ScenarioChangedEvent - выбор сценария в сессии изменился
type ScenarioChangedEvent struct {
	SessionID uuid.UUID `json:"session_id"`
	Command   string    `json:"command"`
	Selection Selection `json:"selection"`
	ChangedAt time.Time `json:"changed_at"`
}

// ExportRequestEvent - входящее событие на построение CSV
type ExportRequestEvent struct {
	RequestID    uuid.UUID `json:"request_id"`
	Municipality string    `json:"municipality"`
	Years        []Year    `json:"years"`
	RequestedAt  time.Time `json:"requested_at"`
}

// HasYear проверяет, запрошен ли год
func (e *ExportRequestEvent) HasYear(y Year) bool {
	for _, ry := range e.Years {
		if ry == y {
			return true
		}
	}
	return false
}

// ExportStatus - состояние фоновой выгрузки
type ExportStatus string

const (
	ExportStatusPending ExportStatus = "pending"
	ExportStatusReady   ExportStatus = "ready"
	ExportStatusFailed  ExportStatus = "failed"
)

// ExportDoneEvent - результат фоновой выгрузки
type ExportDoneEvent struct {
	RequestID uuid.UUID    `json:"request_id"`
	Status    ExportStatus `json:"status"`
	Filename  string       `json:"filename,omitempty"`
	Rows      int          `json:"rows"`
	Error     string       `json:"error,omitempty"`
}

// ExportRecord - выгрузка, сохраненная в кеше
type ExportRecord struct {
	RequestID    uuid.UUID    `json:"request_id"`
	Status       ExportStatus `json:"status"`
	Municipality string       `json:"municipality"`
	Years        []Year       `json:"years"`
	Filename     string       `json:"filename,omitempty"`
	Rows         int          `json:"rows"`
	Content      []byte       `json:"content,omitempty"`
	Error        string       `json:"error,omitempty"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// StreamMessage - сообщение из Redis Stream
type StreamMessage struct {
	ID   string
	Data string
}
