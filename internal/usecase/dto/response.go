package dto

import (
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/google/uuid"
)

// CategoriesResponse - реестр категорий
type CategoriesResponse struct {
	Categories []domain.CategoryMetadata `json:"categories"`
}

// MunicipalitiesResponse - справочник муниципалитетов
type MunicipalitiesResponse struct {
	Municipalities []domain.Municipality `json:"municipalities"`
}

// MethodologyResponse - текст методики
type MethodologyResponse struct {
	Text string `json:"text"`
}

// HealthResponse - состояние сервиса
type HealthResponse struct {
	Status            string            `json:"status"`
	Time              time.Time         `json:"time"`
	Sessions          int               `json:"sessions"`
	BoundariesLoaded  bool              `json:"boundaries_loaded"`
	GroundTruthLoaded bool              `json:"ground_truth_loaded"`
	Dependencies      map[string]string `json:"dependencies,omitempty"`
}

// ExportResponse - состояние фоновой выгрузки без содержимого
type ExportResponse struct {
	ID           uuid.UUID           `json:"id"`
	Status       domain.ExportStatus `json:"status"`
	Municipality string              `json:"municipality"`
	Years        []domain.Year       `json:"years"`
	Filename     string              `json:"filename,omitempty"`
	Rows         int                 `json:"rows"`
	Error        string              `json:"error,omitempty"`
	UpdatedAt    time.Time           `json:"updated_at"`
	DownloadURL  string              `json:"download_url,omitempty"`
}

// NewExportResponse собирает ответ по записи выгрузки
func NewExportResponse(r *domain.ExportRecord) ExportResponse {
	resp := ExportResponse{
		ID:           r.RequestID,
		Status:       r.Status,
		Municipality: r.Municipality,
		Years:        r.Years,
		Filename:     r.Filename,
		Rows:         r.Rows,
		Error:        r.Error,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.Status == domain.ExportStatusReady {
		resp.DownloadURL = "/api/v1/exports/" + r.RequestID.String() + "/download"
	}
	return resp
}
