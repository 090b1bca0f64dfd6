package handler

import (
	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/flood-exposure-viewer/internal/pkg/utils"
	"github.com/flood-exposure-viewer/internal/pkg/validator"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/flood-exposure-viewer/internal/usecase/dto"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ExportHandler обрабатывает фоновые выгрузки CSV
type ExportHandler struct {
	exportUC *usecase.ExportUseCase
	logger   *zap.Logger
}

// NewExportHandler создает новый экземпляр ExportHandler
func NewExportHandler(exportUC *usecase.ExportUseCase, logger *zap.Logger) *ExportHandler {
	return &ExportHandler{
		exportUC: exportUC,
		logger:   logger,
	}
}

// Enqueue godoc
// @Summary Queue CSV export
// @Description Ставит выгрузку в очередь воркера, результат - через GET /exports/{id}
// @Tags Exports
// @Accept json
// @Produce json
// @Param request body dto.ExportRequest true "Муниципалитет и годы"
// @Success 202 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/exports [post]
func (h *ExportHandler) Enqueue(c *fiber.Ctx) error {
	var req dto.ExportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	years := make([]domain.Year, 0, len(req.Years))
	for _, y := range req.Years {
		years = append(years, domain.Year(y))
	}

	record, err := h.exportUC.Enqueue(c.Context(), req.Municipality, years)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendAccepted(c, dto.NewExportResponse(record))
}

// Get godoc
// @Summary Get export status
// @Tags Exports
// @Produce json
// @Param id path string true "Export ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/exports/{id} [get]
func (h *ExportHandler) Get(c *fiber.Ctx) error {
	record, err := h.lookup(c)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, dto.NewExportResponse(record), nil)
}

// Download отдает готовый CSV
func (h *ExportHandler) Download(c *fiber.Ctx) error {
	record, err := h.lookup(c)
	if err != nil {
		return utils.SendError(c, err)
	}

	switch record.Status {
	case domain.ExportStatusReady:
		return utils.SendCSV(c, record.Filename, record.Content)
	case domain.ExportStatusFailed:
		return utils.SendError(c, errors.ErrExportFailed.WithDetails(map[string]interface{}{
			"reason": record.Error,
		}))
	default:
		return utils.SendError(c, errors.ErrExportNotReady)
	}
}

func (h *ExportHandler) lookup(c *fiber.Ctx) (*domain.ExportRecord, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return nil, errors.ErrExportNotFound
	}
	return h.exportUC.Get(c.Context(), id)
}
