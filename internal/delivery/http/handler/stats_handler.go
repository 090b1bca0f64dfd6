package handler

import (
	"time"

	"github.com/flood-exposure-viewer/internal/pkg/utils"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// StatsHandler отдает сводку по загруженным сценариям
type StatsHandler struct {
	statsUC *usecase.StatsUseCase
	logger  *zap.Logger
}

func NewStatsHandler(statsUC *usecase.StatsUseCase, logger *zap.Logger) *StatsHandler {
	return &StatsHandler{statsUC: statsUC, logger: logger}
}

// GetStatistics godoc
// @Summary Get dataset statistics
// @Description Количество объектов по годам, категориям и муниципалитетам, состояние загрузки границ и итогов
// @Tags Statistics
// @Produce json
// @Success 200 {object} utils.SuccessResponse{data=domain.Statistics}
// @Failure 500 {object} utils.ErrorResponse
// @Router /api/v1/stats [get]
func (h *StatsHandler) GetStatistics(c *fiber.Ctx) error {
	started := time.Now()

	stats, err := h.statsUC.GetStatistics(c.Context())
	if err != nil {
		h.logger.Error("Failed to build statistics", zap.Error(err))
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, stats, &utils.Meta{
		Total:    len(stats.Municipality),
		TimeMSec: float64(time.Since(started).Microseconds()) / 1000,
	})
}
