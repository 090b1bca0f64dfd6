package handler

import (
	"context"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/utils"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/flood-exposure-viewer/internal/usecase/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// HealthCheck проверяет внешнюю зависимость
type HealthCheck func(ctx context.Context) error

// CatalogHandler отдает справочники и состояние сервиса
type CatalogHandler struct {
	dataset     *usecase.DatasetUseCase
	sessions    *usecase.SessionManager
	methodology string
	checks      map[string]HealthCheck
	logger      *zap.Logger
}

// NewCatalogHandler создает новый экземпляр CatalogHandler
func NewCatalogHandler(
	dataset *usecase.DatasetUseCase,
	sessions *usecase.SessionManager,
	methodology string,
	checks map[string]HealthCheck,
	logger *zap.Logger,
) *CatalogHandler {
	return &CatalogHandler{
		dataset:     dataset,
		sessions:    sessions,
		methodology: methodology,
		checks:      checks,
		logger:      logger,
	}
}

// Categories godoc
// @Summary List asset categories
// @Description Реестр категорий с цветами и подписями легенды
// @Tags Catalog
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/categories [get]
func (h *CatalogHandler) Categories(c *fiber.Ctx) error {
	categories := domain.Categories()
	return utils.SendSuccess(c, dto.CategoriesResponse{Categories: categories}, &utils.Meta{
		Total: len(categories),
	})
}

// Municipalities godoc
// @Summary List municipalities
// @Description Справочник муниципалитетов, bounds - после загрузки границ
// @Tags Catalog
// @Produce json
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/municipalities [get]
func (h *CatalogHandler) Municipalities(c *fiber.Ctx) error {
	municipalities := h.dataset.Municipalities()
	return utils.SendSuccess(c, dto.MunicipalitiesResponse{Municipalities: municipalities}, &utils.Meta{
		Total: len(municipalities),
	})
}

// Methodology возвращает текст методики
func (h *CatalogHandler) Methodology(c *fiber.Ctx) error {
	return utils.SendSuccess(c, dto.MethodologyResponse{Text: h.methodology}, nil)
}

// Health godoc
// @Summary Health check
// @Tags Catalog
// @Produce json
// @Success 200 {object} dto.HealthResponse
// @Failure 503 {object} dto.HealthResponse
// @Router /api/v1/health [get]
func (h *CatalogHandler) Health(c *fiber.Ctx) error {
	ds := h.dataset.Snapshot()
	resp := dto.HealthResponse{
		Status:            "healthy",
		Time:              time.Now(),
		Sessions:          h.sessions.Count(),
		BoundariesLoaded:  ds.BoundariesLoaded,
		GroundTruthLoaded: ds.GroundTruthLoaded,
	}

	if len(h.checks) > 0 {
		ctx, cancel := context.WithTimeout(c.Context(), 2*time.Second)
		defer cancel()

		resp.Dependencies = make(map[string]string, len(h.checks))
		for name, check := range h.checks {
			if err := check(ctx); err != nil {
				h.logger.Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
				resp.Dependencies[name] = "unavailable"
				resp.Status = "degraded"
				continue
			}
			resp.Dependencies[name] = "ok"
		}
	}

	if resp.Status != "healthy" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}
