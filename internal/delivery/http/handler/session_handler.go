package handler

import (
	"context"
	"strings"
	"time"

	"github.com/flood-exposure-viewer/internal/domain"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/flood-exposure-viewer/internal/pkg/utils"
	"github.com/flood-exposure-viewer/internal/pkg/validator"
	"github.com/flood-exposure-viewer/internal/usecase"
	"github.com/flood-exposure-viewer/internal/usecase/dto"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// SessionHandler обрабатывает запросы сессий просмотра карты
type SessionHandler struct {
	sessions   *usecase.SessionManager
	legendWait time.Duration
	logger     *zap.Logger
}

// NewSessionHandler создает новый экземпляр SessionHandler.
// legendWait - сколько мутация ждет пересчитанную легенду.
func NewSessionHandler(sessions *usecase.SessionManager, legendWait time.Duration, logger *zap.Logger) *SessionHandler {
	return &SessionHandler{
		sessions:   sessions,
		legendWait: legendWait,
		logger:     logger,
	}
}

// Create godoc
// @Summary Create viewer session
// @Description Открывает сессию просмотра: год, муниципалитет, скрытые категории и размер окна
// @Tags Sessions
// @Accept json
// @Produce json
// @Param request body dto.CreateSessionRequest false "Начальный выбор"
// @Success 201 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Failure 503 {object} utils.ErrorResponse
// @Router /api/v1/sessions [post]
func (h *SessionHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateSessionRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&req); err != nil {
			return utils.SendError(c, errors.ErrInvalidRequest)
		}
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	params := usecase.CreateSessionParams{
		Year:         domain.Year(req.Year),
		Municipality: req.Municipality,
	}
	for _, code := range req.Hidden {
		params.Hidden = append(params.Hidden, parseCategory(code))
	}
	if req.Viewport != nil {
		params.Viewport = domain.Viewport{Width: req.Viewport.Width, Height: req.Viewport.Height}
	}

	s, err := h.sessions.Create(params)
	if err != nil {
		return utils.SendError(c, err)
	}

	state, pending, err := h.awaitLegend(c, s, 0)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendCreated(c, state, &utils.Meta{
		Revision: state.Legend.Revision,
		Pending:  pending,
	})
}

// Get godoc
// @Summary Get session state
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} utils.SuccessResponse
// @Failure 404 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id} [get]
func (h *SessionHandler) Get(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	state, err := s.State(c.Context())
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, state, &utils.Meta{Revision: state.Legend.Revision})
}

// Delete закрывает сессию
func (h *SessionHandler) Delete(c *fiber.Ctx) error {
	if err := h.sessions.Delete(c.Params("id")); err != nil {
		return utils.SendError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// SetYear godoc
// @Summary Switch scenario year
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SetYearRequest true "Год"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/year [put]
func (h *SessionHandler) SetYear(c *fiber.Ctx) error {
	var req dto.SetYearRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}
	return h.dispatch(c, domain.SetYear{Year: domain.Year(req.Year)})
}

// SetMunicipality godoc
// @Summary Switch municipality
// @Tags Sessions
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param request body dto.SetMunicipalityRequest true "Муниципалитет (свойство MUN)"
// @Success 200 {object} utils.SuccessResponse
// @Failure 400 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/municipality [put]
func (h *SessionHandler) SetMunicipality(c *fiber.Ctx) error {
	var req dto.SetMunicipalityRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}
	return h.dispatch(c, domain.SetMunicipality{Municipality: domain.NormalizeMunicipality(req.Municipality)})
}

// ToggleCategory переключает видимость категории. Код может быть и вне реестра.
func (h *SessionHandler) ToggleCategory(c *fiber.Ctx) error {
	return h.dispatch(c, domain.ToggleCategory{Category: parseCategory(c.Params("code"))})
}

// Resize сохраняет размер окна клиента для подгонки камеры
func (h *SessionHandler) Resize(c *fiber.Ctx) error {
	var req dto.ViewportRequest
	if err := c.BodyParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidRequest)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, err)
	}

	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	state, err := s.Dispatch(c.Context(), domain.Resize{
		Viewport: domain.Viewport{Width: req.Width, Height: req.Height},
	})
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, state, &utils.Meta{Revision: state.Legend.Revision})
}

// Legend godoc
// @Summary Get legend
// @Description Легенда сессии. С параметром after ждет ревизию новее указанной.
// @Tags Sessions
// @Produce json
// @Param id path string true "Session ID"
// @Param after query int false "Последняя известная ревизия"
// @Success 200 {object} utils.SuccessResponse
// @Router /api/v1/sessions/{id}/legend [get]
func (h *SessionHandler) Legend(c *fiber.Ctx) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	after := c.QueryInt("after", 0)
	state, pending, err := h.awaitLegend(c, s, after)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, state.Legend, &utils.Meta{
		Revision: state.Legend.Revision,
		Pending:  pending,
	})
}

// Hover показывает подсказку над объектом под курсором
func (h *SessionHandler) Hover(c *fiber.Ctx) error {
	var req dto.HoverRequest
	if err := c.QueryParser(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}
	if err := validator.Validate(&req); err != nil {
		return utils.SendError(c, errors.ErrInvalidCoordinates)
	}

	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	popup, err := s.Hover(c.Context(), req.Lon, req.Lat)
	if err != nil {
		return utils.SendError(c, err)
	}
	return utils.SendSuccess(c, fiber.Map{"popup": popup}, nil)
}

// Export godoc
// @Summary Download exposed assets CSV
// @Description CSV по активному муниципалитету. Без years - только активный год.
// @Tags Sessions
// @Produce text/csv
// @Param id path string true "Session ID"
// @Param years query string false "Годы через запятую, например 2025,2050"
// @Success 200 {file} file
// @Failure 422 {object} utils.ErrorResponse
// @Router /api/v1/sessions/{id}/export.csv [get]
func (h *SessionHandler) Export(c *fiber.Ctx) error {
	years, err := parseYears(c.Query("years"))
	if err != nil {
		return utils.SendError(c, err)
	}

	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	file, err := s.Export(c.Context(), years)
	if err != nil {
		if appErr, ok := errors.As(err); !ok || appErr.StatusCode >= fiber.StatusInternalServerError {
			h.logger.Error("Export failed", zap.String("session_id", c.Params("id")), zap.Error(err))
		}
		return utils.SendError(c, err)
	}

	return utils.SendCSV(c, file.Filename, file.Content)
}

func (h *SessionHandler) dispatch(c *fiber.Ctx, cmd domain.Command) error {
	s, err := h.sessions.Get(c.Params("id"))
	if err != nil {
		return utils.SendError(c, err)
	}

	before, err := s.Dispatch(c.Context(), cmd)
	if err != nil {
		return utils.SendError(c, err)
	}

	state, pending, err := h.awaitLegend(c, s, before.Legend.Revision)
	if err != nil {
		return utils.SendError(c, err)
	}

	return utils.SendSuccess(c, state, &utils.Meta{
		Revision: state.Legend.Revision,
		Pending:  pending,
	})
}

func (h *SessionHandler) awaitLegend(c *fiber.Ctx, s *usecase.Session, after int) (usecase.SessionState, bool, error) {
	ctx, cancel := context.WithTimeout(c.Context(), h.legendWait)
	defer cancel()
	return s.WaitLegend(ctx, after)
}

func parseCategory(code string) domain.Category {
	if c, ok := domain.ParseCategory(code); ok {
		return c
	}
	return domain.Category(strings.ToUpper(strings.TrimSpace(code)))
}

func parseYears(raw string) ([]domain.Year, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var years []domain.Year
	for _, part := range strings.Split(raw, ",") {
		y, err := domain.ParseYear(strings.TrimSpace(part))
		if err != nil {
			return nil, errors.ErrInvalidYear
		}
		years = append(years, y)
	}
	return years, nil
}
