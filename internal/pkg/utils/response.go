package utils

import (
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/gofiber/fiber/v2"
)

// SuccessResponse - конверт успешного ответа
type SuccessResponse struct {
	Data interface{} `json:"data"`
	Meta *Meta       `json:"meta,omitempty"`
}

// ErrorResponse - конверт ошибки
type ErrorResponse struct {
	Error *errors.AppError `json:"error"`
}

// Meta - служебные поля ответа. Revision и Pending относятся к легенде сессии.
type Meta struct {
	Total    int     `json:"total,omitempty"`
	Revision int     `json:"revision,omitempty"`
	Pending  bool    `json:"pending,omitempty"`
	TimeMSec float64 `json:"time_ms,omitempty"`
}

func SendSuccess(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return send(c, fiber.StatusOK, data, meta)
}

func SendCreated(c *fiber.Ctx, data interface{}, meta *Meta) error {
	return send(c, fiber.StatusCreated, data, meta)
}

// SendAccepted отвечает на запрос, поставленный в очередь
func SendAccepted(c *fiber.Ctx, data interface{}) error {
	return send(c, fiber.StatusAccepted, data, nil)
}

// SendError отдает AppError с его статусом, остальное как 500
func SendError(c *fiber.Ctx, err error) error {
	appErr, ok := errors.As(err)
	if !ok {
		appErr = errors.ErrInternalServer
	}
	return c.Status(appErr.StatusCode).JSON(ErrorResponse{Error: appErr})
}

// SendCSV отдает CSV как вложение
func SendCSV(c *fiber.Ctx, filename string, content []byte) error {
	c.Set(fiber.HeaderContentType, "text/csv; charset=utf-8")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(content)
}

func send(c *fiber.Ctx, status int, data interface{}, meta *Meta) error {
	return c.Status(status).JSON(SuccessResponse{
		Data: data,
		Meta: meta,
	})
}
