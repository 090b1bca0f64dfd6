package http

import (
	"context"
	"time"

	"github.com/flood-exposure-viewer/internal/config"
	"github.com/flood-exposure-viewer/internal/delivery/http/handler"
	"github.com/flood-exposure-viewer/internal/delivery/http/middleware"
	"github.com/flood-exposure-viewer/internal/pkg/errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	fiberSwagger "github.com/swaggo/fiber-swagger"
	"go.uber.org/zap"

	_ "github.com/flood-exposure-viewer/docs"
)

// Server - HTTP сервер на основе Fiber
type Server struct {
	app    *fiber.App
	config *config.Config
	logger *zap.Logger

	// Handlers
	sessionHandler *handler.SessionHandler
	catalogHandler *handler.CatalogHandler
	exportHandler  *handler.ExportHandler
	statsHandler   *handler.StatsHandler
	metricsHandler fiber.Handler
}

// NewServer - создание нового HTTP сервера.
// metricsHandler может быть nil, тогда /metrics не регистрируется.
func NewServer(
	cfg *config.Config,
	logger *zap.Logger,
	sessionHandler *handler.SessionHandler,
	catalogHandler *handler.CatalogHandler,
	exportHandler *handler.ExportHandler,
	statsHandler *handler.StatsHandler,
	metricsHandler fiber.Handler,
) *Server {
	app := fiber.New(fiber.Config{
		AppName:      "Flood Exposure Viewer",
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ErrorHandler: customErrorHandler(logger),
	})

	s := &Server{
		app:            app,
		config:         cfg,
		logger:         logger,
		sessionHandler: sessionHandler,
		catalogHandler: catalogHandler,
		exportHandler:  exportHandler,
		statsHandler:   statsHandler,
		metricsHandler: metricsHandler,
	}

	s.setupMiddlewares()
	s.setupRoutes()

	return s
}

// App возвращает fiber приложение, используется в тестах через app.Test
func (s *Server) App() *fiber.App {
	return s.app
}

// setupMiddlewares - настройка middleware
func (s *Server) setupMiddlewares() {
	s.app.Use(middleware.Recovery(s.logger))
	s.app.Use(middleware.Logger(s.logger))
	s.app.Use(middleware.CORS(s.config.Server.CORSOrigins))
	s.app.Use(compress.New(compress.Config{
		Level: compress.LevelBestSpeed,
	}))
}

// setupRoutes - настройка маршрутов
func (s *Server) setupRoutes() {
	// Swagger documentation route
	s.app.Get("/swagger/*", fiberSwagger.WrapHandler)

	if s.metricsHandler != nil {
		s.app.Get("/metrics", s.metricsHandler)
	}

	api := s.app.Group("/api/v1")

	// Catalog
	api.Get("/health", s.catalogHandler.Health)
	api.Get("/categories", s.catalogHandler.Categories)
	api.Get("/municipalities", s.catalogHandler.Municipalities)
	api.Get("/methodology", s.catalogHandler.Methodology)

	// Sessions
	sessions := api.Group("/sessions")
	sessions.Post("/", s.sessionHandler.Create)
	sessions.Get("/:id", s.sessionHandler.Get)
	sessions.Delete("/:id", s.sessionHandler.Delete)
	sessions.Put("/:id/year", s.sessionHandler.SetYear)
	sessions.Put("/:id/municipality", s.sessionHandler.SetMunicipality)
	sessions.Post("/:id/categories/:code/toggle", s.sessionHandler.ToggleCategory)
	sessions.Put("/:id/viewport", s.sessionHandler.Resize)
	sessions.Get("/:id/legend", s.sessionHandler.Legend)
	sessions.Get("/:id/hover", s.sessionHandler.Hover)
	sessions.Get("/:id/export.csv", s.sessionHandler.Export)

	// Queued exports
	api.Post("/exports", s.exportHandler.Enqueue)
	api.Get("/exports/:id", s.exportHandler.Get)
	api.Get("/exports/:id/download", s.exportHandler.Download)

	// Stats
	api.Get("/stats", s.statsHandler.GetStatistics)
}

// Start - запуск HTTP сервера
func (s *Server) Start() error {
	addr := s.config.GetServerAddr()
	s.logger.Info("Starting HTTP server", zap.String("address", addr))
	return s.app.Listen(addr)
}

// Shutdown - graceful shutdown HTTP сервера
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("Shutting down HTTP server")
	return s.app.ShutdownWithContext(ctx)
}

// customErrorHandler - кастомный обработчик ошибок
func customErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		if appErr, ok := errors.As(err); ok {
			return c.Status(appErr.StatusCode).JSON(fiber.Map{"error": appErr})
		}

		code := fiber.StatusInternalServerError
		errCode := "INTERNAL_SERVER_ERROR"

		if fe, ok := err.(*fiber.Error); ok {
			code = fe.Code
			if code == fiber.StatusNotFound {
				errCode = "NOT_FOUND"
			}
		}

		if code >= fiber.StatusInternalServerError {
			logger.Error("HTTP Error",
				zap.String("path", c.Path()),
				zap.Int("status", code),
				zap.Error(err),
			)
		}

		return c.Status(code).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    errCode,
				"message": err.Error(),
			},
		})
	}
}
