package server

import (
	"context"
	"errors"
	"fmt"
	"time"

	"checkout-engine/internal/core/apperror"
	"checkout-engine/internal/core/config"
	"checkout-engine/internal/core/logger"
	"checkout-engine/internal/core/metrics"
	"checkout-engine/internal/core/session"

	"github.com/gofiber/contrib/fiberzap/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"

	_ "checkout-engine/docs/swagger"
)

const healthTimeout = 2 * time.Second

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

// Routes is implemented by every feature handler.
type Routes interface {
	RegisterRoutes(r fiber.Router)
}

// Server holds the Fiber application and configuration.
type Server struct {
	// App is the main Fiber application instance.
	App *fiber.App
	// cfg holds the application configuration.
	cfg *config.AppConfig
	// checks are run by /health, keyed by dependency name.
	checks map[string]HealthCheck
}

// New creates a new Server instance with configured middleware.
// m may be nil, in which case /metrics is not mounted.
func New(cfg *config.AppConfig, m *metrics.CheckoutMetrics, checks map[string]HealthCheck) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		AppName:               "checkout-engine",
		ErrorHandler:          errorHandler,
	})

	app.Use(recover.New())

	app.Use(requestid.New(requestid.Config{
		Header: "X-Ray-ID",
	}))

	app.Use(fiberzap.New(fiberzap.Config{
		Logger: logger.Get(),
		Fields: []string{"requestId", "latency", "status", "method", "url"},
	}))

	app.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, " + session.Header,
		ExposeHeaders: session.Header + ", X-Ray-ID",
	}))

	app.Use(session.Middleware())

	s := &Server{
		App:    app,
		cfg:    cfg,
		checks: checks,
	}

	app.Get("/health", s.health)
	if m != nil {
		app.Get("/metrics", adaptor.HTTPHandler(m.Handler()))
	}
	app.Get("/swagger/*", swagger.HandlerDefault)

	return s
}

// Register mounts the routes of every handler.
func (s *Server) Register(handlers ...Routes) {
	for _, h := range handlers {
		h.RegisterRoutes(s.App)
	}
}

// Run starts the HTTP server.
func (s *Server) Run() error {
	addr := fmt.Sprintf(":%d", s.cfg.ServerPort)
	logger.Get().Info("Starting server", zap.String("address", addr))
	return s.App.Listen(addr)
}

// Shutdown stops accepting connections and waits for in-flight requests until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.App.ShutdownWithContext(ctx)
}

// HealthResponse is the body of /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// health handles GET /health.
// @Summary Health check
// @Description Reports the reachability of Redis and the database.
// @Tags System
// @Produce json
// @Success 200 {object} HealthResponse
// @Failure 503 {object} HealthResponse
// @Router /health [get]
func (s *Server) health(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), healthTimeout)
	defer cancel()

	resp := HealthResponse{Status: "ok", Checks: make(map[string]string, len(s.checks))}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			logger.Get().Warn("Health check failed", zap.String("dependency", name), zap.Error(err))
			resp.Checks[name] = "unavailable"
			resp.Status = "degraded"
			continue
		}
		resp.Checks[name] = "ok"
	}

	if resp.Status != "ok" {
		return c.Status(fiber.StatusServiceUnavailable).JSON(resp)
	}
	return c.JSON(resp)
}

// errorHandler renders errors that escape the handlers, including router 404/405s.
func errorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		switch fe.Code {
		case fiber.StatusNotFound:
			return apperror.Write(c, apperror.Wrap(apperror.CodeNotFound, err, "route not found"))
		case fiber.StatusBadRequest, fiber.StatusUnprocessableEntity, fiber.StatusRequestEntityTooLarge:
			return apperror.Write(c, apperror.Wrap(apperror.CodeValidation, err, fe.Message))
		case fiber.StatusUnauthorized:
			return apperror.Write(c, apperror.Wrap(apperror.CodeUnauthorized, err, fe.Message))
		}
		if fe.Code < fiber.StatusInternalServerError {
			return c.Status(fe.Code).JSON(apperror.ErrorResponse{
				Message: fe.Message,
				Code:    apperror.Code(fmt.Sprintf("HTTP_%d", fe.Code)),
				RayID:   apperror.RayID(c),
			})
		}
	}
	return apperror.Write(c, err)
}
