// Package api holds the controller's HTTP surface: health, status,
// diagnostics, configuration and the control websocket route.
package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/open-teleop/robolink/domain/diagnostic"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/transport"
	"github.com/open-teleop/robolink/services"
)

// Dependencies are the services the HTTP routes read from. Control may be
// nil when the link runs over serial.
type Dependencies struct {
	RobotID     string
	Status      services.StatusService
	Config      services.ConfigService
	Diagnostics *diagnostic.DiagnosticService
	Control     *transport.WebSocketAcceptor
	ControlPath string
	Logger      customlog.Logger
}

// NewApp creates the fiber app with the standard middleware and JSON errors.
// Request logging is left to the caller since tests run without it.
func NewApp(name string) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               name,
		ErrorHandler:          customErrorHandler,
		DisableStartupMessage: true,
	})
	app.Use(recover.New())
	return app
}

// UseRequestLogger adds fiber's access log middleware.
func UseRequestLogger(app *fiber.App) {
	app.Use(logger.New())
}

// RegisterRoutes mounts every endpoint on app.
func RegisterRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "online",
			"service": "robolink controller",
			"robot":   deps.RobotID,
		})
	})

	// Health check endpoint
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "healthy"})
	})

	api := app.Group("/api/v1")
	RegisterStatusRoutes(api, deps.Status)
	api.Get("/diagnostics", deps.Diagnostics.GetMetricsHandler)
	RegisterConfigRoutes(api, deps.Config, deps.Logger)

	if deps.Control != nil {
		RegisterControlRoute(app, deps.ControlPath, deps.Control, deps.Logger)
	}
}

// Custom error handler
func customErrorHandler(c *fiber.Ctx, err error) error {
	// Default 500 status code
	code := fiber.StatusInternalServerError

	// Check if it's a Fiber error
	if e, ok := err.(*fiber.Error); ok {
		code = e.Code
	}

	// Return JSON response
	return c.Status(code).JSON(fiber.Map{
		"error": err.Error(),
	})
}
