package api

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/services"
)

// ConfigHandler holds dependencies for configuration API endpoints.
type ConfigHandler struct {
	configService services.ConfigService
	logger        customlog.Logger
}

// NewConfigHandler creates a new handler for configuration endpoints.
func NewConfigHandler(configService services.ConfigService, logger customlog.Logger) *ConfigHandler {
	if configService == nil {
		panic("ConfigService cannot be nil in NewConfigHandler")
	}
	if logger == nil {
		panic("Logger cannot be nil in NewConfigHandler")
	}
	return &ConfigHandler{
		configService: configService,
		logger:        logger,
	}
}

// RegisterConfigRoutes registers the read-only configuration endpoint.
func RegisterConfigRoutes(router fiber.Router, configService services.ConfigService, logger customlog.Logger) {
	h := NewConfigHandler(configService, logger)
	router.Get("/config", h.handleGetConfig)
	logger.Infof("Registered configuration API endpoint under /api/v1/config")
}

// handleGetConfig returns the running configuration as YAML, without secrets.
func (h *ConfigHandler) handleGetConfig(c *fiber.Ctx) error {
	h.logger.Debugf("Handling GET request for /api/v1/config")
	yamlData, err := h.configService.GetCurrentConfigYAML()
	if err != nil {
		h.logger.Errorf("Failed to render config YAML: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{
			"error": fmt.Sprintf("Failed to retrieve configuration: %v", err),
		})
	}

	c.Set(fiber.HeaderContentType, "application/x-yaml")
	return c.Send(yamlData)
}
