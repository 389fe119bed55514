package services

import (
	"fmt"
	"sync"

	"github.com/open-teleop/robolink/pkg/config"
	customlog "github.com/open-teleop/robolink/pkg/log"
)

// ConfigService exposes the controller configuration the process started
// with. Runtime changes require a restart.
type ConfigService interface {
	GetCurrentConfig() config.ControllerConfig
	GetCurrentConfigYAML() ([]byte, error)
}

type configService struct {
	logger        customlog.Logger
	currentConfig config.ControllerConfig
	mu            sync.RWMutex
}

// NewConfigService wraps an already loaded and validated configuration.
func NewConfigService(cfg *config.ControllerConfig, logger customlog.Logger) (ConfigService, error) {
	if cfg == nil {
		return nil, fmt.Errorf("controller configuration cannot be nil")
	}
	logger.Infof("ConfigService initialized for robot %s", cfg.RobotID)
	return &configService{
		logger:        logger,
		currentConfig: *cfg,
	}, nil
}

// GetCurrentConfig returns a copy of the configuration.
func (s *configService) GetCurrentConfig() config.ControllerConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentConfig
}

// GetCurrentConfigYAML renders the configuration with secrets removed.
func (s *configService) GetCurrentConfigYAML() ([]byte, error) {
	s.mu.RLock()
	cfg := s.currentConfig
	s.mu.RUnlock()

	data, err := config.Marshal(&cfg)
	if err != nil {
		s.logger.Errorf("Error rendering configuration YAML: %v", err)
		return nil, fmt.Errorf("error rendering configuration: %w", err)
	}
	return data, nil
}
