package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// ControllerConfigFile is the file name looked up by LoadControllerConfig.
const ControllerConfigFile = "controller_config.yaml"

// ControllerConfig holds the device-side configuration loaded from controller_config.yaml
type ControllerConfig struct {
	RobotID    string           `yaml:"robot_id" json:"robot_id"`
	Logging    LoggingConfig    `yaml:"logging" json:"logging"`
	Server     ServerConfig     `yaml:"server" json:"server"`
	Link       LinkConfig       `yaml:"link" json:"link"`
	Auth       AuthConfig       `yaml:"auth" json:"-"`
	Heartbeat  HeartbeatConfig  `yaml:"heartbeat" json:"heartbeat"`
	Control    ControlConfig    `yaml:"control" json:"control"`
	Drive      DriveConfig      `yaml:"drive" json:"drive"`
	Arm        ArmConfig        `yaml:"arm" json:"arm"`
	Actuator   ActuatorConfig   `yaml:"actuator" json:"actuator"`
	ZeroMQ     ZeroMQConfig     `yaml:"zeromq" json:"zeromq"`
	Processing ProcessingConfig `yaml:"processing" json:"processing"`
}

// ServerConfig holds HTTP server settings
type ServerConfig struct {
	HTTPPort int `yaml:"http_port" json:"http_port"`
}

// LinkConfig selects how the operator reaches the device.
// Transport is "websocket" (served on Path) or "serial".
type LinkConfig struct {
	Transport    string `yaml:"transport" json:"transport"`
	Path         string `yaml:"path" json:"path"`
	SerialDevice string `yaml:"serial_device,omitempty" json:"serial_device,omitempty"`
	SerialBaud   int    `yaml:"serial_baud,omitempty" json:"serial_baud,omitempty"`
	Family       string `yaml:"family" json:"family"`
}

// HeartbeatConfig holds the liveness deadline for authenticated sessions
type HeartbeatConfig struct {
	TimeoutMs int `yaml:"timeout_ms" json:"timeout_ms"`
}

// ControlConfig holds control loop timing
type ControlConfig struct {
	TickMs         int `yaml:"tick_ms" json:"tick_ms"`
	PollIntervalMs int `yaml:"poll_interval_ms" json:"poll_interval_ms"`
}

// ActuatorConfig selects the actuator driver: "sim" or "serial"
type ActuatorConfig struct {
	Driver string `yaml:"driver" json:"driver"`
	Device string `yaml:"device,omitempty" json:"device,omitempty"`
	Baud   int    `yaml:"baud,omitempty" json:"baud,omitempty"`
}

// ZeroMQConfig holds telemetry publisher settings
type ZeroMQConfig struct {
	Enabled            bool   `yaml:"enabled" json:"enabled"`
	PublishBindAddress string `yaml:"publish_bind_address" json:"publish_bind_address"`
	StatusIntervalMs   int    `yaml:"status_interval_ms" json:"status_interval_ms"`
}

// ProcessingConfig holds telemetry worker configuration
type ProcessingConfig struct {
	HighPriorityWorkers     int `yaml:"high_priority_workers" json:"high_priority_workers"`
	StandardPriorityWorkers int `yaml:"standard_priority_workers" json:"standard_priority_workers"`
	LowPriorityWorkers      int `yaml:"low_priority_workers" json:"low_priority_workers"`
	QueueSize               int `yaml:"queue_size" json:"queue_size"`
}

// DefaultControllerConfig returns the configuration used when a field is absent from the file.
func DefaultControllerConfig() ControllerConfig {
	return ControllerConfig{
		RobotID:   "robolink",
		Logging:   LoggingConfig{Level: "info"},
		Server:    ServerConfig{HTTPPort: 8080},
		Link:      LinkConfig{Transport: "websocket", Path: "/ws/control", SerialBaud: 115200, Family: FamilySpace},
		Heartbeat: HeartbeatConfig{TimeoutMs: 10000},
		Control:   ControlConfig{TickMs: 50, PollIntervalMs: 5},
		Drive:     DefaultDriveConfig(),
		Arm:       DefaultArmConfig(),
		Actuator:  ActuatorConfig{Driver: "sim", Baud: 115200},
		ZeroMQ: ZeroMQConfig{
			PublishBindAddress: "tcp://*:5556",
			StatusIntervalMs:   200,
		},
		Processing: ProcessingConfig{
			HighPriorityWorkers:     1,
			StandardPriorityWorkers: 1,
			LowPriorityWorkers:      1,
			QueueSize:               64,
		},
	}
}

// LoadControllerConfig loads the controller configuration from configDir/controller_config.yaml.
// ROBOLINK_TOKEN and PORT override the file.
func LoadControllerConfig(configDir string) (*ControllerConfig, error) {
	cfg := DefaultControllerConfig()
	if err := loadYAML(filepath.Join(configDir, ControllerConfigFile), &cfg); err != nil {
		return nil, err
	}

	if token := os.Getenv("ROBOLINK_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	cfg.Server.HTTPPort = envInt("PORT", cfg.Server.HTTPPort)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *ControllerConfig) Validate() error {
	if c.Auth.Token == "" && c.Auth.TokenHash == "" {
		return fmt.Errorf("missing required field in controller config: auth.token or auth.token_hash")
	}
	switch c.Link.Transport {
	case "websocket":
		if c.Link.Path == "" {
			return fmt.Errorf("missing required field in controller config: link.path")
		}
	case "serial":
		if c.Link.SerialDevice == "" {
			return fmt.Errorf("missing required field in controller config: link.serial_device")
		}
	default:
		return fmt.Errorf("invalid value for link.transport: %q", c.Link.Transport)
	}
	if err := validateFamily("link.family", c.Link.Family); err != nil {
		return err
	}
	if c.Heartbeat.TimeoutMs <= 0 {
		return fmt.Errorf("invalid value for heartbeat.timeout_ms: %d", c.Heartbeat.TimeoutMs)
	}
	if c.Control.TickMs <= 0 {
		return fmt.Errorf("invalid value for control.tick_ms: %d", c.Control.TickMs)
	}
	if c.Control.PollIntervalMs <= 0 || c.Control.PollIntervalMs > c.Control.TickMs {
		return fmt.Errorf("invalid value for control.poll_interval_ms: %d", c.Control.PollIntervalMs)
	}
	if err := validateDrive("drive", c.Drive); err != nil {
		return err
	}
	if err := validateArm("arm", c.Arm); err != nil {
		return err
	}
	switch c.Actuator.Driver {
	case "sim":
	case "serial":
		if c.Actuator.Device == "" {
			return fmt.Errorf("missing required field in controller config: actuator.device")
		}
	default:
		return fmt.Errorf("invalid value for actuator.driver: %q", c.Actuator.Driver)
	}
	if c.ZeroMQ.Enabled && c.ZeroMQ.PublishBindAddress == "" {
		return fmt.Errorf("missing required field in controller config: zeromq.publish_bind_address")
	}
	return nil
}
