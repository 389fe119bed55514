package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// OperatorConfigFile is the file name looked up by LoadOperatorConfig.
const OperatorConfigFile = "operator_config.yaml"

// Dispatcher modes
const (
	ModeSingle = "single"
	ModeDual   = "dual"
)

// Base joystick interpretations for the space family
const (
	DriveInputVector = "vector"
	DriveInputAngle  = "angle"
)

// OperatorConfig holds the client-side configuration loaded from operator_config.yaml
type OperatorConfig struct {
	Logging   LoggingConfig      `yaml:"logging" json:"logging"`
	Link      OperatorLinkConfig `yaml:"link" json:"link"`
	Auth      AuthConfig         `yaml:"auth" json:"-"`
	Dispatch  DispatchConfig     `yaml:"dispatch" json:"dispatch"`
	Drive     DriveConfig        `yaml:"drive" json:"drive"`
	Arm       ArmConfig          `yaml:"arm" json:"arm"`
	Telemetry TelemetryConfig    `yaml:"telemetry" json:"telemetry"`
}

// OperatorLinkConfig holds the websocket endpoint and reconnect backoff
type OperatorLinkConfig struct {
	URL                string `yaml:"url" json:"url"`
	Family             string `yaml:"family" json:"family"`
	ReconnectInitialMs int    `yaml:"reconnect_initial_ms" json:"reconnect_initial_ms"`
	ReconnectMaxMs     int    `yaml:"reconnect_max_ms" json:"reconnect_max_ms"`
}

// DispatchConfig holds control dispatcher timing and mode
type DispatchConfig struct {
	Mode           string  `yaml:"mode" json:"mode"`
	DriveInput     string  `yaml:"drive_input" json:"drive_input"`
	TickMs         int     `yaml:"tick_ms" json:"tick_ms"`
	DeadZone       float64 `yaml:"dead_zone" json:"dead_zone"`
	StopGraceTicks int     `yaml:"stop_grace_ticks" json:"stop_grace_ticks"`
	PingIntervalMs int     `yaml:"ping_interval_ms" json:"ping_interval_ms"`
}

// TelemetryConfig holds the optional telemetry subscription
type TelemetryConfig struct {
	Enabled        bool   `yaml:"enabled" json:"enabled"`
	ConnectAddress string `yaml:"connect_address" json:"connect_address"`
}

// DefaultOperatorConfig returns the configuration used when a field is absent from the file.
func DefaultOperatorConfig() OperatorConfig {
	return OperatorConfig{
		Logging: LoggingConfig{Level: "info"},
		Link: OperatorLinkConfig{
			Family:             FamilySpace,
			ReconnectInitialMs: 500,
			ReconnectMaxMs:     8000,
		},
		Dispatch: DispatchConfig{
			Mode:           ModeSingle,
			DriveInput:     DriveInputVector,
			TickMs:         50,
			DeadZone:       0.05,
			StopGraceTicks: 5,
			PingIntervalMs: 2000,
		},
		Drive:     DefaultDriveConfig(),
		Arm:       DefaultArmConfig(),
		Telemetry: TelemetryConfig{ConnectAddress: "tcp://localhost:5556"},
	}
}

// LoadOperatorConfig loads the operator configuration from configDir/operator_config.yaml.
// ROBOLINK_TOKEN overrides auth.token.
func LoadOperatorConfig(configDir string) (*OperatorConfig, error) {
	cfg := DefaultOperatorConfig()
	if err := loadYAML(filepath.Join(configDir, OperatorConfigFile), &cfg); err != nil {
		return nil, err
	}
	if token := os.Getenv("ROBOLINK_TOKEN"); token != "" {
		cfg.Auth.Token = token
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks required fields and value ranges.
func (c *OperatorConfig) Validate() error {
	if c.Link.URL == "" {
		return fmt.Errorf("missing required field in operator config: link.url")
	}
	if c.Auth.Token == "" {
		return fmt.Errorf("missing required field in operator config: auth.token")
	}
	if err := validateFamily("link.family", c.Link.Family); err != nil {
		return err
	}
	if c.Link.ReconnectInitialMs <= 0 || c.Link.ReconnectMaxMs < c.Link.ReconnectInitialMs {
		return fmt.Errorf("invalid value for link.reconnect_initial_ms/reconnect_max_ms: %d/%d",
			c.Link.ReconnectInitialMs, c.Link.ReconnectMaxMs)
	}
	switch c.Dispatch.Mode {
	case ModeSingle, ModeDual:
	default:
		return fmt.Errorf("invalid value for dispatch.mode: %q", c.Dispatch.Mode)
	}
	switch c.Dispatch.DriveInput {
	case DriveInputVector, DriveInputAngle:
	default:
		return fmt.Errorf("invalid value for dispatch.drive_input: %q", c.Dispatch.DriveInput)
	}
	if c.Dispatch.TickMs <= 0 {
		return fmt.Errorf("invalid value for dispatch.tick_ms: %d", c.Dispatch.TickMs)
	}
	if c.Dispatch.StopGraceTicks < 0 {
		return fmt.Errorf("invalid value for dispatch.stop_grace_ticks: %d", c.Dispatch.StopGraceTicks)
	}
	if c.Dispatch.DeadZone < 0 || c.Dispatch.DeadZone >= 1 {
		return fmt.Errorf("invalid value for dispatch.dead_zone: %v", c.Dispatch.DeadZone)
	}
	if err := validateDrive("drive", c.Drive); err != nil {
		return err
	}
	if err := validateArm("arm", c.Arm); err != nil {
		return err
	}
	if c.Telemetry.Enabled && c.Telemetry.ConnectAddress == "" {
		return fmt.Errorf("missing required field in operator config: telemetry.connect_address")
	}
	return nil
}
