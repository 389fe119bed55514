package config

import (
	"fmt"
	"io/ioutil"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Wire families understood by the link codecs.
const (
	FamilySpace = "space"
	FamilyColon = "colon"
)

// LoggingConfig holds logging settings
type LoggingConfig struct {
	Level   string `yaml:"level" json:"level"`
	LogPath string `yaml:"log_path,omitempty" json:"log_path,omitempty"`
}

// AuthConfig holds the pre-shared secret for the control link.
// TokenHash, when set, is a bcrypt hash and takes precedence over Token.
type AuthConfig struct {
	Token     string `yaml:"token,omitempty" json:"-"`
	TokenHash string `yaml:"token_hash,omitempty" json:"-"`
}

// DriveConfig holds mecanum kinematics settings
type DriveConfig struct {
	OutputRange    int     `yaml:"output_range" json:"output_range"`
	MaxMagnitude   int     `yaml:"max_magnitude" json:"max_magnitude"`
	DeadZone       float64 `yaml:"dead_zone" json:"dead_zone"`
	RotationSpeed  int     `yaml:"rotation_speed" json:"rotation_speed"`
	AnglePolarity  []int   `yaml:"angle_polarity" json:"angle_polarity"`
	VectorPolarity []int   `yaml:"vector_polarity" json:"vector_polarity"`
}

// JointConfig describes one arm joint
type JointConfig struct {
	Name     string  `yaml:"name" json:"name"`
	Min      float64 `yaml:"min" json:"min"`
	Max      float64 `yaml:"max" json:"max"`
	Home     float64 `yaml:"home" json:"home"`
	Inverted bool    `yaml:"inverted" json:"inverted"`
}

// ArmConfig holds arm motion settings. Joints are ordered
// base, shoulder, elbow, wrist, gripper.
type ArmConfig struct {
	Joints                []JointConfig `yaml:"joints" json:"joints"`
	MaxStep               float64       `yaml:"max_step" json:"max_step"`
	HomeStep              float64       `yaml:"home_step" json:"home_step"`
	DeadZone              float64       `yaml:"dead_zone" json:"dead_zone"`
	GripperForceThreshold float64       `yaml:"gripper_force_threshold" json:"gripper_force_threshold"`
}

// DefaultDriveConfig returns the stock kinematics settings
func DefaultDriveConfig() DriveConfig {
	return DriveConfig{
		OutputRange:    100,
		MaxMagnitude:   255,
		DeadZone:       0.05,
		RotationSpeed:  150,
		AnglePolarity:  []int{1, -1, 1, -1},
		VectorPolarity: []int{1, 1, 1, 1},
	}
}

// DefaultArmConfig returns the stock five-joint arm
func DefaultArmConfig() ArmConfig {
	return ArmConfig{
		Joints: []JointConfig{
			{Name: "base", Min: 0, Max: 180, Home: 90},
			{Name: "shoulder", Min: 0, Max: 180, Home: 90},
			{Name: "elbow", Min: 0, Max: 180, Home: 90},
			{Name: "wrist", Min: 0, Max: 180, Home: 90},
			{Name: "gripper", Min: 0, Max: 110, Home: 110},
		},
		MaxStep:               3,
		HomeStep:              2,
		DeadZone:              0.05,
		GripperForceThreshold: 600,
	}
}

func validateFamily(field, family string) error {
	switch family {
	case FamilySpace, FamilyColon:
		return nil
	case "":
		return fmt.Errorf("missing required field in %s", field)
	default:
		return fmt.Errorf("invalid value for %s: %q (want %q or %q)", field, family, FamilySpace, FamilyColon)
	}
}

func validateDrive(prefix string, d DriveConfig) error {
	if d.OutputRange <= 0 {
		return fmt.Errorf("invalid value for %s.output_range: %d", prefix, d.OutputRange)
	}
	if d.MaxMagnitude <= 0 {
		return fmt.Errorf("invalid value for %s.max_magnitude: %d", prefix, d.MaxMagnitude)
	}
	if d.DeadZone < 0 || d.DeadZone >= 1 {
		return fmt.Errorf("invalid value for %s.dead_zone: %v", prefix, d.DeadZone)
	}
	for name, p := range map[string][]int{"angle_polarity": d.AnglePolarity, "vector_polarity": d.VectorPolarity} {
		if len(p) != 4 {
			return fmt.Errorf("invalid value for %s.%s: expected 4 entries, got %d", prefix, name, len(p))
		}
		for _, v := range p {
			if v != 1 && v != -1 {
				return fmt.Errorf("invalid value for %s.%s: entries must be 1 or -1", prefix, name)
			}
		}
	}
	return nil
}

func validateArm(prefix string, a ArmConfig) error {
	if len(a.Joints) != 5 {
		return fmt.Errorf("invalid value for %s.joints: expected 5 joints, got %d", prefix, len(a.Joints))
	}
	for i, j := range a.Joints {
		if j.Min >= j.Max {
			return fmt.Errorf("invalid value for %s.joints[%d]: min %v must be below max %v", prefix, i, j.Min, j.Max)
		}
		if j.Home < j.Min || j.Home > j.Max {
			return fmt.Errorf("invalid value for %s.joints[%d].home: %v outside [%v, %v]", prefix, i, j.Home, j.Min, j.Max)
		}
	}
	if a.MaxStep <= 0 {
		return fmt.Errorf("invalid value for %s.max_step: %v", prefix, a.MaxStep)
	}
	if a.HomeStep <= 0 {
		return fmt.Errorf("invalid value for %s.home_step: %v", prefix, a.HomeStep)
	}
	return nil
}

// loadYAML overlays the YAML file at path onto out, which must already hold defaults.
func loadYAML(path string, out interface{}) error {
	data, err := ioutil.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading config file '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(data, out); err != nil {
		return fmt.Errorf("error parsing config file '%s': %w", path, err)
	}
	return nil
}

func envInt(key string, current int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return current
}

// Marshal renders any config section back to YAML for the config endpoint.
// Secrets are never included since they carry `json:"-"` and are cleared here.
func Marshal(cfg interface{}) ([]byte, error) {
	switch c := cfg.(type) {
	case *ControllerConfig:
		redacted := *c
		redacted.Auth = AuthConfig{}
		return yaml.Marshal(&redacted)
	case *OperatorConfig:
		redacted := *c
		redacted.Auth = AuthConfig{}
		return yaml.Marshal(&redacted)
	}
	return yaml.Marshal(cfg)
}
