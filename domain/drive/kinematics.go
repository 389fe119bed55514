// Package drive converts operator motion requests into mecanum wheel outputs.
package drive

import (
	"math"

	"github.com/open-teleop/robolink/pkg/config"
	"github.com/open-teleop/robolink/pkg/protocol"
)

// Speeds holds signed wheel speeds in [-OutputRange, OutputRange].
type Speeds struct {
	FL, FR, RL, RR int
}

// Array returns the speeds in wheel index order.
func (s Speeds) Array() [4]int {
	return [4]int{s.FL, s.FR, s.RL, s.RR}
}

// IsZero reports whether every wheel is stopped.
func (s Speeds) IsZero() bool {
	return s == Speeds{}
}

// Command returns the speeds as a wire command, clamped to the wire range.
func (s Speeds) Command() protocol.DriveMecanum {
	return protocol.NewDriveMecanum(s.FL, s.FR, s.RL, s.RR)
}

// Config holds kinematics and output settings.
type Config struct {
	OutputRange    int
	MaxMagnitude   int
	DeadZone       float64
	RotationSpeed  int
	AnglePolarity  [4]int
	VectorPolarity [4]int
}

// ConfigFrom converts a validated config section.
func ConfigFrom(c config.DriveConfig) Config {
	cfg := Config{
		OutputRange:   c.OutputRange,
		MaxMagnitude:  c.MaxMagnitude,
		DeadZone:      c.DeadZone,
		RotationSpeed: c.RotationSpeed,
	}
	copy(cfg.AnglePolarity[:], c.AnglePolarity)
	copy(cfg.VectorPolarity[:], c.VectorPolarity)
	return cfg
}

// DefaultConfig mirrors config.DefaultDriveConfig.
func DefaultConfig() Config {
	return ConfigFrom(config.DefaultDriveConfig())
}

// Engine computes wheel speeds from polar or cartesian joystick input.
// It holds no state between calls.
type Engine struct {
	cfg Config
}

// NewEngine creates an engine.
func NewEngine(cfg Config) *Engine {
	return &Engine{cfg: cfg}
}

// FromAngle maps a joystick angle in degrees (0 = right, 90 = forward) and a
// distance in [0, 1] onto the wheels.
func (e *Engine) FromAngle(thetaDeg, distance float64) Speeds {
	d := protocol.ClampFloat(distance, 0, 1)
	if math.IsNaN(thetaDeg) || math.IsNaN(d) || d < e.cfg.DeadZone {
		return Speeds{}
	}
	rad := (thetaDeg + 45) * math.Pi / 180
	s, c := math.Sin(rad)*d, math.Cos(rad)*d
	return e.normalize([4]float64{s, c, c, s}, e.cfg.AnglePolarity)
}

// FromVelocity maps a planar velocity (vx lateral, vy forward), each in
// [-1, 1], onto the wheels.
func (e *Engine) FromVelocity(vx, vy float64) Speeds {
	vx = protocol.ClampFloat(vx, -1, 1)
	vy = protocol.ClampFloat(vy, -1, 1)
	if math.IsNaN(vx) || math.IsNaN(vy) || math.Hypot(vx, vy) < e.cfg.DeadZone {
		return Speeds{}
	}
	return e.normalize([4]float64{vy + vx, vy - vx, vy - vx, vy + vx}, e.cfg.VectorPolarity)
}

// normalize scales unit wheel values so the largest magnitude never exceeds
// OutputRange while leaving in-range inputs proportional.
func (e *Engine) normalize(raw [4]float64, polarity [4]int) Speeds {
	m := 1.0
	for _, v := range raw {
		m = math.Max(m, math.Abs(v))
	}
	scale := float64(e.cfg.OutputRange) / m
	var out [4]int
	for i, v := range raw {
		p := polarity[i]
		if p == 0 {
			p = 1
		}
		out[i] = int(math.Round(v*scale)) * p
	}
	return Speeds{FL: out[0], FR: out[1], RL: out[2], RR: out[3]}
}
