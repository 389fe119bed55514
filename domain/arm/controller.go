// Package arm integrates operator input into joint targets for a five-joint
// arm with gripper.
package arm

import (
	"math"

	"github.com/open-teleop/robolink/pkg/config"
	"github.com/open-teleop/robolink/pkg/protocol"
)

// Joint indices, shared with the wire pose.
const (
	Base     = protocol.JointBase
	Shoulder = protocol.JointShoulder
	Elbow    = protocol.JointElbow
	Wrist    = protocol.JointWrist
	Gripper  = protocol.JointGripper
	Joints   = protocol.JointCount
)

// Joint holds the limits of one joint. Inverted joints are mounted so that
// the servo angle is the complement of the logical angle.
type Joint struct {
	Name     string
	Min      float64
	Max      float64
	Home     float64
	Inverted bool
}

func (j Joint) clamp(v float64) float64 {
	return protocol.ClampFloat(v, j.Min, j.Max)
}

// Config holds the arm limits and motion tuning.
type Config struct {
	Joints         [Joints]Joint
	MaxStep        float64 // degrees per tick at full deflection
	HomeStep       float64 // degrees per tick while homing
	DeadZone       float64
	ForceThreshold float64
}

// ConfigFrom converts a validated config section.
func ConfigFrom(c config.ArmConfig) Config {
	cfg := Config{
		MaxStep:        c.MaxStep,
		HomeStep:       c.HomeStep,
		DeadZone:       c.DeadZone,
		ForceThreshold: c.GripperForceThreshold,
	}
	for i := 0; i < Joints && i < len(c.Joints); i++ {
		j := c.Joints[i]
		cfg.Joints[i] = Joint{Name: j.Name, Min: j.Min, Max: j.Max, Home: j.Home, Inverted: j.Inverted}
	}
	return cfg
}

// DefaultConfig mirrors config.DefaultArmConfig.
func DefaultConfig() Config {
	return ConfigFrom(config.DefaultArmConfig())
}

// ForceSensor reports the gripper force. actuator.Actuator satisfies it.
type ForceSensor interface {
	ReadForceSensor() float64
}

// NoForce is a ForceSensor that always reads zero.
type NoForce struct{}

func (NoForce) ReadForceSensor() float64 { return 0 }

// Input holds per-tick velocity requests in [-1, 1]. Shoulder and Elbow are
// usually fed from the two axes of one joystick; Base, Wrist and Gripper
// from sliders.
type Input struct {
	Base     float64
	Shoulder float64
	Elbow    float64
	Wrist    float64
	Gripper  float64
}

func (in Input) values() [Joints]float64 {
	return [Joints]float64{in.Base, in.Shoulder, in.Elbow, in.Wrist, in.Gripper}
}

// Result describes one tick of the controller.
type Result struct {
	// Pose is the wire pose, with inversions applied.
	Pose protocol.ArmPose
	// Homing is true while the homing sequence is still running.
	Homing bool
	// HomingDone is true on the tick homing converged.
	HomingDone bool
	// HomingCancelled is true when manual input aborted homing.
	HomingCancelled bool
	// SafetyStop is true when a gripper close was refused.
	SafetyStop bool
	// Force is the sensor reading behind SafetyStop.
	Force float64
}

// Controller owns the joint targets. It is not safe for concurrent use.
type Controller struct {
	cfg     Config
	force   ForceSensor
	targets [Joints]float64
	homing  bool
}

// New creates a controller with every joint at home. A nil sensor reads zero.
func New(cfg Config, force ForceSensor) *Controller {
	if force == nil {
		force = NoForce{}
	}
	c := &Controller{cfg: cfg, force: force}
	for i, j := range cfg.Joints {
		c.targets[i] = j.Home
	}
	return c
}

// RequestHome starts homing. It returns false when the arm is already home.
func (c *Controller) RequestHome() bool {
	if c.atHome() {
		c.homing = false
		return false
	}
	c.homing = true
	return true
}

// CancelHome aborts a homing sequence, leaving targets where they are. It
// returns true when homing was running.
func (c *Controller) CancelHome() bool {
	was := c.homing
	c.homing = false
	return was
}

// Homing reports whether a homing sequence is in progress.
func (c *Controller) Homing() bool {
	return c.homing
}

// Tick advances one control period. Manual input wins over homing: any
// input outside the dead zone cancels homing and is applied this tick.
func (c *Controller) Tick(in Input) Result {
	var res Result
	deltas, active := c.deltas(in)

	if c.homing && !active {
		res.HomingDone = c.stepHome()
		res.Homing = c.homing
		res.Pose = c.WirePose()
		return res
	}
	if c.homing {
		c.homing = false
		res.HomingCancelled = true
	}

	for i, d := range deltas {
		if d == 0 {
			continue
		}
		if i == Gripper && d < 0 {
			if f, blocked := c.closeBlocked(); blocked {
				res.SafetyStop = true
				res.Force = f
				continue
			}
		}
		c.targets[i] = c.cfg.Joints[i].clamp(c.targets[i] + d)
	}
	res.Pose = c.WirePose()
	return res
}

// SetTargets moves every joint to an absolute wire pose. It counts as manual
// input and is subject to the gripper interlock.
func (c *Controller) SetTargets(p protocol.ArmPose) Result {
	var res Result
	if c.homing {
		c.homing = false
		res.HomingCancelled = true
	}
	for i, wire := range p.Joints {
		j := c.cfg.Joints[i]
		v := j.clamp(c.fromWire(i, float64(wire)))
		if i == Gripper && v < c.targets[i] {
			if f, blocked := c.closeBlocked(); blocked {
				res.SafetyStop = true
				res.Force = f
				continue
			}
		}
		c.targets[i] = v
	}
	res.Pose = c.WirePose()
	return res
}

// Targets returns the logical joint targets in degrees.
func (c *Controller) Targets() [Joints]float64 {
	return c.targets
}

// WirePose returns the rounded targets with joint inversions applied.
func (c *Controller) WirePose() protocol.ArmPose {
	var out [Joints]int
	for i, t := range c.targets {
		out[i] = int(math.Round(c.toWire(i, t)))
	}
	return protocol.NewArmPose(out[0], out[1], out[2], out[3], out[4])
}

func (c *Controller) toWire(i int, v float64) float64 {
	j := c.cfg.Joints[i]
	if j.Inverted {
		return j.Min + j.Max - v
	}
	return v
}

// fromWire is its own inverse with toWire.
func (c *Controller) fromWire(i int, v float64) float64 {
	return c.toWire(i, v)
}

func (c *Controller) deltas(in Input) ([Joints]float64, bool) {
	var out [Joints]float64
	active := false
	for i, v := range in.values() {
		v = protocol.ClampFloat(v, -1, 1)
		if math.IsNaN(v) || math.Abs(v) < c.cfg.DeadZone {
			continue
		}
		out[i] = v * math.Abs(v) * c.cfg.MaxStep
		active = true
	}
	return out, active
}

// closeBlocked samples the force sensor before a closing motion. A NaN
// reading blocks the close.
func (c *Controller) closeBlocked() (float64, bool) {
	f := c.force.ReadForceSensor()
	return f, math.IsNaN(f) || f > c.cfg.ForceThreshold
}

// stepHome moves each joint one HomeStep toward home, snapping joints that
// are within one step. It returns true on the tick homing completes.
func (c *Controller) stepHome() bool {
	step := c.cfg.HomeStep
	for i, j := range c.cfg.Joints {
		diff := j.Home - c.targets[i]
		switch {
		case math.Abs(diff) <= step:
			c.targets[i] = j.Home
		case diff > 0:
			c.targets[i] += step
		default:
			c.targets[i] -= step
		}
	}
	if c.atHome() {
		c.homing = false
		return true
	}
	return false
}

func (c *Controller) atHome() bool {
	for i, j := range c.cfg.Joints {
		if c.targets[i] != j.Home {
			return false
		}
	}
	return true
}
