package drive

import (
	"errors"
	"fmt"

	"github.com/open-teleop/robolink/pkg/actuator"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/protocol"
)

// WheelState is the requested output of one wheel. Magnitude is zero exactly
// when Direction is Stopped.
type WheelState struct {
	Direction actuator.Direction `json:"direction"`
	Magnitude int                `json:"magnitude"`
}

func stateFor(v, fullScale, maxMagnitude int) WheelState {
	if fullScale <= 0 || v == 0 {
		return WheelState{}
	}
	mag := v
	dir := actuator.Forward
	if v < 0 {
		mag = -v
		dir = actuator.Reverse
	}
	mag = (mag*maxMagnitude + fullScale/2) / fullScale
	mag = protocol.ClampInt(mag, 0, maxMagnitude)
	if mag == 0 {
		return WheelState{}
	}
	return WheelState{Direction: dir, Magnitude: mag}
}

// Drive owns the four wheel states and pushes changes to the actuators.
// Requests stage a new state; Flush writes each changed wheel once.
type Drive struct {
	cfg           Config
	engine        *Engine
	act           actuator.Actuator
	logger        customlog.Logger
	desired       [actuator.WheelCount]WheelState
	written       [actuator.WheelCount]WheelState
	synced        bool
	rotationSpeed int
}

// New creates a Drive. All wheels start stopped.
func New(cfg Config, act actuator.Actuator, logger customlog.Logger) *Drive {
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	return &Drive{
		cfg:           cfg,
		engine:        NewEngine(cfg),
		act:           act,
		logger:        logger,
		rotationSpeed: clampRotation(cfg.RotationSpeed, cfg.MaxMagnitude),
	}
}

func clampRotation(v, maxMagnitude int) int {
	v = protocol.ClampInt(v, protocol.RotationSpeedMin, protocol.RotationSpeedMax)
	if maxMagnitude > 0 && v > maxMagnitude {
		v = maxMagnitude
	}
	return v
}

// Engine exposes the kinematics used by ApplyVelocity.
func (d *Drive) Engine() *Engine {
	return d.engine
}

// ApplyMecanum stages direct wheel percentages.
func (d *Drive) ApplyMecanum(cmd protocol.DriveMecanum) {
	cmd = protocol.NewDriveMecanum(cmd.FL, cmd.FR, cmd.RL, cmd.RR)
	d.stage(Speeds{FL: cmd.FL, FR: cmd.FR, RL: cmd.RL, RR: cmd.RR}, protocol.WheelMax)
}

// ApplyVelocity stages the kinematics output for a planar velocity.
func (d *Drive) ApplyVelocity(cmd protocol.DriveVelocity) Speeds {
	speeds := d.engine.FromVelocity(cmd.VX, cmd.VY)
	d.stage(speeds, d.cfg.OutputRange)
	return speeds
}

// Rotate stages a rotate-in-place. Left drives the left wheels forward and
// the right wheels in reverse; right is the mirror; stop zeroes all four.
func (d *Drive) Rotate(dir protocol.Rotation) {
	var fwdLeft actuator.Direction
	switch dir {
	case protocol.RotateLeft:
		fwdLeft = actuator.Forward
	case protocol.RotateRight:
		fwdLeft = actuator.Reverse
	default:
		d.desired = [actuator.WheelCount]WheelState{}
		return
	}
	left := WheelState{Direction: fwdLeft, Magnitude: d.rotationSpeed}
	right := WheelState{Direction: opposite(fwdLeft), Magnitude: d.rotationSpeed}
	d.desired[actuator.WheelFrontLeft] = left
	d.desired[actuator.WheelRearLeft] = left
	d.desired[actuator.WheelFrontRight] = right
	d.desired[actuator.WheelRearRight] = right
}

func opposite(dir actuator.Direction) actuator.Direction {
	if dir == actuator.Forward {
		return actuator.Reverse
	}
	return actuator.Forward
}

// SetRotationSpeed sets the magnitude used by later Rotate calls.
func (d *Drive) SetRotationSpeed(v int) {
	d.rotationSpeed = clampRotation(v, d.cfg.MaxMagnitude)
}

// RotationSpeed returns the current rotate-in-place magnitude.
func (d *Drive) RotationSpeed() int {
	return d.rotationSpeed
}

// StopAll zeroes every wheel and writes the result immediately. It is safe
// to call in any state and repeatedly.
func (d *Drive) StopAll() error {
	d.desired = [actuator.WheelCount]WheelState{}
	d.synced = false
	return d.Flush()
}

// Flush writes wheels whose staged state differs from the last write.
func (d *Drive) Flush() error {
	var errs []error
	for i := range d.desired {
		if d.synced && d.desired[i] == d.written[i] {
			continue
		}
		ws := d.desired[i]
		if err := d.act.SetWheel(i, ws.Direction, ws.Magnitude); err != nil {
			errs = append(errs, fmt.Errorf("wheel %d: %w", i, err))
			continue
		}
		d.written[i] = ws
	}
	if len(errs) > 0 {
		return errors.Join(errs...)
	}
	d.synced = true
	return nil
}

// Wheels returns the staged wheel states.
func (d *Drive) Wheels() [actuator.WheelCount]WheelState {
	return d.desired
}

func (d *Drive) stage(s Speeds, fullScale int) {
	for i, v := range s.Array() {
		d.desired[i] = stateFor(v, fullScale, d.cfg.MaxMagnitude)
	}
}
