// Package protocol defines the typed command set exchanged between the operator
// and the device, and the two text wire families that carry it.
package protocol

import "fmt"

// Numeric ranges enforced on every decoded or constructed command.
const (
	WheelMin         = -100
	WheelMax         = 100
	JointMin         = 0
	JointMax         = 180
	VelocityMin      = -1.0
	VelocityMax      = 1.0
	RotationSpeedMin = 50
	RotationSpeedMax = 255
)

// Joint indices inside ArmPose.Joints
const (
	JointBase = iota
	JointShoulder
	JointElbow
	JointWrist
	JointGripper
	JointCount
)

// Command is one logical instruction. The set of implementations is closed.
type Command interface {
	command()
	fmt.Stringer
}

// Auth presents the shared secret.
type Auth struct {
	Token string
}

// Ping is a liveness probe.
type Ping struct{}

// Stop halts all wheels.
type Stop struct{}

// Home asks the arm to return to its home pose.
type Home struct{}

// DriveMecanum sets the four wheel speeds directly, each in [-100, 100].
type DriveMecanum struct {
	FL, FR, RL, RR int
}

// DriveVelocity is a planar velocity request, each axis in [-1, 1].
type DriveVelocity struct {
	VX, VY float64
}

// Rotation is a discrete rotate-in-place request.
type Rotation int

const (
	RotateStop Rotation = iota
	RotateLeft
	RotateRight
)

func (r Rotation) String() string {
	switch r {
	case RotateLeft:
		return "rotleft"
	case RotateRight:
		return "rotright"
	default:
		return "stop"
	}
}

// RotateDiscrete rotates the base in place at the configured rotation speed.
type RotateDiscrete struct {
	Direction Rotation
}

// SetRotationSpeed sets the magnitude used by RotateDiscrete, in [50, 255].
type SetRotationSpeed struct {
	Value int
}

// ArmPose carries absolute angles for base, shoulder, elbow, wrist and gripper.
type ArmPose struct {
	Joints [JointCount]int
}

func (Auth) command()             {}
func (Ping) command()             {}
func (Stop) command()             {}
func (Home) command()             {}
func (DriveMecanum) command()     {}
func (DriveVelocity) command()    {}
func (RotateDiscrete) command()   {}
func (SetRotationSpeed) command() {}
func (ArmPose) command()          {}

// Auth deliberately omits the token.
func (Auth) String() string { return "Auth" }
func (Ping) String() string { return "Ping" }
func (Stop) String() string { return "Stop" }
func (Home) String() string { return "Home" }
func (c DriveMecanum) String() string {
	return fmt.Sprintf("DriveMecanum(%d, %d, %d, %d)", c.FL, c.FR, c.RL, c.RR)
}
func (c DriveVelocity) String() string {
	return fmt.Sprintf("DriveVelocity(%.3f, %.3f)", c.VX, c.VY)
}
func (c RotateDiscrete) String() string {
	return "RotateDiscrete(" + c.Direction.String() + ")"
}
func (c SetRotationSpeed) String() string {
	return fmt.Sprintf("SetRotationSpeed(%d)", c.Value)
}
func (c ArmPose) String() string {
	return fmt.Sprintf("ArmPose%v", c.Joints)
}

// NewDriveMecanum clamps each wheel into [-100, 100].
func NewDriveMecanum(fl, fr, rl, rr int) DriveMecanum {
	return DriveMecanum{
		FL: ClampInt(fl, WheelMin, WheelMax),
		FR: ClampInt(fr, WheelMin, WheelMax),
		RL: ClampInt(rl, WheelMin, WheelMax),
		RR: ClampInt(rr, WheelMin, WheelMax),
	}
}

// NewDriveVelocity clamps both axes into [-1, 1].
func NewDriveVelocity(vx, vy float64) DriveVelocity {
	return DriveVelocity{
		VX: ClampFloat(vx, VelocityMin, VelocityMax),
		VY: ClampFloat(vy, VelocityMin, VelocityMax),
	}
}

// NewSetRotationSpeed clamps the value into [50, 255].
func NewSetRotationSpeed(v int) SetRotationSpeed {
	return SetRotationSpeed{Value: ClampInt(v, RotationSpeedMin, RotationSpeedMax)}
}

// NewArmPose clamps every joint into [0, 180]. Controllers may narrow the
// gripper range further.
func NewArmPose(base, shoulder, elbow, wrist, gripper int) ArmPose {
	var p ArmPose
	for i, v := range [JointCount]int{base, shoulder, elbow, wrist, gripper} {
		p.Joints[i] = ClampInt(v, JointMin, JointMax)
	}
	return p
}

// ClampInt bounds v to [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampFloat bounds v to [lo, hi].
func ClampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampCommand(c Command) Command {
	switch v := c.(type) {
	case DriveMecanum:
		return NewDriveMecanum(v.FL, v.FR, v.RL, v.RR)
	case DriveVelocity:
		return NewDriveVelocity(v.VX, v.VY)
	case SetRotationSpeed:
		return NewSetRotationSpeed(v.Value)
	case ArmPose:
		return NewArmPose(v.Joints[0], v.Joints[1], v.Joints[2], v.Joints[3], v.Joints[4])
	}
	return c
}
