// Package actuator abstracts the motor and servo hardware driven by the
// control loop.
package actuator

import "fmt"

// Direction of a wheel motor.
type Direction int

const (
	Stopped Direction = iota
	Forward
	Reverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "F"
	case Reverse:
		return "R"
	default:
		return "S"
	}
}

// Wheel indices
const (
	WheelFrontLeft = iota
	WheelFrontRight
	WheelRearLeft
	WheelRearRight
	WheelCount
)

// JointCount is the number of arm servos.
const JointCount = 5

// Actuator is the hardware boundary. Implementations must not block the
// caller for longer than a single write.
type Actuator interface {
	SetWheel(index int, dir Direction, magnitude int) error
	SetJoint(index int, angle int) error
	// ReadForceSensor returns the latest gripper force reading.
	ReadForceSensor() float64
}

func checkWheel(index int) error {
	if index < 0 || index >= WheelCount {
		return fmt.Errorf("wheel index %d out of range", index)
	}
	return nil
}

func checkJoint(index int) error {
	if index < 0 || index >= JointCount {
		return fmt.Errorf("joint index %d out of range", index)
	}
	return nil
}
