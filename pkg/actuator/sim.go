package actuator

import (
	"sync"

	customlog "github.com/open-teleop/robolink/pkg/log"
)

// WheelOutput is the last command applied to one wheel.
type WheelOutput struct {
	Direction Direction
	Magnitude int
}

// Sim is an in-memory actuator used for dry runs and tests.
type Sim struct {
	mu     sync.Mutex
	wheels [WheelCount]WheelOutput
	joints [JointCount]int
	force  float64
	writes int
	logger customlog.Logger
}

var _ Actuator = (*Sim)(nil)

// NewSim creates a simulated actuator. A nil logger discards output.
func NewSim(logger customlog.Logger) *Sim {
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	return &Sim{logger: logger}
}

func (s *Sim) SetWheel(index int, dir Direction, magnitude int) error {
	if err := checkWheel(index); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.wheels[index] != (WheelOutput{Direction: dir, Magnitude: magnitude}) {
		s.logger.Debugf("sim wheel %d -> %s %d", index, dir, magnitude)
	}
	s.wheels[index] = WheelOutput{Direction: dir, Magnitude: magnitude}
	s.writes++
	return nil
}

func (s *Sim) SetJoint(index int, angle int) error {
	if err := checkJoint(index); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.joints[index] = angle
	s.writes++
	return nil
}

func (s *Sim) ReadForceSensor() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.force
}

// SetForce sets the value returned by ReadForceSensor.
func (s *Sim) SetForce(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.force = v
}

// Wheels returns a copy of the current wheel outputs.
func (s *Sim) Wheels() [WheelCount]WheelOutput {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wheels
}

// Joints returns a copy of the current joint angles.
func (s *Sim) Joints() [JointCount]int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.joints
}

// Writes returns how many Set calls have been applied.
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
