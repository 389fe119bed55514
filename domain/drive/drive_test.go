package drive

import (
	"testing"

	"github.com/open-teleop/robolink/pkg/actuator"
	"github.com/open-teleop/robolink/pkg/protocol"
)

func TestApplyMecanumMapsPercentToMagnitude(t *testing.T) {
	sim := actuator.NewSim(nil)
	d := New(DefaultConfig(), sim, nil)

	d.ApplyMecanum(protocol.DriveMecanum{FL: 100, FR: -50, RL: 0, RR: 250})
	if err := d.Flush(); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	want := [actuator.WheelCount]actuator.WheelOutput{
		{Direction: actuator.Forward, Magnitude: 255},
		{Direction: actuator.Reverse, Magnitude: 128},
		{Direction: actuator.Stopped, Magnitude: 0},
		{Direction: actuator.Forward, Magnitude: 255},
	}
	if got := sim.Wheels(); got != want {
		t.Errorf("wheel outputs = %+v, want %+v", got, want)
	}
}

func TestApplyVelocityUsesKinematics(t *testing.T) {
	sim := actuator.NewSim(nil)
	d := New(DefaultConfig(), sim, nil)

	speeds := d.ApplyVelocity(protocol.DriveVelocity{VX: 1, VY: 0})
	if speeds != (Speeds{FL: 100, FR: -100, RL: -100, RR: 100}) {
		t.Fatalf("speeds = %+v", speeds)
	}
	wheels := d.Wheels()
	if wheels[actuator.WheelFrontRight] != (WheelState{Direction: actuator.Reverse, Magnitude: 255}) {
		t.Errorf("front right = %+v", wheels[actuator.WheelFrontRight])
	}
}

func TestRotateDiscrete(t *testing.T) {
	d := New(DefaultConfig(), actuator.NewSim(nil), nil)
	d.SetRotationSpeed(200)

	d.Rotate(protocol.RotateLeft)
	w := d.Wheels()
	fwd := WheelState{Direction: actuator.Forward, Magnitude: 200}
	rev := WheelState{Direction: actuator.Reverse, Magnitude: 200}
	if w[actuator.WheelFrontLeft] != fwd || w[actuator.WheelRearLeft] != fwd ||
		w[actuator.WheelFrontRight] != rev || w[actuator.WheelRearRight] != rev {
		t.Errorf("rotate left wheels = %+v", w)
	}

	d.Rotate(protocol.RotateRight)
	w = d.Wheels()
	if w[actuator.WheelFrontLeft] != rev || w[actuator.WheelFrontRight] != fwd {
		t.Errorf("rotate right wheels = %+v", w)
	}

	d.Rotate(protocol.RotateStop)
	if d.Wheels() != ([actuator.WheelCount]WheelState{}) {
		t.Errorf("wheels still moving after rotate stop: %+v", d.Wheels())
	}
}

func TestSetRotationSpeedClamps(t *testing.T) {
	d := New(DefaultConfig(), actuator.NewSim(nil), nil)
	d.SetRotationSpeed(10)
	if d.RotationSpeed() != 50 {
		t.Errorf("rotation speed = %d, want 50", d.RotationSpeed())
	}
	d.SetRotationSpeed(1000)
	if d.RotationSpeed() != 255 {
		t.Errorf("rotation speed = %d, want 255", d.RotationSpeed())
	}
}

func TestFlushWritesOnlyChangedWheels(t *testing.T) {
	sim := actuator.NewSim(nil)
	d := New(DefaultConfig(), sim, nil)

	d.ApplyMecanum(protocol.DriveMecanum{FL: 50, FR: 50, RL: 50, RR: 50})
	d.Flush()
	if sim.Writes() != 4 {
		t.Fatalf("first flush wrote %d wheels, want 4", sim.Writes())
	}

	d.ApplyMecanum(protocol.DriveMecanum{FL: 50, FR: 50, RL: 50, RR: -50})
	d.Flush()
	if sim.Writes() != 5 {
		t.Errorf("second flush total writes %d, want 5", sim.Writes())
	}

	d.Flush()
	if sim.Writes() != 5 {
		t.Errorf("idle flush wrote again, total %d", sim.Writes())
	}
}

func TestStopAllIsIdempotent(t *testing.T) {
	sim := actuator.NewSim(nil)
	d := New(DefaultConfig(), sim, nil)
	d.ApplyMecanum(protocol.DriveMecanum{FL: 100, FR: 100, RL: 100, RR: 100})
	d.Flush()

	for i := 0; i < 3; i++ {
		if err := d.StopAll(); err != nil {
			t.Fatalf("StopAll #%d failed: %v", i, err)
		}
		if sim.Wheels() != ([actuator.WheelCount]actuator.WheelOutput{}) {
			t.Fatalf("wheels still moving after StopAll: %+v", sim.Wheels())
		}
	}
}
