package dispatch

import (
	"context"
	"math"
	"strings"
	"testing"

	"github.com/open-teleop/robolink/pkg/protocol"
)

func TestLineInputApply(t *testing.T) {
	in := NewLineInput()
	lines := []string{
		"base 0.5 -2",
		"arm -0.25 1",
		"slider gripper -1",
		"slider wrist 0.3",
		"rotate left",
		"speed 300",
		"home",
	}
	for _, line := range lines {
		if err := in.Apply(line); err != nil {
			t.Fatalf("Apply(%q) failed: %v", line, err)
		}
	}

	s := in.Snapshot()
	if s.Drive != (Vector{X: 0.5, Y: -1}) {
		t.Errorf("drive = %+v", s.Drive)
	}
	if s.Arm != (Vector{X: -0.25, Y: 1}) {
		t.Errorf("arm = %+v", s.Arm)
	}
	if s.GripperSlider != -1 || s.WristSlider != 0.3 {
		t.Errorf("sliders = %v %v", s.GripperSlider, s.WristSlider)
	}
	if s.Rotate != protocol.RotateLeft || s.RotationSpeed != 255 {
		t.Errorf("rotate=%v speed=%d", s.Rotate, s.RotationSpeed)
	}
	if !s.Home {
		t.Errorf("home press lost")
	}
	if in.Snapshot().Home {
		t.Errorf("home press reported twice")
	}

	in.Apply("stop")
	s = in.Snapshot()
	if s.Drive != (Vector{}) || s.Rotate != protocol.RotateStop || s.GripperSlider != 0 {
		t.Errorf("stop did not center controls: %+v", s)
	}
	if s.RotationSpeed != 255 {
		t.Errorf("stop reset rotation speed to %d", s.RotationSpeed)
	}
}

func TestLineInputAngle(t *testing.T) {
	in := NewLineInput()
	if err := in.Apply("angle 90 1"); err != nil {
		t.Fatalf("Apply failed: %v", err)
	}
	theta, d := in.Snapshot().Drive.Polar()
	if math.Abs(theta-90) > 1e-9 || math.Abs(d-1) > 1e-9 {
		t.Errorf("polar = %v, %v", theta, d)
	}
}

func TestLineInputErrors(t *testing.T) {
	in := NewLineInput()
	for _, line := range []string{"base 1", "arm x y", "slider elbow 1", "rotate up", "speed fast", "jump"} {
		if err := in.Apply(line); err == nil {
			t.Errorf("Apply(%q) accepted", line)
		}
	}
	if err := in.Apply("   "); err != nil {
		t.Errorf("blank line rejected: %v", err)
	}
}

func TestLineInputRun(t *testing.T) {
	in := NewLineInput()
	var errs []error
	err := in.Run(context.Background(), strings.NewReader("base 0 1\nbogus\nrotate right\n"), func(err error) {
		errs = append(errs, err)
	})
	if err != nil {
		t.Fatalf("Run returned %v", err)
	}
	if len(errs) != 1 {
		t.Errorf("errors = %v", errs)
	}
	s := in.Snapshot()
	if s.Drive.Y != 1 || s.Rotate != protocol.RotateRight {
		t.Errorf("state after Run = %+v", s)
	}
}
