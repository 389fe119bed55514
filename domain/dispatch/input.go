package dispatch

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"

	"github.com/open-teleop/robolink/pkg/protocol"
)

// Vector is a joystick deflection, each axis in [-1, 1].
type Vector struct {
	X, Y float64
}

// Polar returns the angle in degrees (0 = right, 90 = forward) and the
// deflection clamped to [0, 1].
func (v Vector) Polar() (thetaDeg, distance float64) {
	distance = math.Min(math.Hypot(v.X, v.Y), 1)
	thetaDeg = math.Atan2(v.Y, v.X) * 180 / math.Pi
	if thetaDeg < 0 {
		thetaDeg += 360
	}
	return thetaDeg, distance
}

// FromPolar builds a Vector from an angle in degrees and a distance.
func FromPolar(thetaDeg, distance float64) Vector {
	d := protocol.ClampFloat(distance, 0, 1)
	rad := thetaDeg * math.Pi / 180
	return Vector{X: d * math.Cos(rad), Y: d * math.Sin(rad)}
}

// InputState is one sample of the operator's controls.
type InputState struct {
	Drive         Vector
	Arm           Vector // X drives the elbow, Y the shoulder
	BaseSlider    float64
	WristSlider   float64
	GripperSlider float64
	Rotate        protocol.Rotation
	RotationSpeed int // zero when never set
	Home          bool
}

// InputSource supplies the controls once per tick. Home is edge-triggered:
// a source reports it once per press.
type InputSource interface {
	Snapshot() InputState
}

// LineInput is an InputSource fed by text commands, one per line:
//
//	base <x> <y>          angle <deg> <distance>
//	arm <x> <y>           slider base|wrist|gripper <v>
//	rotate left|right|stop
//	speed <50-255>        home        stop
type LineInput struct {
	mu    sync.Mutex
	state InputState
}

// NewLineInput creates a LineInput with every control centered.
func NewLineInput() *LineInput {
	return &LineInput{}
}

// Snapshot returns the current controls and clears the home press.
func (l *LineInput) Snapshot() InputState {
	l.mu.Lock()
	defer l.mu.Unlock()
	s := l.state
	l.state.Home = false
	return s
}

// Apply parses one command line.
func (l *LineInput) Apply(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	l.mu.Lock()
	defer l.mu.Unlock()

	switch fields[0] {
	case "base", "arm":
		v, err := floats(fields, 2)
		if err != nil {
			return err
		}
		vec := Vector{X: clampUnit(v[0]), Y: clampUnit(v[1])}
		if fields[0] == "base" {
			l.state.Drive = vec
		} else {
			l.state.Arm = vec
		}
	case "angle":
		v, err := floats(fields, 2)
		if err != nil {
			return err
		}
		l.state.Drive = FromPolar(v[0], v[1])
	case "slider":
		if len(fields) != 3 {
			return fmt.Errorf("slider: expected 2 fields, got %d", len(fields)-1)
		}
		v, err := strconv.ParseFloat(fields[2], 64)
		if err != nil {
			return fmt.Errorf("slider: bad value %q", fields[2])
		}
		switch fields[1] {
		case "base":
			l.state.BaseSlider = clampUnit(v)
		case "wrist":
			l.state.WristSlider = clampUnit(v)
		case "gripper":
			l.state.GripperSlider = clampUnit(v)
		default:
			return fmt.Errorf("slider: unknown slider %q", fields[1])
		}
	case "rotate":
		if len(fields) != 2 {
			return fmt.Errorf("rotate: expected 1 field, got %d", len(fields)-1)
		}
		switch fields[1] {
		case "left":
			l.state.Rotate = protocol.RotateLeft
		case "right":
			l.state.Rotate = protocol.RotateRight
		case "stop":
			l.state.Rotate = protocol.RotateStop
		default:
			return fmt.Errorf("rotate: unknown direction %q", fields[1])
		}
	case "speed":
		if len(fields) != 2 {
			return fmt.Errorf("speed: expected 1 field, got %d", len(fields)-1)
		}
		n, err := strconv.Atoi(fields[1])
		if err != nil {
			return fmt.Errorf("speed: bad value %q", fields[1])
		}
		l.state.RotationSpeed = protocol.NewSetRotationSpeed(n).Value
	case "home":
		l.state.Home = true
	case "stop":
		speed := l.state.RotationSpeed
		l.state = InputState{RotationSpeed: speed}
	default:
		return fmt.Errorf("unknown input command %q", fields[0])
	}
	return nil
}

// Run applies lines from r until EOF or ctx is cancelled. Bad lines are
// reported through onError and skipped.
func (l *LineInput) Run(ctx context.Context, r io.Reader, onError func(error)) error {
	lines := make(chan string)
	errc := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		errc <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errc:
			return err
		case line := <-lines:
			if err := l.Apply(line); err != nil && onError != nil {
				onError(err)
			}
		}
	}
}

func floats(fields []string, n int) ([]float64, error) {
	if len(fields)-1 != n {
		return nil, fmt.Errorf("%s: expected %d fields, got %d", fields[0], n, len(fields)-1)
	}
	out := make([]float64, n)
	for i, f := range fields[1:] {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(v) {
			return nil, fmt.Errorf("%s: bad value %q", fields[0], f)
		}
		out[i] = v
	}
	return out, nil
}

func clampUnit(v float64) float64 {
	return protocol.ClampFloat(v, -1, 1)
}
