package dispatch

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/open-teleop/robolink/domain/arm"
	"github.com/open-teleop/robolink/domain/drive"
	"github.com/open-teleop/robolink/pkg/config"
	"github.com/open-teleop/robolink/pkg/protocol"
)

type recordingSender struct {
	frames []string
	err    error
}

func (s *recordingSender) Send(text string) error {
	s.frames = append(s.frames, text)
	return s.err
}

type staticInput struct {
	state InputState
}

func (s *staticInput) Snapshot() InputState {
	st := s.state
	s.state.Home = false
	return st
}

var t0 = time.Date(2025, 4, 6, 17, 30, 0, 0, time.UTC)

func testConfig(mode string, family protocol.Family) Config {
	return Config{
		Mode:           mode,
		DriveInput:     config.DriveInputVector,
		Family:         family,
		Token:          "s3cret",
		Tick:           50 * time.Millisecond,
		DeadZone:       0.05,
		StopGraceTicks: 2,
		PingInterval:   time.Hour,
		Drive:          drive.DefaultConfig(),
		Arm:            arm.DefaultConfig(),
	}
}

// newAuthenticated returns a dispatcher past AUTH and the first PING.
func newAuthenticated(t *testing.T, cfg Config, input *staticInput) (*Dispatcher, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	d, err := New(cfg, input, sender, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	d.SetConnected(true)
	if got := d.Tick(t0); !reflect.DeepEqual(got, []string{"AUTH:s3cret"}) {
		t.Fatalf("first tick sent %v, want AUTH", got)
	}
	d.OnReply(protocol.RespAuthOK, t0)
	sender.frames = nil
	return d, sender
}

func TestNothingSentWhileDisconnected(t *testing.T) {
	sender := &recordingSender{}
	input := &staticInput{state: InputState{Drive: Vector{Y: 1}}}
	d, err := New(testConfig(config.ModeSingle, protocol.FamilySpace), input, sender, nil)
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if got := d.Tick(t0); got != nil {
		t.Errorf("sent %v while disconnected", got)
	}
}

func TestAuthIsSentOnceUntilReply(t *testing.T) {
	sender := &recordingSender{}
	input := &staticInput{state: InputState{Drive: Vector{Y: 1}}}
	d, _ := New(testConfig(config.ModeSingle, protocol.FamilySpace), input, sender, nil)
	d.SetConnected(true)

	d.Tick(t0)
	d.Tick(t0.Add(50 * time.Millisecond))
	if !reflect.DeepEqual(sender.frames, []string{"AUTH:s3cret"}) {
		t.Errorf("frames before AUTH_OK = %v", sender.frames)
	}

	d.OnReply(protocol.RespAuthOK, t0)
	got := d.Tick(t0.Add(100 * time.Millisecond))
	want := []string{"PING", "MECANUM 100 100 100 100"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("first authenticated tick = %v, want %v", got, want)
	}
}

func TestAuthRetriesAfterFailure(t *testing.T) {
	cfg := testConfig(config.ModeSingle, protocol.FamilySpace)
	cfg.PingInterval = time.Second
	sender := &recordingSender{}
	d, _ := New(cfg, &staticInput{}, sender, nil)
	d.SetConnected(true)

	d.Tick(t0)
	d.OnReply(protocol.RespAuthFail, t0)
	if got := d.Tick(t0.Add(500 * time.Millisecond)); got != nil {
		t.Errorf("retried AUTH too early: %v", got)
	}
	if got := d.Tick(t0.Add(time.Second)); !reflect.DeepEqual(got, []string{"AUTH:s3cret"}) {
		t.Errorf("no AUTH retry after interval: %v", got)
	}
}

func TestStopGraceWindow(t *testing.T) {
	input := &staticInput{state: InputState{Drive: Vector{X: 1}}}
	d, _ := newAuthenticated(t, testConfig(config.ModeSingle, protocol.FamilySpace), input)

	tick := func(i int) []string { return d.Tick(t0.Add(time.Duration(i) * 50 * time.Millisecond)) }

	if got := tick(1); !reflect.DeepEqual(got, []string{"PING", "MECANUM 100 -100 -100 100"}) {
		t.Fatalf("moving tick = %v", got)
	}
	if got := tick(2); !reflect.DeepEqual(got, []string{"MECANUM 100 -100 -100 100"}) {
		t.Fatalf("held input must repeat every tick, got %v", got)
	}

	input.state.Drive = Vector{X: 0.01, Y: -0.02}
	var stops int
	for i := 3; i < 10; i++ {
		got := tick(i)
		switch {
		case reflect.DeepEqual(got, []string{"STOP"}):
			stops++
		case len(got) == 0:
		default:
			t.Fatalf("tick %d sent %v", i, got)
		}
		if i == 3 && stops != 1 {
			t.Fatalf("stop not sent on the first neutral tick")
		}
	}
	if stops != 3 {
		t.Errorf("sent %d stops, want 1 + 2 grace", stops)
	}

	input.state.Drive = Vector{Y: 0.5}
	if got := tick(10); !reflect.DeepEqual(got, []string{"MECANUM 50 50 50 50"}) {
		t.Errorf("motion after idle = %v", got)
	}
}

func TestAngleDriveInput(t *testing.T) {
	cfg := testConfig(config.ModeSingle, protocol.FamilySpace)
	cfg.DriveInput = config.DriveInputAngle
	input := &staticInput{state: InputState{Drive: FromPolar(90, 1)}}
	d, _ := newAuthenticated(t, cfg, input)

	got := d.Tick(t0.Add(50 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"PING", "MECANUM 71 71 -71 -71"}) {
		t.Errorf("angle drive = %v", got)
	}
}

func TestColonFamilyCommands(t *testing.T) {
	input := &staticInput{state: InputState{Drive: Vector{X: 0.5, Y: -0.25}, RotationSpeed: 200}}
	d, _ := newAuthenticated(t, testConfig(config.ModeSingle, protocol.FamilyColon), input)

	got := d.Tick(t0.Add(50 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"PING", "S:200", "M:0.5:-0.25"}) {
		t.Fatalf("colon tick = %v", got)
	}

	input.state.Rotate = protocol.RotateLeft
	got = d.Tick(t0.Add(100 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"C:rotleft"}) {
		t.Errorf("rotation tick = %v", got)
	}
}

func TestSpaceFamilyRotationUsesWheels(t *testing.T) {
	input := &staticInput{state: InputState{Rotate: protocol.RotateRight, RotationSpeed: 255}}
	d, _ := newAuthenticated(t, testConfig(config.ModeSingle, protocol.FamilySpace), input)

	got := d.Tick(t0.Add(50 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"PING", "MECANUM -100 100 -100 100"}) {
		t.Errorf("space rotation = %v", got)
	}
}

func TestDualModeEmitsArmPoseEveryTick(t *testing.T) {
	input := &staticInput{}
	d, _ := newAuthenticated(t, testConfig(config.ModeDual, protocol.FamilySpace), input)

	got := d.Tick(t0.Add(50 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"PING", "ARM 90 90 90 90 110"}) {
		t.Fatalf("idle dual tick = %v", got)
	}

	input.state.Arm = Vector{X: 0, Y: 1}
	got = d.Tick(t0.Add(100 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"ARM 90 93 90 90 110"}) {
		t.Errorf("shoulder tick = %v", got)
	}

	input.state.Arm = Vector{}
	input.state.Home = true
	got = d.Tick(t0.Add(150 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"ARM 90 91 90 90 110"}) {
		t.Errorf("homing tick = %v", got)
	}
	got = d.Tick(t0.Add(200 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"ARM 90 90 90 90 110"}) {
		t.Errorf("homing final tick = %v", got)
	}
}

func TestSafetyStopReplyBlocksLocalGripper(t *testing.T) {
	input := &staticInput{state: InputState{GripperSlider: -1}}
	d, _ := newAuthenticated(t, testConfig(config.ModeDual, protocol.FamilyColon), input)

	d.Tick(t0.Add(50 * time.Millisecond))
	d.OnReply(protocol.RespSafetyStop, t0.Add(60*time.Millisecond))
	got := d.Tick(t0.Add(100 * time.Millisecond))
	if !reflect.DeepEqual(got, []string{"A:90:90:90:90:107"}) {
		t.Errorf("gripper kept closing after SAFETY_STOP: %v", got)
	}
	if d.Status().SafetyStops != 1 {
		t.Errorf("safety stops = %d", d.Status().SafetyStops)
	}
}

func TestStatusTracksLink(t *testing.T) {
	sender := &recordingSender{err: errors.New("broken pipe")}
	d, _ := New(testConfig(config.ModeSingle, protocol.FamilySpace), &staticInput{}, sender, nil)
	d.SetConnected(true)
	d.Tick(t0)
	d.OnReply("ERROR: expected 4 arguments, got 3", t0)

	st := d.Status()
	if !st.Connected || st.Authenticated {
		t.Errorf("status flags = %+v", st)
	}
	if st.LastReply != "ERROR: expected 4 arguments, got 3" || !st.LastReplyAt.Equal(t0) {
		t.Errorf("last reply = %q at %v", st.LastReply, st.LastReplyAt)
	}
	if st.SendErrors != 1 || st.Sent != 0 {
		t.Errorf("sent=%d errors=%d", st.Sent, st.SendErrors)
	}

	d.SetConnected(false)
	if d.Status().Connected {
		t.Errorf("still connected after SetConnected(false)")
	}
}

func TestNewRejectsBadConfig(t *testing.T) {
	cfg := testConfig("triple", protocol.FamilySpace)
	if _, err := New(cfg, &staticInput{}, &recordingSender{}, nil); err == nil {
		t.Errorf("unknown mode accepted")
	}
	cfg = testConfig(config.ModeSingle, "binary")
	if _, err := New(cfg, &staticInput{}, &recordingSender{}, nil); err == nil {
		t.Errorf("unknown family accepted")
	}
}
