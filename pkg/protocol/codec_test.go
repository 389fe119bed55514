package protocol

import (
	"errors"
	"reflect"
	"testing"
)

func TestSpaceCodecDecode(t *testing.T) {
	testCases := []struct {
		input string
		want  Command
	}{
		{"AUTH:s3cret", Auth{Token: "s3cret"}},
		{"AUTH:", Auth{Token: ""}},
		{"PING", Ping{}},
		{"STOP\n", Stop{}},
		{"HOME", Home{}},
		{"MECANUM 10 -20 30 -40", DriveMecanum{FL: 10, FR: -20, RL: 30, RR: -40}},
		{"MECANUM 150 -150 0 99", DriveMecanum{FL: 100, FR: -100, RL: 0, RR: 99}},
		{"ARM 90 45 135 0 180", ArmPose{Joints: [JointCount]int{90, 45, 135, 0, 180}}},
		{"ARM -5 200 90 90 90", ArmPose{Joints: [JointCount]int{0, 180, 90, 90, 90}}},
		{"MECANUM 99999999999999999999 0 0 -99999999999999999999", DriveMecanum{FL: 100, RR: -100}},
		{"ARM 0 0 0 0 -99999999999999999999", ArmPose{}},
	}

	codec := SpaceCodec{}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := codec.Decode(tc.input)
			if err != nil {
				t.Fatalf("Decode(%q) returned error: %v", tc.input, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Decode(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
		})
	}
}

func TestColonCodecDecode(t *testing.T) {
	testCases := []struct {
		input string
		want  Command
	}{
		{"AUTH:abc:def", Auth{Token: "abc:def"}},
		{"PING", Ping{}},
		{"STOP", Stop{}},
		{"H", Home{}},
		{"A:90:90:90:90:110", ArmPose{Joints: [JointCount]int{90, 90, 90, 90, 110}}},
		{"M:0.5:-0.25", DriveVelocity{VX: 0.5, VY: -0.25}},
		{"M:2:-3", DriveVelocity{VX: 1, VY: -1}},
		{"C:rotleft", RotateDiscrete{Direction: RotateLeft}},
		{"C:rotright", RotateDiscrete{Direction: RotateRight}},
		{"C:stop", RotateDiscrete{Direction: RotateStop}},
		{"S:150", SetRotationSpeed{Value: 150}},
		{"S:10", SetRotationSpeed{Value: 50}},
		{"S:999", SetRotationSpeed{Value: 255}},
		{"S:99999999999999999999", SetRotationSpeed{Value: 255}},
		{"M:1e400:-1e400", DriveVelocity{VX: 1, VY: -1}},
		{"A:99999999999999999999:90:90:90:-99999999999999999999", ArmPose{Joints: [JointCount]int{180, 90, 90, 90, 0}}},
	}

	codec := ColonCodec{}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			got, err := codec.Decode(tc.input)
			if err != nil {
				t.Fatalf("Decode(%q) returned error: %v", tc.input, err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Decode(%q) = %#v, want %#v", tc.input, got, tc.want)
			}
		})
	}
}

func TestDecodeErrors(t *testing.T) {
	testCases := []struct {
		name   string
		codec  Codec
		input  string
		target error
	}{
		{"mecanum missing wheel", SpaceCodec{}, "MECANUM 10 20 30", ErrInvalidFormat},
		{"mecanum extra wheel", SpaceCodec{}, "MECANUM 10 20 30 40 50", ErrInvalidFormat},
		{"arm non numeric", SpaceCodec{}, "ARM 90 90 x 90 90", ErrInvalidFormat},
		{"ping with argument", SpaceCodec{}, "PING now", ErrInvalidFormat},
		{"empty frame", SpaceCodec{}, "   ", ErrInvalidFormat},
		{"space unknown verb", SpaceCodec{}, "JUMP 1", ErrUnknownCommand},
		{"colon frame in space family", SpaceCodec{}, "M:0.5:0.5", ErrUnknownCommand},
		{"arm short", ColonCodec{}, "A:90:90:90:90", ErrInvalidFormat},
		{"velocity three fields", ColonCodec{}, "M:0.1:0.2:0.3", ErrInvalidFormat},
		{"velocity nan", ColonCodec{}, "M:NaN:0", ErrInvalidFormat},
		{"bad rotation", ColonCodec{}, "C:spin", ErrInvalidFormat},
		{"speed float", ColonCodec{}, "S:12.5", ErrInvalidFormat},
		{"colon unknown verb", ColonCodec{}, "X:1", ErrUnknownCommand},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := tc.codec.Decode(tc.input)
			if err == nil {
				t.Fatalf("Decode(%q) expected error, got nil", tc.input)
			}
			if !errors.Is(err, tc.target) {
				t.Errorf("Decode(%q) error %v does not match %v", tc.input, err, tc.target)
			}
			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Errorf("Decode(%q) error is %T, want *DecodeError", tc.input, err)
			}
		})
	}
}

func TestRoundTrip(t *testing.T) {
	space := []Command{
		Auth{Token: "s3cret"},
		Ping{},
		Stop{},
		Home{},
		NewDriveMecanum(100, -100, -100, 100),
		NewDriveMecanum(0, 71, -71, 3),
		NewArmPose(0, 45, 90, 135, 180),
	}
	colon := []Command{
		Auth{Token: "tok:en"},
		Ping{},
		Stop{},
		Home{},
		NewArmPose(90, 90, 90, 90, 110),
		NewDriveVelocity(0.123456789, -1),
		NewDriveVelocity(1e-7, 0),
		RotateDiscrete{Direction: RotateLeft},
		RotateDiscrete{Direction: RotateRight},
		RotateDiscrete{Direction: RotateStop},
		NewSetRotationSpeed(50),
		NewSetRotationSpeed(255),
	}

	check := func(codec Codec, cmds []Command) {
		for _, cmd := range cmds {
			text, err := codec.Encode(cmd)
			if err != nil {
				t.Errorf("%s: Encode(%v) failed: %v", codec.Family(), cmd, err)
				continue
			}
			got, err := codec.Decode(text)
			if err != nil {
				t.Errorf("%s: Decode(%q) failed: %v", codec.Family(), text, err)
				continue
			}
			if !reflect.DeepEqual(got, cmd) {
				t.Errorf("%s: round trip of %#v produced %#v via %q", codec.Family(), cmd, got, text)
			}
		}
	}
	check(SpaceCodec{}, space)
	check(ColonCodec{}, colon)
}

func TestEncodeWireText(t *testing.T) {
	testCases := []struct {
		codec Codec
		cmd   Command
		want  string
	}{
		{SpaceCodec{}, NewDriveMecanum(71, 71, -71, -71), "MECANUM 71 71 -71 -71"},
		{SpaceCodec{}, NewArmPose(90, 90, 90, 90, 110), "ARM 90 90 90 90 110"},
		{ColonCodec{}, NewDriveVelocity(0.5, -0.25), "M:0.5:-0.25"},
		{ColonCodec{}, RotateDiscrete{Direction: RotateRight}, "C:rotright"},
		{ColonCodec{}, NewSetRotationSpeed(200), "S:200"},
		{ColonCodec{}, DriveVelocity{VX: 3, VY: 0}, "M:1:0"},
	}
	for _, tc := range testCases {
		got, err := tc.codec.Encode(tc.cmd)
		if err != nil {
			t.Errorf("Encode(%v) failed: %v", tc.cmd, err)
			continue
		}
		if got != tc.want {
			t.Errorf("Encode(%v) = %q, want %q", tc.cmd, got, tc.want)
		}
	}
}

func TestEncodeUnsupported(t *testing.T) {
	if _, err := (SpaceCodec{}).Encode(NewDriveVelocity(0.5, 0)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("space family encoded DriveVelocity, err=%v", err)
	}
	if _, err := (ColonCodec{}).Encode(NewDriveMecanum(1, 2, 3, 4)); !errors.Is(err, ErrUnsupported) {
		t.Errorf("colon family encoded DriveMecanum, err=%v", err)
	}
	if _, err := (SpaceCodec{}).Encode(Auth{Token: " padded"}); !errors.Is(err, ErrUnsupported) {
		t.Errorf("padded token encoded, err=%v", err)
	}
}

func TestNewCodec(t *testing.T) {
	for _, family := range []Family{FamilySpace, FamilyColon} {
		codec, err := NewCodec(family)
		if err != nil {
			t.Fatalf("NewCodec(%s) failed: %v", family, err)
		}
		if codec.Family() != family {
			t.Errorf("NewCodec(%s) returned %s codec", family, codec.Family())
		}
	}
	if _, err := NewCodec("binary"); err == nil {
		t.Errorf("NewCodec accepted unknown family")
	}
}

func TestErrorResponse(t *testing.T) {
	reply := ErrorResponse("expected 4 arguments, got 3")
	if reply != "ERROR: expected 4 arguments, got 3" {
		t.Errorf("unexpected reply %q", reply)
	}
	reason, ok := IsErrorResponse(reply)
	if !ok || reason != "expected 4 arguments, got 3" {
		t.Errorf("IsErrorResponse(%q) = %q, %v", reply, reason, ok)
	}
	if _, ok := IsErrorResponse(RespOK); ok {
		t.Errorf("OK classified as error reply")
	}
}
