package protocol

import (
	"strconv"
	"strings"
)

// SpaceCodec implements the space-separated family used by the angle/distance
// joystick clients.
type SpaceCodec struct{}

var _ Codec = SpaceCodec{}

func (SpaceCodec) Family() Family { return FamilySpace }

func (SpaceCodec) Decode(text string) (Command, error) {
	input := normalize(text)
	if input == "" {
		return nil, invalidFormat(input, "empty frame")
	}
	if cmd, ok, err := decodeCommon(input); ok {
		return cmd, err
	}

	fields := strings.Fields(input)
	switch fields[0] {
	case "HOME":
		if len(fields) != 1 {
			return nil, invalidFormat(input, "expected 0 arguments, got %d", len(fields)-1)
		}
		return Home{}, nil
	case "MECANUM":
		if len(fields) != 5 {
			return nil, invalidFormat(input, "expected 4 arguments, got %d", len(fields)-1)
		}
		v, err := parseInts(input, fields[1:])
		if err != nil {
			return nil, err
		}
		return NewDriveMecanum(v[0], v[1], v[2], v[3]), nil
	case "ARM":
		if len(fields) != 6 {
			return nil, invalidFormat(input, "expected 5 arguments, got %d", len(fields)-1)
		}
		v, err := parseInts(input, fields[1:])
		if err != nil {
			return nil, err
		}
		return NewArmPose(v[0], v[1], v[2], v[3], v[4]), nil
	case "PING", "STOP":
		return nil, invalidFormat(input, "expected 0 arguments, got %d", len(fields)-1)
	}
	return nil, unknownCommand(input, fields[0])
}

func (SpaceCodec) Encode(cmd Command) (string, error) {
	if s, ok, err := encodeCommon(cmd); ok {
		return s, err
	}
	switch c := clampCommand(cmd).(type) {
	case Home:
		return "HOME", nil
	case DriveMecanum:
		return "MECANUM " + joinInts(" ", c.FL, c.FR, c.RL, c.RR), nil
	case ArmPose:
		return "ARM " + joinInts(" ", c.Joints[:]...), nil
	}
	return "", unsupported(FamilySpace, cmd)
}

func joinInts(sep string, values ...int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, sep)
}
