package protocol

import "strings"

// ColonCodec implements the colon-separated family used by the velocity and
// dual-joystick clients.
type ColonCodec struct{}

var _ Codec = ColonCodec{}

func (ColonCodec) Family() Family { return FamilyColon }

func (ColonCodec) Decode(text string) (Command, error) {
	input := normalize(text)
	if input == "" {
		return nil, invalidFormat(input, "empty frame")
	}
	if cmd, ok, err := decodeCommon(input); ok {
		return cmd, err
	}

	parts := strings.Split(input, ":")
	args := parts[1:]
	switch parts[0] {
	case "H":
		if len(args) != 0 {
			return nil, invalidFormat(input, "expected 0 fields, got %d", len(args))
		}
		return Home{}, nil
	case "A":
		if len(args) != 5 {
			return nil, invalidFormat(input, "expected 5 fields, got %d", len(args))
		}
		v, err := parseInts(input, args)
		if err != nil {
			return nil, err
		}
		return NewArmPose(v[0], v[1], v[2], v[3], v[4]), nil
	case "M":
		if len(args) != 2 {
			return nil, invalidFormat(input, "expected 2 fields, got %d", len(args))
		}
		v, err := parseFloats(input, args)
		if err != nil {
			return nil, err
		}
		return NewDriveVelocity(v[0], v[1]), nil
	case "C":
		if len(args) != 1 {
			return nil, invalidFormat(input, "expected 1 field, got %d", len(args))
		}
		switch args[0] {
		case "rotleft":
			return RotateDiscrete{Direction: RotateLeft}, nil
		case "rotright":
			return RotateDiscrete{Direction: RotateRight}, nil
		case "stop":
			return RotateDiscrete{Direction: RotateStop}, nil
		}
		return nil, invalidFormat(input, "unknown rotation %q", args[0])
	case "S":
		if len(args) != 1 {
			return nil, invalidFormat(input, "expected 1 field, got %d", len(args))
		}
		v, err := parseInts(input, args)
		if err != nil {
			return nil, err
		}
		return NewSetRotationSpeed(v[0]), nil
	}
	return nil, unknownCommand(input, parts[0])
}

func (ColonCodec) Encode(cmd Command) (string, error) {
	if s, ok, err := encodeCommon(cmd); ok {
		return s, err
	}
	switch c := clampCommand(cmd).(type) {
	case Home:
		return "H", nil
	case ArmPose:
		return "A:" + joinInts(":", c.Joints[:]...), nil
	case DriveVelocity:
		return "M:" + formatFloat(c.VX) + ":" + formatFloat(c.VY), nil
	case RotateDiscrete:
		return "C:" + c.Direction.String(), nil
	case SetRotationSpeed:
		return "S:" + joinInts("", c.Value), nil
	}
	return "", unsupported(FamilyColon, cmd)
}
