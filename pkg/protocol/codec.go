package protocol

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Family names a wire encoding.
type Family string

const (
	// FamilySpace is the space-separated family: MECANUM a b c d, ARM a b c d e.
	FamilySpace Family = "space"
	// FamilyColon is the colon-separated family: A:..., M:vx:vy, C:dir, S:v.
	FamilyColon Family = "colon"
)

const authPrefix = "AUTH:"

// Codec turns text frames into Commands and back. Decoders clamp numeric
// fields; only arity and non-numeric tokens are rejected.
type Codec interface {
	Family() Family
	Decode(text string) (Command, error)
	Encode(cmd Command) (string, error)
}

// NewCodec returns the codec for family.
func NewCodec(family Family) (Codec, error) {
	switch family {
	case FamilySpace:
		return SpaceCodec{}, nil
	case FamilyColon:
		return ColonCodec{}, nil
	}
	return nil, fmt.Errorf("unknown wire family %q", family)
}

// decodeCommon handles the verbs both families share. ok is false when text
// is not one of them.
func decodeCommon(text string) (cmd Command, ok bool, err error) {
	if strings.HasPrefix(text, authPrefix) {
		return Auth{Token: strings.TrimPrefix(text, authPrefix)}, true, nil
	}
	switch text {
	case "PING":
		return Ping{}, true, nil
	case "STOP":
		return Stop{}, true, nil
	}
	return nil, false, nil
}

// encodeCommon renders the verbs both families share.
func encodeCommon(cmd Command) (string, bool, error) {
	switch c := cmd.(type) {
	case Auth:
		if c.Token != strings.TrimSpace(c.Token) || strings.ContainsAny(c.Token, "\r\n") {
			return "", true, fmt.Errorf("auth token must not carry surrounding whitespace or line breaks: %w", ErrUnsupported)
		}
		return authPrefix + c.Token, true, nil
	case Ping:
		return "PING", true, nil
	case Stop:
		return "STOP", true, nil
	}
	return "", false, nil
}

func normalize(text string) string {
	return strings.TrimSpace(text)
}

// parseInts and parseFloats accept well-formed numbers beyond the native
// range; strconv saturates them and the command constructors clamp.
func parseInts(input string, tokens []string) ([]int, error) {
	out := make([]int, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.Atoi(tok)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return nil, invalidFormat(input, "field %d: not an integer: %q", i+1, tok)
		}
		out[i] = v
	}
	return out, nil
}

func parseFloats(input string, tokens []string) ([]float64, error) {
	out := make([]float64, len(tokens))
	for i, tok := range tokens {
		v, err := strconv.ParseFloat(tok, 64)
		if (err != nil && !errors.Is(err, strconv.ErrRange)) || math.IsNaN(v) {
			return nil, invalidFormat(input, "field %d: not a number: %q", i+1, tok)
		}
		out[i] = v
	}
	return out, nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func unsupported(family Family, cmd Command) error {
	return fmt.Errorf("%s in %s family: %w", cmd, family, ErrUnsupported)
}
