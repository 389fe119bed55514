package protocol

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat matches decode failures caused by wrong arity or bad tokens.
	ErrInvalidFormat = errors.New("invalid format")
	// ErrUnknownCommand matches decode failures for unrecognised verbs.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrUnsupported is returned by Encode for commands the family cannot carry.
	ErrUnsupported = errors.New("command not supported by wire family")
)

// ErrorKind classifies a DecodeError.
type ErrorKind int

const (
	InvalidFormat ErrorKind = iota + 1
	UnknownCommand
)

func (k ErrorKind) String() string {
	switch k {
	case InvalidFormat:
		return "InvalidFormat"
	case UnknownCommand:
		return "UnknownCommand"
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// DecodeError describes why a frame could not be turned into a Command.
type DecodeError struct {
	Kind   ErrorKind
	Input  string
	Reason string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %q: %s: %s", e.Input, e.Kind, e.Reason)
}

// Is lets errors.Is match the package sentinels.
func (e *DecodeError) Is(target error) bool {
	switch target {
	case ErrInvalidFormat:
		return e.Kind == InvalidFormat
	case ErrUnknownCommand:
		return e.Kind == UnknownCommand
	}
	return false
}

func invalidFormat(input, format string, args ...interface{}) error {
	return &DecodeError{Kind: InvalidFormat, Input: input, Reason: fmt.Sprintf(format, args...)}
}

func unknownCommand(input, verb string) error {
	return &DecodeError{Kind: UnknownCommand, Input: input, Reason: fmt.Sprintf("unknown verb %q", verb)}
}
