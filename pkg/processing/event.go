package processing

import (
	"time"

	"github.com/open-teleop/robolink/pkg/telemetry"
)

// Constants for priority levels
const (
	PriorityHigh     = "HIGH"
	PriorityStandard = "STANDARD"
	PriorityLow      = "LOW"
)

// Event is a unit of work produced by the control loop and consumed off the
// loop by a processing pool.
type Event struct {
	Topic     string
	Status    telemetry.Status
	Timestamp int64
}

// NewEvent stamps a status snapshot for the given topic.
func NewEvent(topic string, status telemetry.Status) *Event {
	return &Event{
		Topic:     topic,
		Status:    status,
		Timestamp: time.Now().UnixNano(),
	}
}

// EventProcessor handles one event in a pool worker.
type EventProcessor func(ev *Event) error

// ProcessResult is the result of processing an event
type ProcessResult struct {
	Topic     string
	Timestamp int64
	Error     error
}

// ResultHandler is a function that handles processed results
type ResultHandler func(result *ProcessResult)
