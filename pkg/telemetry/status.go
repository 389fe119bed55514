// Package telemetry defines the device status snapshot and its wire encoding
// for the telemetry bus.
package telemetry

import (
	"fmt"
	"time"

	flatbuffers "github.com/google/flatbuffers/go"
	fb "github.com/open-teleop/robolink/pkg/flatbuffers/robolink/telemetry"
)

// Topics published on the telemetry bus.
const (
	TopicStatus = "robolink.status"
	TopicSafety = "robolink.safety"
)

// Safety events carried in Status.Event.
const (
	EventHeartbeatTimeout  = "heartbeat_timeout"
	EventDisconnect        = "disconnect"
	EventGripperInterlock  = "gripper_interlock"
	EventAuthFailure       = "auth_failure"
	EventReauthFailureStop = "reauth_failure"
)

// Status is a point-in-time copy of the control loop state. Values are
// copies; holders never share memory with the loop.
type Status struct {
	RobotID       string    `json:"robot_id"`
	Timestamp     time.Time `json:"timestamp"`
	LinkState     string    `json:"link_state"`
	SessionID     string    `json:"session_id,omitempty"`
	Wheels        [4]int    `json:"wheels"` // signed magnitudes, FL FR RL RR
	Joints        [5]int    `json:"joints"`
	Homing        bool      `json:"homing"`
	SafetyStop    bool      `json:"safety_stop"`
	RotationSpeed int       `json:"rotation_speed"`
	Event         string    `json:"event,omitempty"`
	// LastHeartbeat is zero unless a peer is authenticated.
	LastHeartbeat time.Time `json:"last_heartbeat,omitempty"`
}

var linkStates = map[string]fb.LinkState{
	"disconnected":  fb.LinkStateDisconnected,
	"connected":     fb.LinkStateConnected,
	"authenticated": fb.LinkStateAuthenticated,
}

// Encode serializes s as a StatusFrame.
func Encode(s Status) []byte {
	builder := flatbuffers.NewBuilder(256)

	robotID := builder.CreateString(s.RobotID)
	sessionID := builder.CreateString(s.SessionID)
	event := builder.CreateString(s.Event)

	fb.StatusFrameStartWheelsVector(builder, len(s.Wheels))
	for i := len(s.Wheels) - 1; i >= 0; i-- {
		builder.PrependInt16(int16(s.Wheels[i]))
	}
	wheels := builder.EndVector(len(s.Wheels))

	fb.StatusFrameStartJointsVector(builder, len(s.Joints))
	for i := len(s.Joints) - 1; i >= 0; i-- {
		builder.PrependInt16(int16(s.Joints[i]))
	}
	joints := builder.EndVector(len(s.Joints))

	fb.StatusFrameStart(builder)
	fb.StatusFrameAddTimestampNs(builder, s.Timestamp.UnixNano())
	fb.StatusFrameAddRobotId(builder, robotID)
	fb.StatusFrameAddLinkState(builder, linkStates[s.LinkState])
	fb.StatusFrameAddSessionId(builder, sessionID)
	fb.StatusFrameAddWheels(builder, wheels)
	fb.StatusFrameAddJoints(builder, joints)
	fb.StatusFrameAddHoming(builder, s.Homing)
	fb.StatusFrameAddSafetyStop(builder, s.SafetyStop)
	fb.StatusFrameAddRotationSpeed(builder, int16(s.RotationSpeed))
	fb.StatusFrameAddEvent(builder, event)
	if !s.LastHeartbeat.IsZero() {
		fb.StatusFrameAddLastHeartbeatNs(builder, s.LastHeartbeat.UnixNano())
	}
	fb.FinishStatusFrameBuffer(builder, fb.StatusFrameEnd(builder))

	return builder.FinishedBytes()
}

// Decode parses a StatusFrame produced by Encode.
func Decode(buf []byte) (s Status, err error) {
	if len(buf) < flatbuffers.SizeUOffsetT {
		return Status{}, fmt.Errorf("status frame too short: %d bytes", len(buf))
	}
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed status frame: %v", r)
		}
	}()

	frame := fb.GetRootAsStatusFrame(buf, 0)
	s = Status{
		RobotID:       string(frame.RobotId()),
		Timestamp:     time.Unix(0, frame.TimestampNs()),
		SessionID:     string(frame.SessionId()),
		Homing:        frame.Homing(),
		SafetyStop:    frame.SafetyStop(),
		RotationSpeed: int(frame.RotationSpeed()),
		Event:         string(frame.Event()),
	}
	if ns := frame.LastHeartbeatNs(); ns != 0 {
		s.LastHeartbeat = time.Unix(0, ns)
	}
	switch frame.LinkState() {
	case fb.LinkStateConnected:
		s.LinkState = "connected"
	case fb.LinkStateAuthenticated:
		s.LinkState = "authenticated"
	default:
		s.LinkState = "disconnected"
	}
	for i := 0; i < frame.WheelsLength() && i < len(s.Wheels); i++ {
		s.Wheels[i] = int(frame.Wheels(i))
	}
	for i := 0; i < frame.JointsLength() && i < len(s.Joints); i++ {
		s.Joints[i] = int(frame.Joints(i))
	}
	return s, nil
}
