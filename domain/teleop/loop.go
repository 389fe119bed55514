// Package teleop runs the device-side control loop: one goroutine owns the
// session guard, wheel states and joint targets, and services transport
// input, the heartbeat deadline and the fixed-rate control tick in order.
package teleop

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/open-teleop/robolink/domain/arm"
	"github.com/open-teleop/robolink/domain/diagnostic"
	"github.com/open-teleop/robolink/domain/drive"
	"github.com/open-teleop/robolink/domain/session"
	"github.com/open-teleop/robolink/pkg/actuator"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/processing"
	"github.com/open-teleop/robolink/pkg/protocol"
	"github.com/open-teleop/robolink/pkg/telemetry"
	"github.com/open-teleop/robolink/pkg/transport"
	"github.com/open-teleop/robolink/services"
)

// Default loop timing.
const (
	DefaultTick           = 50 * time.Millisecond
	DefaultPollInterval   = 5 * time.Millisecond
	DefaultStatusInterval = 200 * time.Millisecond
)

// EventSink takes telemetry events off the loop. processing.EventDirector
// satisfies it.
type EventSink interface {
	Route(ev *processing.Event) error
}

// Options configures a Loop. Listener, Codec and Actuator are required.
type Options struct {
	RobotID  string
	Listener transport.Listener
	Codec    protocol.Codec
	Verifier session.Verifier
	Actuator actuator.Actuator
	Drive    drive.Config
	Arm      arm.Config

	HeartbeatTimeout time.Duration
	Tick             time.Duration
	PollInterval     time.Duration
	StatusInterval   time.Duration
	Clock            session.Clock

	Logger      customlog.Logger
	Status      services.StatusService
	Diagnostics *diagnostic.DiagnosticService
	Events      EventSink
}

// Loop is the firmware control loop. Step and Run must be called from one
// goroutine only.
type Loop struct {
	robotID  string
	listener transport.Listener
	act      actuator.Actuator
	guard    *session.Guard
	drive    *drive.Drive
	arm      *arm.Controller
	clock    session.Clock
	logger   customlog.Logger

	status services.StatusService
	diag   *diagnostic.DiagnosticService
	events EventSink

	tick           time.Duration
	pollInterval   time.Duration
	statusInterval time.Duration

	sess          transport.Session
	lastTick      time.Time
	lastStatus    time.Time
	writtenPose   protocol.ArmPose
	poseSynced    bool
	safetyLatched bool
}

// NewLoop wires the guard, drive and arm controller around one actuator set.
func NewLoop(opts Options) (*Loop, error) {
	if opts.Listener == nil || opts.Codec == nil || opts.Actuator == nil {
		return nil, fmt.Errorf("control loop requires a listener, a codec and an actuator")
	}
	if opts.Logger == nil {
		opts.Logger = customlog.NewDiscardLogger()
	}
	if opts.Clock == nil {
		opts.Clock = session.SystemClock{}
	}
	if opts.Tick <= 0 {
		opts.Tick = DefaultTick
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = DefaultPollInterval
	}
	if opts.StatusInterval <= 0 {
		opts.StatusInterval = DefaultStatusInterval
	}

	l := &Loop{
		robotID:        opts.RobotID,
		listener:       opts.Listener,
		act:            opts.Actuator,
		clock:          opts.Clock,
		logger:         opts.Logger.WithField("component", "loop"),
		status:         opts.Status,
		diag:           opts.Diagnostics,
		events:         opts.Events,
		tick:           opts.Tick,
		pollInterval:   opts.PollInterval,
		statusInterval: opts.StatusInterval,
	}
	l.drive = drive.New(opts.Drive, opts.Actuator, opts.Logger)
	l.arm = arm.New(opts.Arm, opts.Actuator)
	l.guard = session.NewGuard(session.Options{
		Verifier: opts.Verifier,
		Codec:    opts.Codec,
		Stopper:  l,
		Clock:    opts.Clock,
		Timeout:  opts.HeartbeatTimeout,
		Logger:   opts.Logger.WithField("component", "guard"),
	})
	return l, nil
}

// StopAll is the fail-safe: every wheel is stopped and written at once, and
// any homing sequence is abandoned.
func (l *Loop) StopAll() error {
	if l.arm.CancelHome() {
		l.logger.Infof("Homing cancelled by stop")
	}
	err := l.drive.StopAll()
	if err != nil {
		l.count(diagnostic.CounterActuatorErrors)
	}
	return err
}

// Run steps the loop until ctx is cancelled, then stops all motion.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Infof("Control loop started (tick %v, poll %v)", l.tick, l.pollInterval)
	ticker := time.NewTicker(l.pollInterval)
	defer ticker.Stop()

	for {
		l.Step()
		select {
		case <-ctx.Done():
			l.shutdown()
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func (l *Loop) shutdown() {
	l.logger.Infof("Control loop stopping")
	if l.sess != nil {
		l.sess.Close()
		l.sess = nil
	}
	l.guard.OnDisconnect()
	if err := l.StopAll(); err != nil {
		l.logger.Errorf("Final stop failed: %v", err)
	}
	l.publishStatus(l.clock.Now(), "")
}

// Step runs one iteration: accept, disconnect check, inbound frames,
// heartbeat deadline, control tick, status snapshot.
func (l *Loop) Step() {
	l.acceptPending()

	if l.sess != nil {
		select {
		case <-l.sess.Done():
			// A dead link preempts any frames still buffered from it.
			l.dropSession()
		default:
			l.drainInbound()
		}
	}

	if l.guard.TimerTick() {
		l.recordSafety(diagnostic.CounterHeartbeatTimeout, telemetry.EventHeartbeatTimeout)
		l.send(protocol.RespStopped)
	}

	now := l.clock.Now()
	if l.lastTick.IsZero() || now.Sub(l.lastTick) >= l.tick {
		l.lastTick = now
		l.controlTick()
	}

	if now.Sub(l.lastStatus) >= l.statusInterval {
		l.publishStatus(now, "")
	}
}

func (l *Loop) acceptPending() {
	for {
		select {
		case s, ok := <-l.listener.Accept():
			if !ok {
				return
			}
			if l.sess != nil {
				select {
				case <-l.sess.Done():
					// Died before it was replaced: still a disconnect.
					l.dropSession()
				default:
					l.logger.Warnf("Closing session %s for new connection from %s", l.sess.ID(), s.RemoteAddr())
					l.sess.Close()
				}
			}
			l.sess = s
			l.guard.OnConnect(s.ID())
			l.count(diagnostic.CounterSessions)
			l.logger.WithFields(map[string]interface{}{
				"session": s.ID(),
				"remote":  s.RemoteAddr(),
			}).Infof("Session connected")
		default:
			return
		}
	}
}

func (l *Loop) dropSession() {
	l.logger.Infof("Session %s closed by peer", l.sess.ID())
	l.sess = nil
	l.guard.OnDisconnect()
	l.recordSafety(diagnostic.CounterDisconnects, telemetry.EventDisconnect)
}

func (l *Loop) drainInbound() {
	for {
		msg, ok := l.sess.Poll()
		if !ok {
			return
		}
		l.handleMessage(msg)
		if l.sess == nil {
			return
		}
	}
}

func (l *Loop) handleMessage(msg string) {
	wasAuthenticated := l.guard.Authenticated()
	action := l.guard.OnMessage(msg)

	switch {
	case errors.Is(action.Err, session.ErrAuthFailed):
		if wasAuthenticated {
			l.recordSafety(diagnostic.CounterAuthFailures, telemetry.EventReauthFailureStop)
		} else if l.diag != nil {
			l.diag.RecordEvent(diagnostic.CounterAuthFailures, telemetry.EventAuthFailure)
		}
	case errors.Is(action.Err, session.ErrNotAuthenticated):
		l.count(diagnostic.CounterNotAuthenticated)
	case action.Err != nil:
		l.logger.Debugf("Rejected frame %q: %v", msg, action.Err)
		l.count(diagnostic.CounterProtocolErrors)
	}

	reply := action.Reply
	if action.Command != nil {
		l.count(diagnostic.CounterCommands)
		reply = l.apply(action.Command)
	}
	if reply != "" {
		l.send(reply)
	}
}

// apply executes an authenticated command and returns the wire reply.
func (l *Loop) apply(cmd protocol.Command) string {
	l.logger.Debugf("Applying %v", cmd)
	switch c := cmd.(type) {
	case protocol.DriveMecanum:
		l.drive.ApplyMecanum(c)
	case protocol.DriveVelocity:
		l.drive.ApplyVelocity(c)
	case protocol.RotateDiscrete:
		l.drive.Rotate(c.Direction)
	case protocol.SetRotationSpeed:
		l.drive.SetRotationSpeed(c.Value)
	case protocol.Stop:
		if err := l.StopAll(); err != nil {
			l.logger.Errorf("Stop failed: %v", err)
		}
		return protocol.RespStopped
	case protocol.ArmPose:
		res := l.arm.SetTargets(c)
		l.safetyLatched = res.SafetyStop
		if res.SafetyStop {
			l.logger.Warnf("Gripper close refused at force %.0f", res.Force)
			l.recordSafety(diagnostic.CounterSafetyStops, telemetry.EventGripperInterlock)
			return protocol.RespSafetyStop
		}
	case protocol.Home:
		if l.arm.RequestHome() {
			l.logger.Infof("Homing started")
		}
	default:
		return protocol.RespUnknownCommand
	}
	return protocol.RespOK
}

// controlTick advances homing and pushes changed outputs to the actuators.
func (l *Loop) controlTick() {
	res := l.arm.Tick(arm.Input{})
	if res.HomingDone {
		l.logger.Infof("Homing complete")
	}
	if !l.poseSynced || res.Pose != l.writtenPose {
		l.writePose(res.Pose)
	}
	if err := l.drive.Flush(); err != nil {
		l.logger.Errorf("Wheel write failed: %v", err)
		l.count(diagnostic.CounterActuatorErrors)
	}
}

func (l *Loop) writePose(pose protocol.ArmPose) {
	ok := true
	for i, angle := range pose.Joints {
		if l.poseSynced && l.writtenPose.Joints[i] == angle {
			continue
		}
		if err := l.act.SetJoint(i, angle); err != nil {
			l.logger.Errorf("Joint %d write failed: %v", i, err)
			l.count(diagnostic.CounterActuatorErrors)
			ok = false
		}
	}
	if ok {
		l.writtenPose = pose
		l.poseSynced = true
	}
}

func (l *Loop) send(reply string) {
	if l.sess == nil {
		return
	}
	if err := l.sess.Send(reply); err != nil {
		l.logger.Warnf("Reply %q to session %s failed: %v", reply, l.sess.ID(), err)
	}
}

func (l *Loop) count(counter string) {
	if l.diag != nil {
		l.diag.Inc(counter)
	}
}

func (l *Loop) recordSafety(counter, event string) {
	if l.diag != nil {
		l.diag.RecordEvent(counter, event)
	}
	l.publishStatus(l.clock.Now(), event)
}

// Snapshot copies the loop state.
func (l *Loop) Snapshot() telemetry.Status {
	s := telemetry.Status{
		RobotID:       l.robotID,
		Timestamp:     l.clock.Now(),
		LinkState:     l.guard.State().String(),
		SessionID:     l.guard.SessionID(),
		Homing:        l.arm.Homing(),
		SafetyStop:    l.safetyLatched,
		RotationSpeed: l.drive.RotationSpeed(),
	}
	for i, w := range l.drive.Wheels() {
		switch w.Direction {
		case actuator.Forward:
			s.Wheels[i] = w.Magnitude
		case actuator.Reverse:
			s.Wheels[i] = -w.Magnitude
		}
	}
	s.Joints = l.arm.WirePose().Joints
	if l.guard.Authenticated() {
		s.LastHeartbeat = l.guard.LastHeartbeat()
	}
	return s
}

// Guard exposes the session state for inspection.
func (l *Loop) Guard() *session.Guard {
	return l.guard
}

func (l *Loop) publishStatus(now time.Time, event string) {
	s := l.Snapshot()
	s.Event = event
	if event == "" {
		l.lastStatus = now
	}
	if l.status != nil {
		l.status.Update(s)
	}
	if l.events == nil {
		return
	}
	topic := telemetry.TopicStatus
	if event != "" {
		topic = telemetry.TopicSafety
	}
	if err := l.events.Route(processing.NewEvent(topic, s)); err != nil {
		l.logger.Debugf("Telemetry event dropped: %v", err)
	}
}
