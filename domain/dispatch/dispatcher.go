// Package dispatch samples operator input at a fixed rate and streams the
// resulting commands to the device.
package dispatch

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/open-teleop/robolink/domain/arm"
	"github.com/open-teleop/robolink/domain/drive"
	"github.com/open-teleop/robolink/pkg/config"
	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/protocol"
)

// Sender delivers one frame to the device.
type Sender interface {
	Send(text string) error
}

// Config holds dispatcher settings.
type Config struct {
	Mode           string // config.ModeSingle or config.ModeDual
	DriveInput     string // config.DriveInputVector or config.DriveInputAngle
	Family         protocol.Family
	Token          string
	Tick           time.Duration
	DeadZone       float64
	StopGraceTicks int
	PingInterval   time.Duration
	Drive          drive.Config
	Arm            arm.Config
}

// ConfigFrom converts a validated operator config.
func ConfigFrom(c *config.OperatorConfig) Config {
	return Config{
		Mode:           c.Dispatch.Mode,
		DriveInput:     c.Dispatch.DriveInput,
		Family:         protocol.Family(c.Link.Family),
		Token:          c.Auth.Token,
		Tick:           time.Duration(c.Dispatch.TickMs) * time.Millisecond,
		DeadZone:       c.Dispatch.DeadZone,
		StopGraceTicks: c.Dispatch.StopGraceTicks,
		PingInterval:   time.Duration(c.Dispatch.PingIntervalMs) * time.Millisecond,
		Drive:          drive.ConfigFrom(c.Drive),
		Arm:            arm.ConfigFrom(c.Arm),
	}
}

// Status is what the operator display shows about the link.
type Status struct {
	Connected     bool      `json:"connected"`
	Authenticated bool      `json:"authenticated"`
	LastReply     string    `json:"last_reply"`
	LastReplyAt   time.Time `json:"last_reply_at"`
	Sent          uint64    `json:"sent"`
	SendErrors    uint64    `json:"send_errors"`
	SafetyStops   uint64    `json:"safety_stops"`
}

// replyForce turns device SAFETY_STOP replies into a force reading for the
// local arm controller, so the operator's gripper target stops closing too.
type replyForce struct {
	blockedTicks int
}

func (f *replyForce) ReadForceSensor() float64 {
	if f.blockedTicks > 0 {
		return math.Inf(1)
	}
	return 0
}

// Dispatcher emits at most one frame per logical command per tick.
type Dispatcher struct {
	cfg    Config
	codec  protocol.Codec
	engine *drive.Engine
	arm    *arm.Controller
	force  *replyForce
	input  InputSource
	sender Sender
	logger customlog.Logger

	mu          sync.Mutex
	status      Status
	authPending bool
	authRetryAt time.Time
	idle        bool
	stopsLeft   int
	lastPing    time.Time
	sentSpeed   int
}

// New creates a dispatcher. The link starts disconnected.
func New(cfg Config, input InputSource, sender Sender, logger customlog.Logger) (*Dispatcher, error) {
	codec, err := protocol.NewCodec(cfg.Family)
	if err != nil {
		return nil, err
	}
	switch cfg.Mode {
	case config.ModeSingle, config.ModeDual:
	default:
		return nil, fmt.Errorf("unknown dispatch mode %q", cfg.Mode)
	}
	if cfg.Tick <= 0 {
		return nil, fmt.Errorf("dispatch tick must be positive, got %v", cfg.Tick)
	}
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	force := &replyForce{}
	return &Dispatcher{
		cfg:    cfg,
		codec:  codec,
		engine: drive.NewEngine(cfg.Drive),
		arm:    arm.New(cfg.Arm, force),
		force:  force,
		input:  input,
		sender: sender,
		logger: logger,
		idle:   true,
	}, nil
}

// Status returns a copy of the link status.
func (d *Dispatcher) Status() Status {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.status
}

// SetConnected is called by the link when the transport comes up or drops.
// Authentication restarts on every connection.
func (d *Dispatcher) SetConnected(connected bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.Connected = connected
	d.status.Authenticated = false
	d.authPending = false
	d.authRetryAt = time.Time{}
	d.idle = true
	d.stopsLeft = 0
	d.sentSpeed = 0
}

// OnReply records a device reply.
func (d *Dispatcher) OnReply(text string, at time.Time) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.status.LastReply = text
	d.status.LastReplyAt = at

	switch text {
	case protocol.RespAuthOK:
		d.status.Authenticated = true
		d.authPending = false
		d.logger.Infof("Device accepted credentials")
	case protocol.RespAuthFail:
		d.status.Authenticated = false
		d.authPending = false
		d.authRetryAt = at.Add(d.cfg.PingInterval)
		d.logger.Errorf("Device rejected credentials")
	case protocol.RespNotAuthenticated:
		if d.status.Authenticated {
			d.logger.Warnf("Device dropped authentication, re-authenticating")
		}
		d.status.Authenticated = false
	case protocol.RespSafetyStop:
		d.status.SafetyStops++
		d.force.blockedTicks = d.cfg.StopGraceTicks + 1
		d.logger.Warnf("Device refused gripper close: force over threshold")
	default:
		if reason, ok := protocol.IsErrorResponse(text); ok {
			d.logger.Warnf("Device reported error: %s", reason)
		}
	}
}

// Run ticks until ctx is cancelled.
func (d *Dispatcher) Run(ctx context.Context) error {
	ticker := time.NewTicker(d.cfg.Tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case now := <-ticker.C:
			d.Tick(now)
		}
	}
}

// Tick samples the input once and sends this period's frames. It returns the
// frames it attempted to send.
func (d *Dispatcher) Tick(now time.Time) []string {
	in := d.input.Snapshot()

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.force.blockedTicks > 0 {
		d.force.blockedTicks--
	}
	if !d.status.Connected {
		return nil
	}

	var cmds []protocol.Command
	if !d.status.Authenticated {
		if !d.authPending && !now.Before(d.authRetryAt) {
			d.authPending = true
			d.authRetryAt = now.Add(d.cfg.PingInterval)
			cmds = append(cmds, protocol.Auth{Token: d.cfg.Token})
		} else if d.authPending && !now.Before(d.authRetryAt) {
			d.authPending = false
		}
		return d.send(cmds)
	}

	if d.cfg.PingInterval > 0 && now.Sub(d.lastPing) >= d.cfg.PingInterval {
		d.lastPing = now
		cmds = append(cmds, protocol.Ping{})
	}
	if in.RotationSpeed != 0 && in.RotationSpeed != d.sentSpeed && d.codec.Family() == protocol.FamilyColon {
		d.sentSpeed = in.RotationSpeed
		cmds = append(cmds, protocol.NewSetRotationSpeed(in.RotationSpeed))
	}
	if cmd := d.driveCommand(in); cmd != nil {
		cmds = append(cmds, cmd)
	}
	if d.cfg.Mode == config.ModeDual {
		if in.Home && d.arm.RequestHome() {
			d.logger.Infof("Arm homing requested")
		}
		res := d.arm.Tick(arm.Input{
			Base:     in.BaseSlider,
			Shoulder: in.Arm.Y,
			Elbow:    in.Arm.X,
			Wrist:    in.WristSlider,
			Gripper:  in.GripperSlider,
		})
		cmds = append(cmds, res.Pose)
	}
	return d.send(cmds)
}

// driveCommand applies the stop window: an explicit stop as soon as input
// returns to neutral, repeated for StopGraceTicks more ticks, then silence.
func (d *Dispatcher) driveCommand(in InputState) protocol.Command {
	if in.Rotate != protocol.RotateStop {
		d.idle = false
		return d.rotateCommand(in)
	}
	if math.Abs(in.Drive.X) >= d.cfg.DeadZone || math.Abs(in.Drive.Y) >= d.cfg.DeadZone {
		d.idle = false
		return d.vectorCommand(in.Drive)
	}
	if d.idle {
		if d.stopsLeft == 0 {
			return nil
		}
		d.stopsLeft--
		return protocol.Stop{}
	}
	d.idle = true
	d.stopsLeft = d.cfg.StopGraceTicks
	return protocol.Stop{}
}

func (d *Dispatcher) vectorCommand(v Vector) protocol.Command {
	if d.codec.Family() == protocol.FamilyColon {
		return protocol.NewDriveVelocity(v.X, v.Y)
	}
	var speeds drive.Speeds
	if d.cfg.DriveInput == config.DriveInputAngle {
		speeds = d.engine.FromAngle(v.Polar())
	} else {
		speeds = d.engine.FromVelocity(v.X, v.Y)
	}
	return speeds.Command()
}

func (d *Dispatcher) rotateCommand(in InputState) protocol.Command {
	if d.codec.Family() == protocol.FamilyColon {
		return protocol.RotateDiscrete{Direction: in.Rotate}
	}
	// The space family has no rotate verb: spin the wheels directly.
	speed := in.RotationSpeed
	if speed == 0 {
		speed = d.cfg.Drive.RotationSpeed
	}
	p := int(math.Round(float64(protocol.NewSetRotationSpeed(speed).Value) * protocol.WheelMax / protocol.RotationSpeedMax))
	if in.Rotate == protocol.RotateRight {
		p = -p
	}
	return protocol.NewDriveMecanum(p, -p, p, -p)
}

func (d *Dispatcher) send(cmds []protocol.Command) []string {
	var sent []string
	for _, cmd := range cmds {
		text, err := d.codec.Encode(cmd)
		if err != nil {
			d.logger.Errorf("Cannot encode %v: %v", cmd, err)
			continue
		}
		sent = append(sent, text)
		if err := d.sender.Send(text); err != nil {
			d.status.SendErrors++
			d.logger.Warnf("Send %q failed: %v", text, err)
			continue
		}
		d.status.Sent++
	}
	return sent
}
