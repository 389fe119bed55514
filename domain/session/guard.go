// Package session gates the control link: it authenticates the peer,
// tracks heartbeats, and forces a stop whenever trust is lost.
package session

import (
	"errors"
	"time"

	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/protocol"
)

var (
	// ErrAuthFailed is reported when a presented token is rejected.
	ErrAuthFailed = errors.New("authentication failed")
	// ErrNotAuthenticated is reported for commands sent before AUTH_OK.
	ErrNotAuthenticated = errors.New("not authenticated")
	// ErrHeartbeatTimeout is reported when an authenticated peer goes quiet.
	ErrHeartbeatTimeout = errors.New("heartbeat timeout")
	// ErrNotConnected is reported for frames arriving without a session.
	ErrNotConnected = errors.New("no session connected")
)

// DefaultHeartbeatTimeout is the liveness deadline for authenticated sessions.
const DefaultHeartbeatTimeout = 10 * time.Second

// State of the control link.
type State int

const (
	Disconnected State = iota
	Connected
	Authenticated
)

func (s State) String() string {
	switch s {
	case Connected:
		return "connected"
	case Authenticated:
		return "authenticated"
	default:
		return "disconnected"
	}
}

// Clock abstracts time so timeouts can be tested.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

// MotionStopper halts all motion. It must be idempotent.
type MotionStopper interface {
	StopAll() error
}

// Action tells the caller what to do with a frame.
type Action struct {
	// Reply is sent back to the peer when non-empty.
	Reply string
	// Command is forwarded to the motion layer when non-nil.
	Command protocol.Command
	// Err classifies rejected frames.
	Err error
}

// Options configures a Guard.
type Options struct {
	Verifier Verifier
	Codec    protocol.Codec
	Stopper  MotionStopper
	Clock    Clock
	Timeout  time.Duration
	Logger   customlog.Logger
}

// Guard is the per-link authentication and heartbeat state machine. It is
// driven from a single goroutine.
type Guard struct {
	verifier Verifier
	codec    protocol.Codec
	stopper  MotionStopper
	clock    Clock
	timeout  time.Duration
	logger   customlog.Logger

	state         State
	sessionID     string
	lastHeartbeat time.Time
}

// NewGuard creates a guard in the Disconnected state.
func NewGuard(opts Options) *Guard {
	if opts.Clock == nil {
		opts.Clock = SystemClock{}
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultHeartbeatTimeout
	}
	if opts.Logger == nil {
		opts.Logger = customlog.NewDiscardLogger()
	}
	return &Guard{
		verifier: opts.Verifier,
		codec:    opts.Codec,
		stopper:  opts.Stopper,
		clock:    opts.Clock,
		timeout:  opts.Timeout,
		logger:   opts.Logger,
	}
}

// State returns the current link state.
func (g *Guard) State() State { return g.state }

// SessionID returns the identity of the connected transport, if any.
func (g *Guard) SessionID() string { return g.sessionID }

// Authenticated reports whether commands are currently honored.
func (g *Guard) Authenticated() bool { return g.state == Authenticated }

// LastHeartbeat returns when the peer last proved liveness.
func (g *Guard) LastHeartbeat() time.Time { return g.lastHeartbeat }

// OnConnect binds a new transport. Any previous session is dropped first.
func (g *Guard) OnConnect(id string) {
	if g.state != Disconnected {
		g.logger.Warnf("Session %s replaced by %s", g.sessionID, id)
		g.OnDisconnect()
	}
	g.state = Connected
	g.sessionID = id
	g.logger.Infof("Session %s connected, awaiting AUTH", id)
}

// OnDisconnect drops the session and stops all motion.
func (g *Guard) OnDisconnect() {
	if g.state == Disconnected {
		return
	}
	g.logger.Infof("Session %s disconnected (%s)", g.sessionID, g.state)
	g.state = Disconnected
	g.sessionID = ""
	g.stop("disconnect")
}

// OnMessage classifies one inbound frame.
func (g *Guard) OnMessage(text string) Action {
	if g.state == Disconnected {
		return Action{Err: ErrNotConnected}
	}

	cmd, err := g.codec.Decode(text)
	if auth, ok := cmd.(protocol.Auth); err == nil && ok {
		return g.authenticate(auth)
	}
	if g.state != Authenticated {
		return Action{Reply: protocol.RespNotAuthenticated, Err: ErrNotAuthenticated}
	}
	if err != nil {
		if errors.Is(err, protocol.ErrUnknownCommand) {
			return Action{Reply: protocol.RespUnknownCommand, Err: err}
		}
		var decodeErr *protocol.DecodeError
		reason := err.Error()
		if errors.As(err, &decodeErr) {
			reason = decodeErr.Reason
		}
		return Action{Reply: protocol.ErrorResponse(reason), Err: err}
	}

	g.lastHeartbeat = g.clock.Now()
	if _, ok := cmd.(protocol.Ping); ok {
		return Action{Reply: protocol.RespPong}
	}
	return Action{Command: cmd}
}

// TimerTick enforces the heartbeat deadline. It returns true when the
// session was deauthenticated by this call.
func (g *Guard) TimerTick() bool {
	if g.state != Authenticated {
		return false
	}
	elapsed := g.clock.Now().Sub(g.lastHeartbeat)
	if elapsed <= g.timeout {
		return false
	}
	g.logger.Warnf("Session %s: no heartbeat for %v, stopping", g.sessionID, elapsed)
	g.state = Connected
	g.stop("heartbeat timeout")
	return true
}

func (g *Guard) authenticate(auth protocol.Auth) Action {
	if g.verifier != nil && g.verifier.Verify(auth.Token) {
		g.state = Authenticated
		g.lastHeartbeat = g.clock.Now()
		g.logger.Infof("Session %s authenticated", g.sessionID)
		return Action{Reply: protocol.RespAuthOK}
	}
	wasAuthenticated := g.state == Authenticated
	g.state = Connected
	g.logger.Warnf("Session %s failed authentication", g.sessionID)
	if wasAuthenticated {
		g.stop("re-authentication failed")
	}
	return Action{Reply: protocol.RespAuthFail, Err: ErrAuthFailed}
}

func (g *Guard) stop(reason string) {
	if g.stopper == nil {
		return
	}
	if err := g.stopper.StopAll(); err != nil {
		g.logger.Errorf("Stop after %s failed: %v", reason, err)
	}
}
