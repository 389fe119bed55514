package transport

import (
	"errors"
	"syscall"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	customlog "github.com/open-teleop/robolink/pkg/log"
)

// WebSocketAcceptor turns websocket upgrades on a fiber route into sessions.
type WebSocketAcceptor struct {
	sessions chan Session
	logger   customlog.Logger
}

var _ Listener = (*WebSocketAcceptor)(nil)

// NewWebSocketAcceptor creates an acceptor. Connections beyond backlog
// pending sessions are refused.
func NewWebSocketAcceptor(backlog int, logger customlog.Logger) *WebSocketAcceptor {
	if backlog <= 0 {
		backlog = 1
	}
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	return &WebSocketAcceptor{
		sessions: make(chan Session, backlog),
		logger:   logger,
	}
}

// Accept returns the channel of new sessions.
func (a *WebSocketAcceptor) Accept() <-chan Session {
	return a.sessions
}

// RequireUpgrade rejects plain HTTP requests on websocket routes.
func RequireUpgrade(c *fiber.Ctx) error {
	if websocket.IsWebSocketUpgrade(c) {
		return c.Next()
	}
	return fiber.ErrUpgradeRequired
}

// Handler returns the fiber handler to mount on the control route.
func (a *WebSocketAcceptor) Handler() fiber.Handler {
	return websocket.New(a.serve)
}

// serve owns the connection for its whole lifetime; the websocket is only
// valid until it returns.
func (a *WebSocketAcceptor) serve(ws *websocket.Conn) {
	remote := ws.RemoteAddr().String()
	c := newConn(remote,
		func(text string) error { return ws.WriteMessage(websocket.TextMessage, []byte(text)) },
		ws.Close,
	)

	select {
	case a.sessions <- c:
	default:
		a.logger.Warnf("Control WS %s refused: session backlog full", remote)
		ws.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseTryAgainLater, "busy"))
		c.Close()
		c.quiesce()
		return
	}
	a.logger.Infof("Control WS connected: %s (session %s)", remote, c.ID())

	for {
		mt, msg, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				a.logger.Errorf("Control WS read error: %v", err)
			} else if err != websocket.ErrCloseSent && !errors.Is(err, syscall.EPIPE) && !errors.Is(err, syscall.ECONNRESET) {
				a.logger.Infof("Control WS connection closed: %v", err)
			} else {
				a.logger.Infof("Control WS connection closed normally.")
			}
			break
		}
		if mt != websocket.TextMessage {
			a.logger.Infof("Ignoring non-text Control WS message type: %d", mt)
			continue
		}
		if !c.deliver(string(msg)) {
			break
		}
	}
	c.Close()
	c.quiesce()
	a.logger.Infof("Control WS disconnected: %s", remote)
}
