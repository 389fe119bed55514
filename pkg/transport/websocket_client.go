package transport

import (
	"context"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	customlog "github.com/open-teleop/robolink/pkg/log"
)

const clientWriteTimeout = time.Second

// ClientHooks receive link events from a Client. Hooks run on the client's
// read goroutine and must not block.
type ClientHooks struct {
	OnConnect    func(s Session)
	OnMessage    func(text string, at time.Time)
	OnDisconnect func(err error)
}

// Client keeps a websocket session to the device open, redialing with
// backoff whenever it drops.
type Client struct {
	url     string
	backoff Backoff
	hooks   ClientHooks
	logger  customlog.Logger
	dialer  *websocket.Dialer

	mu      sync.RWMutex
	current Session
}

// NewClient creates a client for url.
func NewClient(url string, initial, max time.Duration, hooks ClientHooks, logger customlog.Logger) *Client {
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	return &Client{
		url:     url,
		backoff: Backoff{Initial: initial, Max: max},
		hooks:   hooks,
		logger:  logger,
		dialer:  &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
	}
}

// Connected reports whether a session is currently open.
func (c *Client) Connected() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.current != nil
}

// Send writes to the current session.
func (c *Client) Send(text string) error {
	c.mu.RLock()
	s := c.current
	c.mu.RUnlock()
	if s == nil {
		return ErrDisconnected
	}
	return s.Send(text)
}

// Run dials and serves sessions until ctx is cancelled.
func (c *Client) Run(ctx context.Context) error {
	for {
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			wait := c.backoff.Next()
			c.logger.Warnf("Dial %s failed: %v (retry in %v)", c.url, err, wait)
			if !sleepCtx(ctx.Done(), wait) {
				return ctx.Err()
			}
			continue
		}
		c.backoff.Reset()
		err = c.serve(ctx, ws)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		wait := c.backoff.Next()
		c.logger.Warnf("Link to %s lost: %v (reconnect in %v)", c.url, err, wait)
		if !sleepCtx(ctx.Done(), wait) {
			return ctx.Err()
		}
	}
}

func (c *Client) serve(ctx context.Context, ws *websocket.Conn) error {
	s := newConn(ws.RemoteAddr().String(),
		func(text string) error {
			ws.SetWriteDeadline(time.Now().Add(clientWriteTimeout))
			return ws.WriteMessage(websocket.TextMessage, []byte(text))
		},
		ws.Close,
	)
	c.mu.Lock()
	c.current = s
	c.mu.Unlock()
	c.logger.Infof("Connected to %s (session %s)", c.url, s.ID())
	if c.hooks.OnConnect != nil {
		c.hooks.OnConnect(s)
	}

	stop := context.AfterFunc(ctx, func() { s.Close() })
	defer stop()

	var readErr error
	for {
		mt, msg, err := ws.ReadMessage()
		if err != nil {
			readErr = err
			break
		}
		if mt != websocket.TextMessage {
			continue
		}
		if c.hooks.OnMessage != nil {
			c.hooks.OnMessage(string(msg), time.Now())
		}
	}

	c.mu.Lock()
	c.current = nil
	c.mu.Unlock()
	s.Close()
	if c.hooks.OnDisconnect != nil {
		c.hooks.OnDisconnect(readErr)
	}
	return readErr
}
