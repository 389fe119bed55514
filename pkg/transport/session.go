// Package transport carries text frames between the operator and the device
// over websocket or serial links.
package transport

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

var (
	// ErrClosed is returned by Send after the session ended.
	ErrClosed = errors.New("session closed")
	// ErrDisconnected is returned when a write fails and the link is torn down.
	ErrDisconnected = errors.New("transport disconnected")
)

// DefaultInboundBuffer is how many unread frames a session holds before the
// reader blocks.
const DefaultInboundBuffer = 64

// Session is one bidirectional text link. Send may be called from any
// goroutine; Poll is meant for a single consumer.
type Session interface {
	// ID is a unique identity for this connection.
	ID() string
	RemoteAddr() string
	Send(text string) error
	// Poll returns the next received frame without blocking.
	Poll() (string, bool)
	// Done is closed once the link is gone.
	Done() <-chan struct{}
	Close() error
}

// Listener hands newly connected sessions to the control loop.
type Listener interface {
	Accept() <-chan Session
}

// conn implements Session on top of a write function and a reader that
// pushes frames with deliver.
type conn struct {
	id      string
	remote  string
	inbound chan string
	done    chan struct{}
	once    sync.Once

	writeMu sync.Mutex
	write   func(text string) error
	closeFn func() error
}

func newConn(remote string, write func(string) error, closeFn func() error) *conn {
	return &conn{
		id:      uuid.New().String(),
		remote:  remote,
		inbound: make(chan string, DefaultInboundBuffer),
		done:    make(chan struct{}),
		write:   write,
		closeFn: closeFn,
	}
}

func (c *conn) ID() string            { return c.id }
func (c *conn) RemoteAddr() string    { return c.remote }
func (c *conn) Done() <-chan struct{} { return c.done }

func (c *conn) Send(text string) error {
	c.writeMu.Lock()
	select {
	case <-c.done:
		c.writeMu.Unlock()
		return ErrClosed
	default:
	}
	err := c.write(text)
	c.writeMu.Unlock()
	if err != nil {
		c.Close()
		return fmt.Errorf("%w: %v", ErrDisconnected, err)
	}
	return nil
}

func (c *conn) Poll() (string, bool) {
	select {
	case msg := <-c.inbound:
		return msg, true
	default:
		return "", false
	}
}

func (c *conn) Close() error {
	var err error
	c.once.Do(func() {
		close(c.done)
		if c.closeFn != nil {
			err = c.closeFn()
		}
	})
	return err
}

// quiesce waits for an in-flight Send. After Close and quiesce no further
// writes reach the underlying connection.
func (c *conn) quiesce() {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
}

// deliver queues a received frame. It blocks while the buffer is full and
// returns false once the session is closed.
func (c *conn) deliver(msg string) bool {
	select {
	case c.inbound <- msg:
		return true
	case <-c.done:
		return false
	}
}
