package transport

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	customlog "github.com/open-teleop/robolink/pkg/log"
	serial "go.bug.st/serial"
)

// NewLineSession wraps a byte stream carrying newline-terminated frames.
// The returned session reads until rwc fails or is closed.
func NewLineSession(rwc io.ReadWriteCloser, remote string) Session {
	c := newConn(remote,
		func(text string) error {
			_, err := rwc.Write(append([]byte(text), '\n'))
			return err
		},
		rwc.Close,
	)
	go func() {
		defer c.Close()
		r := bufio.NewReader(rwc)
		for {
			line, err := r.ReadString('\n')
			if line = strings.TrimRight(line, "\r\n"); line != "" {
				if !c.deliver(line) {
					return
				}
			}
			if err != nil {
				return
			}
		}
	}()
	return c
}

// OpenSerialSession opens dev as a line session.
func OpenSerialSession(dev string, baud int) (Session, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial link '%s': %w", dev, err)
	}
	return NewLineSession(p, dev), nil
}

// SerialListener reopens a serial link whenever the previous session ends,
// producing one session at a time.
type SerialListener struct {
	dev      string
	baud     int
	backoff  Backoff
	logger   customlog.Logger
	sessions chan Session
	open     func(dev string, baud int) (Session, error)
}

var _ Listener = (*SerialListener)(nil)

// NewSerialListener creates a listener for dev.
func NewSerialListener(dev string, baud int, logger customlog.Logger) *SerialListener {
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	return &SerialListener{
		dev:      dev,
		baud:     baud,
		backoff:  Backoff{Initial: 500 * time.Millisecond, Max: 10 * time.Second},
		logger:   logger,
		sessions: make(chan Session, 1),
		open:     OpenSerialSession,
	}
}

// Accept returns the channel of new sessions.
func (l *SerialListener) Accept() <-chan Session {
	return l.sessions
}

// Run keeps the link open until ctx is cancelled.
func (l *SerialListener) Run(ctx context.Context) {
	for {
		s, err := l.open(l.dev, l.baud)
		if err != nil {
			wait := l.backoff.Next()
			l.logger.Warnf("%v (retry in %v)", err, wait)
			if !sleepCtx(ctx.Done(), wait) {
				return
			}
			continue
		}
		l.backoff.Reset()
		l.logger.Infof("Serial link %s open (session %s)", l.dev, s.ID())

		select {
		case l.sessions <- s:
		case <-ctx.Done():
			s.Close()
			return
		}
		select {
		case <-s.Done():
			l.logger.Warnf("Serial link %s closed", l.dev)
		case <-ctx.Done():
			s.Close()
			return
		}
		if !sleepCtx(ctx.Done(), l.backoff.Initial) {
			return
		}
	}
}
