// Package zeromq carries device telemetry over ZeroMQ PUB/SUB sockets.
// Each message is two frames: the topic string, then a StatusFrame
// flatbuffer.
package zeromq

import (
	"errors"
	"fmt"
	"sync"

	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/telemetry"
	"github.com/pebbe/zmq4"
)

// ErrPublisherClosed is returned by Publish after Close.
var ErrPublisherClosed = errors.New("telemetry publisher is closed")

// TelemetryPublisher publishes status frames on a bound PUB socket.
type TelemetryPublisher struct {
	socket  *zmq4.Socket
	address string
	logger  customlog.Logger
	mu      sync.Mutex
	sent    int64
}

// NewTelemetryPublisher binds a PUB socket to address.
func NewTelemetryPublisher(address string, logger customlog.Logger) (*TelemetryPublisher, error) {
	socket, err := zmq4.NewSocket(zmq4.PUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create PUB socket: %w", err)
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Bind(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to bind to %s: %w", address, err)
	}

	logger.Infof("Telemetry publisher bound on %s", address)

	return &TelemetryPublisher{
		socket:  socket,
		address: address,
		logger:  logger,
	}, nil
}

// Publish sends status under topic. Safe for concurrent use.
func (p *TelemetryPublisher) Publish(topic string, status telemetry.Status) error {
	payload := telemetry.Encode(status)

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.socket == nil {
		return ErrPublisherClosed
	}

	// Send two messages in sequence (topic first, then payload)
	if _, err := p.socket.Send(topic, zmq4.SNDMORE); err != nil {
		return fmt.Errorf("failed to send topic: %w", err)
	}
	if _, err := p.socket.SendBytes(payload, 0); err != nil {
		return fmt.Errorf("failed to send payload: %w", err)
	}
	p.sent++
	return nil
}

// Sent returns the number of frames published.
func (p *TelemetryPublisher) Sent() int64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.sent
}

// Close releases the socket. Further Publish calls fail.
func (p *TelemetryPublisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.socket != nil {
		p.socket.Close()
		p.socket = nil
		p.logger.Infof("Telemetry publisher on %s closed", p.address)
	}
}
