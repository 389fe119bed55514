package zeromq

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	customlog "github.com/open-teleop/robolink/pkg/log"
	"github.com/open-teleop/robolink/pkg/telemetry"
	"github.com/pebbe/zmq4"
)

// StatusHandler receives each decoded frame with its topic.
type StatusHandler func(topic string, status telemetry.Status)

// TelemetryListener subscribes to a controller's telemetry publisher.
type TelemetryListener struct {
	socket  *zmq4.Socket
	poller  *zmq4.Poller
	handler StatusHandler
	logger  customlog.Logger
	running atomic.Bool
	wg      sync.WaitGroup
}

// NewTelemetryListener connects a SUB socket to address and subscribes to
// the given topics; no topics subscribes to everything.
func NewTelemetryListener(address string, handler StatusHandler, logger customlog.Logger, topics ...string) (*TelemetryListener, error) {
	socket, err := zmq4.NewSocket(zmq4.SUB)
	if err != nil {
		return nil, fmt.Errorf("failed to create SUB socket: %w", err)
	}

	if len(topics) == 0 {
		topics = []string{""}
	}
	for _, topic := range topics {
		if err := socket.SetSubscribe(topic); err != nil {
			socket.Close()
			return nil, fmt.Errorf("failed to subscribe to %q: %w", topic, err)
		}
	}

	if err := socket.SetLinger(0); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to set linger option: %w", err)
	}

	if err := socket.Connect(address); err != nil {
		socket.Close()
		return nil, fmt.Errorf("failed to connect to %s: %w", address, err)
	}

	poller := zmq4.NewPoller()
	poller.Add(socket, zmq4.POLLIN)

	logger.Infof("Telemetry listener connected to %s", address)

	return &TelemetryListener{
		socket:  socket,
		poller:  poller,
		handler: handler,
		logger:  logger,
	}, nil
}

// Start begins the receive loop.
func (l *TelemetryListener) Start() {
	if !l.running.CompareAndSwap(false, true) {
		return
	}
	l.wg.Add(1)
	go l.receiveLoop()
}

// Stop ends the receive loop and closes the socket.
func (l *TelemetryListener) Stop() {
	if !l.running.CompareAndSwap(true, false) {
		return
	}
	l.wg.Wait()
}

func (l *TelemetryListener) receiveLoop() {
	defer l.wg.Done()
	defer l.socket.Close()

	for l.running.Load() {
		// Poll with timeout to allow for clean shutdown
		sockets, err := l.poller.Poll(200 * time.Millisecond)
		if err != nil {
			l.logger.Warnf("Error polling telemetry socket: %v", err)
			continue
		}
		if len(sockets) == 0 {
			continue
		}

		frames, err := l.socket.RecvMessageBytes(0)
		if err != nil {
			l.logger.Warnf("Error receiving telemetry: %v", err)
			continue
		}
		if len(frames) != 2 {
			l.logger.Warnf("Discarding telemetry message with %d frames", len(frames))
			continue
		}

		status, err := telemetry.Decode(frames[1])
		if err != nil {
			l.logger.Warnf("Discarding telemetry on %s: %v", string(frames[0]), err)
			continue
		}
		l.handler(string(frames[0]), status)
	}
}
