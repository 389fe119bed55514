package actuator

import (
	"bufio"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"

	customlog "github.com/open-teleop/robolink/pkg/log"
	serial "go.bug.st/serial"
)

// SerialBridge drives a motor/servo microcontroller over a serial line.
//
// Outgoing lines:  W<i> <F|R|S> <magnitude>   J<i> <angle>
// Incoming lines:  P <force>
type SerialBridge struct {
	port   io.ReadWriteCloser
	logger customlog.Logger

	writeMu sync.Mutex
	force   atomic.Uint64
	done    chan struct{}
}

var _ Actuator = (*SerialBridge)(nil)

// OpenSerialBridge opens dev at baud and starts reading force reports.
func OpenSerialBridge(dev string, baud int, logger customlog.Logger) (*SerialBridge, error) {
	p, err := serial.Open(dev, &serial.Mode{BaudRate: baud})
	if err != nil {
		return nil, fmt.Errorf("failed to open actuator port '%s': %w", dev, err)
	}
	return NewSerialBridge(p, logger), nil
}

// NewSerialBridge wraps an already open port.
func NewSerialBridge(port io.ReadWriteCloser, logger customlog.Logger) *SerialBridge {
	if logger == nil {
		logger = customlog.NewDiscardLogger()
	}
	b := &SerialBridge{
		port:   port,
		logger: logger,
		done:   make(chan struct{}),
	}
	go b.readLoop()
	return b
}

func (b *SerialBridge) SetWheel(index int, dir Direction, magnitude int) error {
	if err := checkWheel(index); err != nil {
		return err
	}
	return b.writeLine(fmt.Sprintf("W%d %s %d", index, dir, magnitude))
}

func (b *SerialBridge) SetJoint(index int, angle int) error {
	if err := checkJoint(index); err != nil {
		return err
	}
	return b.writeLine(fmt.Sprintf("J%d %d", index, angle))
}

func (b *SerialBridge) ReadForceSensor() float64 {
	return math.Float64frombits(b.force.Load())
}

// Close closes the port and waits for the reader to exit.
func (b *SerialBridge) Close() error {
	err := b.port.Close()
	<-b.done
	return err
}

func (b *SerialBridge) writeLine(line string) error {
	b.writeMu.Lock()
	defer b.writeMu.Unlock()
	if _, err := b.port.Write(append([]byte(line), '\n')); err != nil {
		return fmt.Errorf("actuator write %q: %w", line, err)
	}
	return nil
}

func (b *SerialBridge) readLoop() {
	defer close(b.done)
	r := bufio.NewReader(b.port)
	for {
		line, err := r.ReadString('\n')
		if line = strings.TrimSpace(line); line != "" {
			b.handleLine(line)
		}
		if err != nil {
			if err != io.EOF {
				b.logger.Warnf("Actuator bridge read stopped: %v", err)
			}
			return
		}
	}
}

func (b *SerialBridge) handleLine(line string) {
	fields := strings.Fields(line)
	if len(fields) != 2 || fields[0] != "P" {
		b.logger.Debugf("Ignoring actuator line %q", line)
		return
	}
	v, err := strconv.ParseFloat(fields[1], 64)
	if err != nil {
		b.logger.Warnf("Bad force report %q: %v", line, err)
		return
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		b.logger.Warnf("Non-finite force report %q ignored", line)
		return
	}
	b.force.Store(math.Float64bits(v))
}
