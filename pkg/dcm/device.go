package dcm

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log"
	"sync"
	"time"

	"go.bug.st/serial"
)

const (
	// DefaultBaudRate is the UART rate used by the firmware.
	DefaultBaudRate = 9600
	// DefaultBufferSize is the default size for the events channel buffer.
	DefaultBufferSize = 100
)

// Port represents a serial port.
type Port struct {
	Name        string
	Description string
}

// Serial represents a connection to the motor controller MCU.
type Serial struct {
	port     string
	baudRate int
	bufSize  int

	conn      io.ReadWriteCloser
	events    chan Event
	done      chan struct{}
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	connected bool
	closed    bool
}

// New creates a new Serial device with the specified port, baud rate, and buffer size.
func New(port string, baudRate int, bufSize int) *Serial {
	if baudRate == 0 {
		baudRate = DefaultBaudRate
	}
	if bufSize == 0 {
		bufSize = DefaultBufferSize
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &Serial{
		port:     port,
		baudRate: baudRate,
		bufSize:  bufSize,
		events:   make(chan Event, bufSize),
		ctx:      ctx,
		cancel:   cancel,
	}
}

// Ports returns a list of available serial ports.
func Ports() ([]Port, error) {
	ports, err := serial.GetPortsList()
	if err != nil {
		return nil, fmt.Errorf("failed to list serial ports: %w", err)
	}

	result := make([]Port, 0, len(ports))
	for _, name := range ports {
		result = append(result, Port{
			Name:        name,
			Description: name,
		})
	}

	return result, nil
}

// Connect opens the serial port and starts decoding controller output.
func (d *Serial) Connect() error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.connected {
		return ErrAlreadyConnected
	}
	if d.closed {
		return ErrClosed
	}

	// 8 data bits, no parity, one stop bit
	mode := &serial.Mode{
		BaudRate: d.baudRate,
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}

	port, err := serial.Open(d.port, mode)
	if err != nil {
		return fmt.Errorf("failed to open serial port %s: %w", d.port, err)
	}

	d.attach(port)
	return nil
}

// attach starts reading from an open connection. Callers hold d.mu.
func (d *Serial) attach(conn io.ReadWriteCloser) {
	d.conn = conn
	d.connected = true
	d.done = make(chan struct{})

	go d.readEvents(conn)
}

// Close closes the connection and waits for the reader to stop.
// The events channel is closed once the reader has exited.
func (d *Serial) Close() error {
	d.mu.Lock()

	if !d.connected {
		d.mu.Unlock()
		return nil
	}

	// Cancel context to stop reading goroutine
	d.cancel()

	if d.conn != nil {
		if err := d.conn.Close(); err != nil {
			log.Printf("Error closing serial port: %v", err)
		}
		d.conn = nil
	}

	d.connected = false
	d.closed = true
	done := d.done
	d.mu.Unlock()

	<-done
	return nil
}

// Events returns the channel of decoded controller lines.
func (d *Serial) Events() <-chan Event {
	return d.events
}

// SetSpeed sends a target speed in percent.
func (d *Serial) SetSpeed(percent int) error {
	cmd, err := speedCommand(percent)
	if err != nil {
		return err
	}
	return d.send(cmd)
}

// Stop sends the stop command.
func (d *Serial) Stop() error {
	return d.send(stopCommand)
}

// IsConnected returns whether the device is currently connected.
func (d *Serial) IsConnected() bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.connected
}

func (d *Serial) send(cmd []byte) error {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if !d.connected {
		return ErrNotConnected
	}

	if _, err := d.conn.Write(cmd); err != nil {
		return fmt.Errorf("failed to send command %q: %w", cmd, err)
	}

	return nil
}

// readEvents reads lines from r and publishes decoded events until r is
// exhausted or the device is closed.
func (d *Serial) readEvents(r io.Reader) {
	defer close(d.done)
	defer close(d.events)
	defer func() {
		if rec := recover(); rec != nil {
			log.Printf("Panic in readEvents: %v", rec)
		}
	}()

	scanLines(d.ctx, r, d.events)
}

// scanLines decodes controller output from r into out. Lines that cannot be
// decoded are logged and skipped; events are dropped when out is full.
func scanLines(ctx context.Context, r io.Reader, out chan<- Event) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line := scanner.Text()
		if len(line) == 0 || line == "\r" {
			continue
		}

		ev, err := ParseLine(line)
		if err != nil {
			log.Printf("Failed to parse line '%s': %v", line, err)
			continue
		}
		ev.Timestamp = time.Now()

		select {
		case out <- ev:
		case <-ctx.Done():
			return
		default:
			log.Printf("Events channel full, dropping %s event", ev.Kind)
		}
	}

	if err := scanner.Err(); err != nil && ctx.Err() == nil {
		log.Printf("Error reading from controller: %v", err)
	}
}
