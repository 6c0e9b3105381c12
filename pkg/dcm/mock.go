package dcm

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/control"
	"github.com/itohio/godcm/pkg/sim"
)

// Mock runs the real controller against a simulated motor, in process.
// Commands go through the same byte-level parser as on the MCU and replies
// are decoded from the controller's text output.
type Mock struct {
	cfg *config.Config

	events    chan Event
	mu        sync.RWMutex
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	readDone  chan struct{}
	connected bool
	closed    bool

	motor   *sim.Motor
	counter *control.PulseCounter
	rx      *rxBuffer
	out     *io.PipeWriter
}

// NewMock creates a new mocked device instance. A nil cfg uses config.Default.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	return &Mock{
		cfg:    cfg,
		events: make(chan Event, DefaultBufferSize),
	}
}

// Connect starts the simulated controller.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return ErrAlreadyConnected
	}
	if m.closed {
		return ErrClosed
	}

	speedup := m.cfg.Mock.Speedup
	if speedup <= 0 {
		speedup = 1
	}
	step := m.cfg.Mock.Tick
	if step < time.Millisecond {
		step = time.Millisecond
	}

	m.motor = sim.NewMotor(m.cfg.Motor)
	m.counter = control.NewPulseCounter(control.MeasurementTicks)
	m.rx = &rxBuffer{}

	pr, pw := io.Pipe()
	m.out = pw

	loop := control.NewLoop(&mockTransport{rx: m.rx, tx: pw}, m.counter, m.motor, func(d time.Duration) {
		time.Sleep(scale(d, speedup))
	})

	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.readDone = make(chan struct{})

	m.wg.Add(2)
	go func() {
		defer m.wg.Done()
		_ = loop.Run(ctx)
	}()
	go func() {
		defer m.wg.Done()
		m.runPlant(ctx, step, speedup)
	}()
	// The reader drains the pipe until it is closed so the loop never blocks on a write
	go func() {
		defer close(m.readDone)
		defer close(m.events)
		scanLines(context.Background(), pr, m.events)
	}()

	m.connected = true
	return nil
}

// Close stops the simulation. The events channel is closed once all
// buffered output has been decoded.
func (m *Mock) Close() error {
	m.mu.Lock()
	if !m.connected {
		m.mu.Unlock()
		return nil
	}
	m.connected = false
	m.closed = true
	m.cancel()
	m.mu.Unlock()

	m.wg.Wait()
	m.out.Close()
	<-m.readDone

	return nil
}

// Events returns the channel of decoded controller lines.
func (m *Mock) Events() <-chan Event {
	return m.events
}

// SetSpeed queues a speed command on the simulated serial line.
func (m *Mock) SetSpeed(percent int) error {
	cmd, err := speedCommand(percent)
	if err != nil {
		return err
	}
	return m.send(cmd)
}

// Stop queues the stop command.
func (m *Mock) Stop() error {
	return m.send(stopCommand)
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// Motor returns the simulated plant, or nil before Connect.
func (m *Mock) Motor() *sim.Motor {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.motor
}

func (m *Mock) send(cmd []byte) error {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if !m.connected {
		return ErrNotConnected
	}
	m.rx.write(cmd)
	return nil
}

// runPlant plays the role of the pulse and timer interrupts: every wall-clock
// step it advances the motor one millisecond at a time.
func (m *Mock) runPlant(ctx context.Context, step time.Duration, speedup float64) {
	ticker := time.NewTicker(scale(step, speedup))
	defer ticker.Stop()

	ticks := int(step / time.Millisecond)
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			for range ticks {
				m.motor.Drive(m.counter, time.Millisecond)
			}
		}
	}
}

func scale(d time.Duration, speedup float64) time.Duration {
	scaled := time.Duration(float64(d) / speedup)
	if scaled <= 0 {
		scaled = time.Microsecond
	}
	return scaled
}

// rxBuffer holds bytes sent by the host until the controller reads them.
type rxBuffer struct {
	mu  sync.Mutex
	buf []byte
}

func (b *rxBuffer) write(p []byte) {
	b.mu.Lock()
	b.buf = append(b.buf, p...)
	b.mu.Unlock()
}

func (b *rxBuffer) len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.buf)
}

func (b *rxBuffer) readByte() (byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.buf) == 0 {
		return 0, io.EOF
	}
	c := b.buf[0]
	b.buf = b.buf[1:]
	return c, nil
}

// mockTransport is the controller's side of the simulated serial line.
type mockTransport struct {
	rx *rxBuffer
	tx io.Writer
}

func (t *mockTransport) Buffered() int               { return t.rx.len() }
func (t *mockTransport) ReadByte() (byte, error)     { return t.rx.readByte() }
func (t *mockTransport) Write(p []byte) (int, error) { return t.tx.Write(p) }
