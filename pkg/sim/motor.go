// Package sim models a brushed DC motor with a pulse-per-revolution speed sensor.
package sim

import (
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/control"
)

var _ control.Actuator = (*Motor)(nil)

// Motor is a first-order motor plant: speed approaches duty*MaxRPM/100 with
// the configured time constant. It implements control.Actuator.
type Motor struct {
	maxRPM       float32
	timeConstant float32 // seconds
	noise        float32
	pulsesPerRev float32

	mu       sync.Mutex
	duty     uint8
	rpm      float32
	fraction float32 // Partial pulse carried to the next step
	elapsed  float32
}

// NewMotor creates a motor from the plant configuration.
func NewMotor(cfg config.MotorConfig) *Motor {
	tau := float32(cfg.TimeConstant.Seconds())
	if tau <= 0 {
		tau = 0.3
	}
	maxRPM := float32(cfg.MaxRPM)
	if maxRPM <= 0 {
		maxRPM = 3000
	}
	return &Motor{
		maxRPM:       maxRPM,
		timeConstant: tau,
		noise:        math32.Max(float32(cfg.NoiseRPM), 0),
		pulsesPerRev: control.PulsesPerRevolution,
	}
}

// SetSpeed sets the applied duty cycle in percent.
func (m *Motor) SetSpeed(percent uint8) {
	if percent > control.MaxSpeed {
		percent = control.MaxSpeed
	}
	m.mu.Lock()
	m.duty = percent
	m.mu.Unlock()
}

// Duty returns the last applied duty cycle.
func (m *Motor) Duty() uint8 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.duty
}

// RPM returns the current shaft speed.
func (m *Motor) RPM() float32 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rpm
}

// Advance integrates the plant over dt and returns the number of whole
// sensor pulses produced during that time.
func (m *Motor) Advance(dt time.Duration) uint32 {
	m.mu.Lock()
	defer m.mu.Unlock()

	seconds := float32(dt.Seconds())
	if seconds <= 0 {
		return 0
	}
	m.elapsed += seconds

	target := float32(m.duty) * m.maxRPM / control.MaxSpeed
	alpha := 1 - math32.Exp(-seconds/m.timeConstant)
	m.rpm += (target - m.rpm) * alpha

	speed := m.rpm
	if m.noise > 0 && speed > 0 {
		// Deterministic ripple so tests stay reproducible
		speed += m.noise * math32.Sin(2*math32.Pi*m.elapsed*7)
		speed = math32.Max(speed, 0)
	}

	m.fraction += speed / 60 * m.pulsesPerRev * seconds
	whole := math32.Floor(m.fraction)
	m.fraction -= whole
	return uint32(whole)
}

// Drive advances the motor by dt, delivers the produced pulses to counter
// and then fires one timer tick, as the edge and timer interrupts would.
func (m *Motor) Drive(counter *control.PulseCounter, dt time.Duration) {
	for n := m.Advance(dt); n > 0; n-- {
		counter.Pulse()
	}
	counter.Tick()
}
