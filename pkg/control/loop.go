package control

import (
	"context"
	"time"
)

// TickPeriod is the fixed duration of one loop iteration.
const TickPeriod = 10 * time.Millisecond

// Transport is the byte-level serial line. machine.UART satisfies it.
type Transport interface {
	Buffered() int
	ReadByte() (byte, error)
	Write(p []byte) (int, error)
}

// SampleSource yields the pulse count of each completed measurement interval.
type SampleSource interface {
	TakeSample() (pulses uint32, ok bool)
}

// Loop is the cooperative scheduler: one call to Step is one iteration.
type Loop struct {
	transport Transport
	source    SampleSource
	actuator  Actuator
	sleep     func(time.Duration)

	state     MotorState
	parser    Parser
	filter    Filter
	ramp      *Ramp
	reporter  *Reporter
	rampTimer time.Duration
	rpm       uint32
}

// NewLoop wires the controller to its collaborators. sleep is called with
// TickPeriod at the end of every iteration of Run; nil means time.Sleep.
func NewLoop(transport Transport, source SampleSource, actuator Actuator, sleep func(time.Duration)) *Loop {
	if sleep == nil {
		sleep = time.Sleep
	}
	return &Loop{
		transport: transport,
		source:    source,
		actuator:  actuator,
		sleep:     sleep,
		ramp:      NewRamp(actuator),
		reporter:  NewReporter(transport),
	}
}

// Start stops the motor and writes the banner.
func (l *Loop) Start() {
	if l.actuator != nil {
		l.actuator.SetSpeed(0)
	}
	l.reporter.Banner()
}

// Step runs one iteration without sleeping.
func (l *Loop) Step() {
	// At most one byte per iteration keeps parser latency bounded by the tick
	if l.transport != nil && l.transport.Buffered() > 0 {
		if b, err := l.transport.ReadByte(); err == nil {
			l.reporter.Reply(l.parser.Feed(b, &l.state))
		}
	}

	if l.source != nil {
		if pulses, ok := l.source.TakeSample(); ok {
			l.rpm = l.filter.Push(EstimateRPM(pulses, PulsesPerRevolution))
			l.reporter.Telemetry(l.state.Actual, l.rpm)
		}
	}

	l.rampTimer += TickPeriod
	if l.rampTimer >= RampPeriod {
		l.rampTimer = 0
		l.ramp.Step(&l.state)
	}
}

// Run starts the controller and iterates until ctx is cancelled.
func (l *Loop) Run(ctx context.Context) error {
	l.Start()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		l.Step()
		l.sleep(TickPeriod)
	}
}

// State returns the current desired and actual speed.
func (l *Loop) State() MotorState {
	return l.state
}

// RPM returns the last filtered RPM value.
func (l *Loop) RPM() uint32 {
	return l.rpm
}
