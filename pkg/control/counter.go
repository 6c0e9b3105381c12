package control

import "sync/atomic"

const sampleReady = uint64(1) << 32

// PulseCounter is shared between the interrupt handlers and the loop.
// Pulse and Tick run in interrupt context; TakeSample runs in the loop.
// The finished interval's count and its ready flag live in one word so the
// loop never sees a count without its flag or the other way round.
type PulseCounter struct {
	running  atomic.Uint32
	ticks    atomic.Uint32
	sample   atomic.Uint64
	interval uint32
}

// NewPulseCounter creates a counter that publishes a sample every interval ticks.
// An interval of 0 means MeasurementTicks.
func NewPulseCounter(interval uint32) *PulseCounter {
	if interval == 0 {
		interval = MeasurementTicks
	}
	return &PulseCounter{interval: interval}
}

// Pulse records one sensor edge.
func (c *PulseCounter) Pulse() {
	c.running.Add(1)
}

// Tick advances the interval timer by one tick and publishes the count when
// the interval elapses. An unconsumed previous sample is overwritten.
func (c *PulseCounter) Tick() {
	if c.ticks.Add(1) < c.interval {
		return
	}
	c.ticks.Store(0)
	n := c.running.Swap(0)
	c.sample.Store(sampleReady | uint64(n))
}

// TakeSample returns the pulse count of the last completed interval and
// clears the ready flag. ok is false when no new interval has completed.
func (c *PulseCounter) TakeSample() (pulses uint32, ok bool) {
	v := c.sample.Swap(0)
	if v&sampleReady == 0 {
		return 0, false
	}
	return uint32(v), true
}
