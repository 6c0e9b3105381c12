package control

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPulseCounter_PublishesEveryInterval(t *testing.T) {
	c := NewPulseCounter(10)

	for i := 0; i < 7; i++ {
		c.Pulse()
	}
	for i := 0; i < 9; i++ {
		c.Tick()
	}
	_, ok := c.TakeSample()
	assert.False(t, ok, "interval not complete yet")

	c.Tick()
	pulses, ok := c.TakeSample()
	assert.True(t, ok)
	assert.Equal(t, uint32(7), pulses)

	// Flag is cleared by the read
	_, ok = c.TakeSample()
	assert.False(t, ok)
}

func TestPulseCounter_ResetsRunningCount(t *testing.T) {
	c := NewPulseCounter(2)

	c.Pulse()
	c.Pulse()
	c.Tick()
	c.Tick()
	c.Pulse()
	c.Tick()
	c.Tick()

	pulses, ok := c.TakeSample()
	assert.True(t, ok)
	assert.Equal(t, uint32(1), pulses, "newer interval overwrites unconsumed sample")
}

func TestPulseCounter_EmptyInterval(t *testing.T) {
	c := NewPulseCounter(1)
	c.Tick()

	pulses, ok := c.TakeSample()
	assert.True(t, ok)
	assert.Equal(t, uint32(0), pulses)
}

func TestPulseCounter_DefaultInterval(t *testing.T) {
	c := NewPulseCounter(0)
	for i := 0; i < MeasurementTicks-1; i++ {
		c.Tick()
	}
	_, ok := c.TakeSample()
	assert.False(t, ok)
	c.Tick()
	_, ok = c.TakeSample()
	assert.True(t, ok)
}

func TestPulseCounter_ConcurrentPulses(t *testing.T) {
	c := NewPulseCounter(1)

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 1000; i++ {
				c.Pulse()
			}
		}()
	}
	wg.Wait()
	c.Tick()

	pulses, ok := c.TakeSample()
	assert.True(t, ok)
	assert.Equal(t, uint32(8000), pulses)
}
