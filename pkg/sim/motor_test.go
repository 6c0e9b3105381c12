package sim

import (
	"testing"
	"time"

	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/control"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testMotor() *Motor {
	return NewMotor(config.MotorConfig{
		MaxRPM:       3000,
		TimeConstant: 100 * time.Millisecond,
	})
}

func TestMotor_StartsStopped(t *testing.T) {
	m := testMotor()
	assert.Equal(t, uint32(0), m.Advance(time.Second))
	assert.Equal(t, float32(0), m.RPM())
}

func TestMotor_ReachesSteadyState(t *testing.T) {
	m := testMotor()
	m.SetSpeed(50)

	for i := 0; i < 2000; i++ {
		m.Advance(time.Millisecond)
	}

	assert.InDelta(t, 1500, m.RPM(), 1)
}

func TestMotor_PulseRate(t *testing.T) {
	m := testMotor()
	m.SetSpeed(100)
	for i := 0; i < 2000; i++ {
		m.Advance(time.Millisecond)
	}

	var pulses uint32
	for i := 0; i < 1000; i++ {
		pulses += m.Advance(time.Millisecond)
	}

	// 3000 RPM = 50 rev/s = 100 pulses/s with two pulses per revolution
	assert.InDelta(t, 100, pulses, 1)
}

func TestMotor_ClampsDuty(t *testing.T) {
	m := testMotor()
	m.SetSpeed(250)
	assert.Equal(t, uint8(100), m.Duty())
}

func TestMotor_Drive(t *testing.T) {
	m := testMotor()
	m.SetSpeed(100)
	counter := control.NewPulseCounter(1000)

	for i := 0; i < 3000; i++ {
		m.Drive(counter, time.Millisecond)
	}

	pulses, ok := counter.TakeSample()
	require.True(t, ok)
	// Last interval is fully at speed: ~100 pulses, within a pulse either way
	assert.InDelta(t, 3000, control.EstimateRPM(pulses, control.PulsesPerRevolution), 60)
}
