package control

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTransport struct {
	in  []byte
	out bytes.Buffer
}

func (f *fakeTransport) Buffered() int { return len(f.in) }

func (f *fakeTransport) ReadByte() (byte, error) {
	if len(f.in) == 0 {
		return 0, errors.New("empty")
	}
	b := f.in[0]
	f.in = f.in[1:]
	return b, nil
}

func (f *fakeTransport) Write(p []byte) (int, error) { return f.out.Write(p) }

type fakeSource struct {
	samples []uint32
}

func (f *fakeSource) TakeSample() (uint32, bool) {
	if len(f.samples) == 0 {
		return 0, false
	}
	s := f.samples[0]
	f.samples = f.samples[1:]
	return s, true
}

func newTestLoop(input string) (*Loop, *fakeTransport, *fakeSource, *fakeActuator) {
	tr := &fakeTransport{in: []byte(input)}
	src := &fakeSource{}
	act := &fakeActuator{}
	return NewLoop(tr, src, act, func(time.Duration) {}), tr, src, act
}

func TestLoop_StartWritesBanner(t *testing.T) {
	l, tr, _, act := newTestLoop("")
	l.Start()

	assert.True(t, strings.HasPrefix(tr.out.String(), BannerTitle+"\r\n"))
	assert.Equal(t, []uint8{0}, act.calls)
}

func TestLoop_OneBytePerIteration(t *testing.T) {
	l, tr, _, _ := newTestLoop("75\r")

	l.Step()
	assert.Len(t, tr.in, 2)
	l.Step()
	assert.Len(t, tr.in, 1)
	assert.Equal(t, uint8(0), l.State().Desired)

	l.Step()
	assert.Empty(t, tr.in)
	assert.Equal(t, uint8(75), l.State().Desired)
	assert.Equal(t, "Speed set to 75%\r\n", tr.out.String())
}

func TestLoop_RampEveryFiftyMilliseconds(t *testing.T) {
	l, _, _, act := newTestLoop("10\r")

	// Three iterations consume the command, ramp first fires on the fifth
	for i := 0; i < 4; i++ {
		l.Step()
	}
	assert.Empty(t, act.calls)
	l.Step()
	require.Len(t, act.calls, 1)
	assert.Equal(t, uint8(1), l.State().Actual)

	// 20 %/s: ten more percent takes half a second (50 iterations)
	for i := 0; i < 50; i++ {
		l.Step()
	}
	assert.Equal(t, uint8(10), l.State().Actual)
	assert.Len(t, act.calls, 11)
}

func TestLoop_Telemetry(t *testing.T) {
	l, tr, src, _ := newTestLoop("")
	src.samples = []uint32{20, 40}

	l.Step()
	l.Step()
	l.Step()

	assert.Equal(t, "PWM: 0% | RPM: 600\r\nPWM: 0% | RPM: 900\r\n", tr.out.String())
	assert.Equal(t, uint32(900), l.RPM())
}

func TestLoop_TelemetryReportsActualSpeed(t *testing.T) {
	l, tr, src, _ := newTestLoop("")
	l.state.Desired = 3
	for i := 0; i < 20; i++ {
		l.Step()
	}
	src.samples = []uint32{1}

	l.Step()

	assert.Equal(t, "PWM: 3% | RPM: 30\r\n", tr.out.String())
}

func TestLoop_StopCommand(t *testing.T) {
	l, tr, _, _ := newTestLoop("50\rS")
	for i := 0; i < 4; i++ {
		l.Step()
	}

	assert.Equal(t, uint8(0), l.State().Desired)
	assert.Equal(t, "Speed set to 50%\r\nMotor STOPPED\r\n", tr.out.String())
}

func TestLoop_RunStopsOnCancel(t *testing.T) {
	l, tr, _, _ := newTestLoop("")
	ctx, cancel := context.WithCancel(context.Background())

	iterations := 0
	l.sleep = func(time.Duration) {
		iterations++
		if iterations == 10 {
			cancel()
		}
	}

	err := l.Run(ctx)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 10, iterations)
	assert.Contains(t, tr.out.String(), BannerRule)
}

func TestLoop_NilCollaborators(t *testing.T) {
	l := NewLoop(nil, nil, nil, nil)
	assert.NotPanics(t, func() {
		l.Start()
		for i := 0; i < 10; i++ {
			l.Step()
		}
	})
}
