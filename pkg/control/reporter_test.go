package control

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReporter_Reply(t *testing.T) {
	tests := []struct {
		name string
		res  Result
		want string
	}{
		{name: "accepted", res: Result{Kind: ResultAccepted, Value: 75}, want: "Speed set to 75%\r\n"},
		{name: "out of range", res: Result{Kind: ResultOutOfRange, Value: 150}, want: "ERROR: speed must be 0-100%\r\n"},
		{name: "invalid", res: Result{Kind: ResultInvalid}, want: "ERROR: invalid command\r\n"},
		{name: "stopped", res: Result{Kind: ResultStopped}, want: "Motor STOPPED\r\n"},
		{name: "none", res: Result{}, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			NewReporter(&buf).Reply(tt.res)
			assert.Equal(t, tt.want, buf.String())
		})
	}
}

func TestReporter_Telemetry(t *testing.T) {
	var buf bytes.Buffer
	r := NewReporter(&buf)

	r.Telemetry(42, 1260)
	r.Telemetry(0, 0)

	assert.Equal(t, "PWM: 42% | RPM: 1260\r\nPWM: 0% | RPM: 0\r\n", buf.String())
}

func TestReporter_Banner(t *testing.T) {
	var buf bytes.Buffer
	NewReporter(&buf).Banner()

	assert.Equal(t, BannerTitle+"\r\n"+BannerUsage+"\r\n"+BannerRule+"\r\n", buf.String())
}

func TestReporter_NilWriter(t *testing.T) {
	r := NewReporter(nil)
	assert.NotPanics(t, func() {
		r.Banner()
		r.Telemetry(1, 2)
	})
}
