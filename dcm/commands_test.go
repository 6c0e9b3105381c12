package main

import (
	"testing"

	"github.com/itohio/godcm/pkg/dcm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSpeed(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{"75", 75, false},
		{" 40% ", 40, false},
		{"150", 150, false},
		{"", 0, true},
		{"fast", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseSpeed(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, errBadSpeed)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStatusText(t *testing.T) {
	text, ok := statusText(dcm.Event{Kind: dcm.EventAccepted, Value: 60})
	assert.True(t, ok)
	assert.Equal(t, "Target 60%", text)

	text, ok = statusText(dcm.Event{Kind: dcm.EventInvalid, Text: "ERROR: invalid command"})
	assert.True(t, ok)
	assert.Equal(t, "ERROR: invalid command", text)

	_, ok = statusText(dcm.Event{Kind: dcm.EventTelemetry})
	assert.False(t, ok)
}
