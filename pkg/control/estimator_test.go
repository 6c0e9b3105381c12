package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateRPM(t *testing.T) {
	tests := []struct {
		name   string
		pulses uint32
		ppr    uint32
		want   uint32
	}{
		{name: "no pulses", pulses: 0, ppr: 2, want: 0},
		{name: "one pulse two per rev", pulses: 1, ppr: 2, want: 30},
		{name: "truncates", pulses: 1, ppr: 7, want: 8},
		{name: "one per rev", pulses: 50, ppr: 1, want: 3000},
		{name: "default constant", pulses: 100, ppr: PulsesPerRevolution, want: 3000},
		{name: "zero ppr treated as one", pulses: 3, ppr: 0, want: 180},
		{name: "large count does not wrap", pulses: 100_000_000, ppr: 2, want: 3_000_000_000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EstimateRPM(tt.pulses, tt.ppr))
		})
	}
}

func TestEstimateRPM_MatchesFormula(t *testing.T) {
	for k := uint32(1); k <= 8; k++ {
		for p := uint32(0); p < 500; p += 7 {
			assert.Equal(t, p*60/k, EstimateRPM(p, k), "p=%d k=%d", p, k)
		}
	}
}
