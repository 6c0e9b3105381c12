package control

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// feed pushes every byte of input and returns the non-empty results.
func feed(p *Parser, state *MotorState, input string) []Result {
	var results []Result
	for i := 0; i < len(input); i++ {
		if res := p.Feed(input[i], state); res.Kind != ResultNone {
			results = append(results, res)
		}
	}
	return results
}

func TestParser_Commands(t *testing.T) {
	tests := []struct {
		name        string
		initial     uint8
		input       string
		wantDesired uint8
		want        []Result
	}{
		{
			name:        "valid speed with CR",
			input:       "75\r",
			wantDesired: 75,
			want:        []Result{{Kind: ResultAccepted, Value: 75}},
		},
		{
			name:        "valid speed with LF",
			input:       "100\n",
			wantDesired: 100,
			want:        []Result{{Kind: ResultAccepted, Value: 100}},
		},
		{
			name:        "zero",
			initial:     40,
			input:       "0\r",
			wantDesired: 0,
			want:        []Result{{Kind: ResultAccepted, Value: 0}},
		},
		{
			name:        "leading zeros",
			input:       "007\r",
			wantDesired: 7,
			want:        []Result{{Kind: ResultAccepted, Value: 7}},
		},
		{
			name:        "out of range",
			initial:     30,
			input:       "150\r",
			wantDesired: 30,
			want:        []Result{{Kind: ResultOutOfRange, Value: 150}},
		},
		{
			name:        "stop upper case",
			initial:     60,
			input:       "S",
			wantDesired: 0,
			want:        []Result{{Kind: ResultStopped}},
		},
		{
			name:        "stop lower case",
			initial:     60,
			input:       "s",
			wantDesired: 0,
			want:        []Result{{Kind: ResultStopped}},
		},
		{
			name:        "stop mid buffer is invalid",
			initial:     20,
			input:       "12S\r",
			wantDesired: 20,
			want:        []Result{{Kind: ResultInvalid}},
		},
		{
			name:        "unknown character",
			initial:     20,
			input:       "5x",
			wantDesired: 20,
			want:        []Result{{Kind: ResultInvalid}},
		},
		{
			name:        "terminator on empty buffer is silent",
			initial:     20,
			input:       "\r\n\r",
			wantDesired: 20,
			want:        nil,
		},
		{
			name:        "CRLF after command",
			input:       "42\r\n",
			wantDesired: 42,
			want:        []Result{{Kind: ResultAccepted, Value: 42}},
		},
		{
			name:        "invalid clears buffer before next command",
			input:       "9-50\r",
			wantDesired: 50,
			want:        []Result{{Kind: ResultInvalid}, {Kind: ResultAccepted, Value: 50}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var p Parser
			state := MotorState{Desired: tt.initial}

			got := feed(&p, &state, tt.input)

			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantDesired, state.Desired)
			assert.Empty(t, p.Pending())
		})
	}
}

func TestParser_OverflowKeepsFirstNineDigits(t *testing.T) {
	var p Parser
	state := MotorState{Desired: 10}

	got := feed(&p, &state, "1234567890\r")

	// 123456789 is out of range; the tenth digit must not have been used
	assert.Equal(t, []Result{{Kind: ResultOutOfRange, Value: 123456789}}, got)
	assert.Equal(t, uint8(10), state.Desired)
}

func TestParser_OverflowWithSmallValue(t *testing.T) {
	var p Parser
	state := MotorState{}

	got := feed(&p, &state, "0000000501\r")

	// First nine digits are 000000050
	assert.Equal(t, []Result{{Kind: ResultAccepted, Value: 50}}, got)
	assert.Equal(t, uint8(50), state.Desired)
}

func TestParser_PendingCapped(t *testing.T) {
	var p Parser
	state := MotorState{}

	feed(&p, &state, "99999999999999")

	assert.Equal(t, []byte("999999999"), p.Pending())
}

func TestParser_RepeatedStop(t *testing.T) {
	var p Parser
	state := MotorState{}

	for i := 0; i < 3; i++ {
		res := p.Feed('S', &state)
		assert.Equal(t, ResultStopped, res.Kind)
		assert.Equal(t, uint8(0), state.Desired)
	}
}

func TestParser_DependsOnlyOnBuffer(t *testing.T) {
	// Same buffer and byte give the same result regardless of earlier history
	var a, b Parser
	sa, sb := MotorState{Desired: 5}, MotorState{Desired: 5}

	feed(&a, &sa, "S150\rx\r")
	sa.Desired = 5

	ra := feed(&a, &sa, "64\r")
	rb := feed(&b, &sb, "64\r")

	assert.Equal(t, rb, ra)
	assert.Equal(t, sb, sa)
}
