package control

// MaxCommandDigits is the capacity of the command buffer. Further digits are
// dropped until the command is terminated.
const MaxCommandDigits = 9

// ResultKind classifies the outcome of feeding one byte to the Parser.
type ResultKind uint8

const (
	// ResultNone means the byte was consumed without producing a reply.
	ResultNone ResultKind = iota
	// ResultAccepted means a speed command was applied; Result.Value holds it.
	ResultAccepted
	// ResultOutOfRange means a numeric command exceeded MaxSpeed.
	ResultOutOfRange
	// ResultInvalid means an unexpected byte was received.
	ResultInvalid
	// ResultStopped means the stop command was applied.
	ResultStopped
)

// Result is the outcome of Parser.Feed.
type Result struct {
	Kind  ResultKind
	Value uint32
}

// Parser accumulates serial bytes into speed and stop commands.
// Its only state is the pending digit buffer. The zero value is ready to use.
type Parser struct {
	buf [MaxCommandDigits]byte
	n   int
}

// Feed consumes one byte and applies any completed command to state.
func (p *Parser) Feed(b byte, state *MotorState) Result {
	switch {
	case b >= '0' && b <= '9':
		if p.n < MaxCommandDigits {
			p.buf[p.n] = b
			p.n++
		}
		return Result{}

	case (b == 'S' || b == 's') && p.n == 0:
		state.Desired = 0
		return Result{Kind: ResultStopped}

	case b == '\r' || b == '\n':
		if p.n == 0 {
			return Result{}
		}
		value := p.value()
		p.reset()
		if value > MaxSpeed {
			return Result{Kind: ResultOutOfRange, Value: value}
		}
		state.Desired = uint8(value)
		return Result{Kind: ResultAccepted, Value: value}
	}

	p.reset()
	return Result{Kind: ResultInvalid}
}

// Pending returns the digits accumulated so far.
func (p *Parser) Pending() []byte {
	return p.buf[:p.n]
}

// value parses the buffered digits. Nine digits always fit in uint32.
func (p *Parser) value() uint32 {
	var v uint32
	for _, c := range p.buf[:p.n] {
		v = v*10 + uint32(c-'0')
	}
	return v
}

func (p *Parser) reset() {
	p.buf = [MaxCommandDigits]byte{}
	p.n = 0
}
