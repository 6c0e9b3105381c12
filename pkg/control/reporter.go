package control

import (
	"io"
	"strconv"
)

// Protocol text written by the controller. The host decoder in pkg/dcm matches on these.
const (
	BannerTitle    = "DC Motor Control System"
	BannerUsage    = "Commands: 0-100 (speed %) or S to stop"
	BannerRule     = "===================================="
	AcceptedPrefix = "Speed set to "
	OutOfRangeText = "ERROR: speed must be 0-100%"
	InvalidText    = "ERROR: invalid command"
	StoppedText    = "Motor STOPPED"
	TelemetryPWM   = "PWM: "
	TelemetryRPM   = "% | RPM: "
	LineTerminator = "\r\n"
)

const reporterScratch = 64

// Reporter renders replies and telemetry as text lines.
// It formats into a fixed scratch buffer so nothing is allocated per line.
type Reporter struct {
	w       io.Writer
	scratch [reporterScratch]byte
}

// NewReporter creates a reporter writing to w.
func NewReporter(w io.Writer) *Reporter {
	return &Reporter{w: w}
}

// Banner writes the startup banner.
func (r *Reporter) Banner() {
	r.line(BannerTitle)
	r.line(BannerUsage)
	r.line(BannerRule)
}

// Reply writes the response for a parser result. ResultNone writes nothing.
func (r *Reporter) Reply(res Result) {
	switch res.Kind {
	case ResultAccepted:
		buf := append(r.scratch[:0], AcceptedPrefix...)
		buf = strconv.AppendUint(buf, uint64(res.Value), 10)
		buf = append(buf, '%')
		buf = append(buf, LineTerminator...)
		r.write(buf)
	case ResultOutOfRange:
		r.line(OutOfRangeText)
	case ResultInvalid:
		r.line(InvalidText)
	case ResultStopped:
		r.line(StoppedText)
	}
}

// Telemetry writes the periodic status line with duty percentage and filtered RPM.
func (r *Reporter) Telemetry(duty uint8, rpm uint32) {
	buf := append(r.scratch[:0], TelemetryPWM...)
	buf = strconv.AppendUint(buf, uint64(duty), 10)
	buf = append(buf, TelemetryRPM...)
	buf = strconv.AppendUint(buf, uint64(rpm), 10)
	buf = append(buf, LineTerminator...)
	r.write(buf)
}

func (r *Reporter) line(text string) {
	buf := append(r.scratch[:0], text...)
	buf = append(buf, LineTerminator...)
	r.write(buf)
}

// write ignores errors: the serial line is the only place they could be reported.
func (r *Reporter) write(buf []byte) {
	if r.w == nil {
		return
	}
	_, _ = r.w.Write(buf)
}
