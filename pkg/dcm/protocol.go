package dcm

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/itohio/godcm/pkg/control"
)

var (
	// ErrNotConnected is returned when a command is sent to a closed device.
	ErrNotConnected = errors.New("not connected")
	// ErrAlreadyConnected is returned by Connect on an open device.
	ErrAlreadyConnected = errors.New("already connected")
	// ErrClosed is returned by Connect on a device that has been closed.
	ErrClosed = errors.New("device closed")
	// ErrSpeedOutOfRange is returned by SetSpeed for values outside 0-100.
	ErrSpeedOutOfRange = errors.New("speed must be 0-100%")
)

// EventKind identifies the type of line received from the controller.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventBanner
	EventTelemetry
	EventAccepted
	EventOutOfRange
	EventInvalid
	EventStopped
)

func (k EventKind) String() string {
	switch k {
	case EventBanner:
		return "banner"
	case EventTelemetry:
		return "telemetry"
	case EventAccepted:
		return "accepted"
	case EventOutOfRange:
		return "out of range"
	case EventInvalid:
		return "invalid"
	case EventStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Event is one decoded line from the controller.
type Event struct {
	Timestamp time.Time
	Kind      EventKind
	Duty      uint8  // Telemetry: applied duty in percent
	RPM       uint32 // Telemetry: filtered speed
	Value     int    // Accepted: new target speed in percent
	Text      string // Raw line
}

// ParseLine decodes a line written by the controller.
// Formats:
//
//	PWM: 42% | RPM: 1260
//	Speed set to 75%
//	Motor STOPPED
//	ERROR: speed must be 0-100%
//	ERROR: invalid command
func ParseLine(line string) (Event, error) {
	line = strings.TrimSpace(line)
	ev := Event{Text: line}

	switch {
	case line == control.BannerTitle, line == control.BannerUsage, line == control.BannerRule:
		ev.Kind = EventBanner
	case line == control.StoppedText:
		ev.Kind = EventStopped
	case line == control.OutOfRangeText:
		ev.Kind = EventOutOfRange
	case line == control.InvalidText:
		ev.Kind = EventInvalid
	case strings.HasPrefix(line, control.AcceptedPrefix):
		value, err := parsePercent(strings.TrimPrefix(line, control.AcceptedPrefix))
		if err != nil {
			return Event{}, fmt.Errorf("invalid speed acknowledgement: %w", err)
		}
		ev.Kind = EventAccepted
		ev.Value = int(value)
	case strings.HasPrefix(line, control.TelemetryPWM):
		duty, rpm, err := parseTelemetry(strings.TrimPrefix(line, control.TelemetryPWM))
		if err != nil {
			return Event{}, err
		}
		ev.Kind = EventTelemetry
		ev.Duty = duty
		ev.RPM = rpm
	default:
		return Event{}, fmt.Errorf("unrecognised line %q", line)
	}

	return ev, nil
}

// parseTelemetry parses the remainder of a telemetry line: "42% | RPM: 1260".
func parseTelemetry(rest string) (uint8, uint32, error) {
	dutyStr, rpmStr, ok := strings.Cut(rest, control.TelemetryRPM)
	if !ok {
		return 0, 0, fmt.Errorf("invalid telemetry format: %q", rest)
	}

	duty, err := strconv.ParseUint(dutyStr, 10, 8)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid duty: %w", err)
	}
	if duty > control.MaxSpeed {
		return 0, 0, fmt.Errorf("duty out of range: %d (max %d)", duty, control.MaxSpeed)
	}

	rpm, err := strconv.ParseUint(rpmStr, 10, 32)
	if err != nil {
		return 0, 0, fmt.Errorf("invalid rpm: %w", err)
	}

	return uint8(duty), uint32(rpm), nil
}

func parsePercent(s string) (uint64, error) {
	s, ok := strings.CutSuffix(s, "%")
	if !ok {
		return 0, fmt.Errorf("missing %% in %q", s)
	}
	v, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, err
	}
	if v > control.MaxSpeed {
		return 0, fmt.Errorf("value out of range: %d", v)
	}
	return v, nil
}

// speedCommand builds the wire command for a target speed.
func speedCommand(percent int) ([]byte, error) {
	if percent < 0 || percent > control.MaxSpeed {
		return nil, fmt.Errorf("%w: %d", ErrSpeedOutOfRange, percent)
	}
	cmd := strconv.AppendInt(nil, int64(percent), 10)
	return append(cmd, '\r'), nil
}

// stopCommand is the wire command for an immediate stop.
var stopCommand = []byte{'S'}

// Tee copies every event from in to both returned channels. Both outputs
// close when in closes; a slow reader on either side stalls both.
func Tee(in <-chan Event, bufSize int) (<-chan Event, <-chan Event) {
	a := make(chan Event, bufSize)
	b := make(chan Event, bufSize)

	go func() {
		defer close(a)
		defer close(b)
		for ev := range in {
			a <- ev
			b <- ev
		}
	}()

	return a, b
}
