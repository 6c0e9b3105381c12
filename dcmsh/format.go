package main

import (
	"fmt"
	"strconv"

	"github.com/itohio/godcm/pkg/dcm"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/sample"
)

// replyText returns the controller replies worth echoing in the shell.
func replyText(ev dcm.Event) (string, bool) {
	switch ev.Kind {
	case dcm.EventAccepted, dcm.EventStopped, dcm.EventOutOfRange, dcm.EventInvalid:
		return ev.Text, true
	default:
		return "", false
	}
}

func formatStatus(samples []sample.Sample, status meter.Status) string {
	if len(samples) == 0 {
		return "No telemetry"
	}
	last := samples[len(samples)-1]

	state := "settling"
	switch {
	case status.Ramping:
		state = "ramping"
	case status.Settled:
		state = "settled"
	}

	return fmt.Sprintf("PWM %.0f%% (target %.0f%%) | RPM %.0f (expected %.0f) | %+.0f RPM/s | %s",
		last.Duty, last.Target, last.RPM, last.Expected, status.Acceleration, state)
}

func parseSnapshotArgs(args []string) (path string, session int, err error) {
	if len(args) < 1 || len(args) > 2 {
		return "", 0, fmt.Errorf("%w: snapshot <file.png> [session]", errUsage)
	}
	path = args[0]
	if len(args) == 2 {
		session, err = strconv.Atoi(args[1])
		if err != nil || session <= 0 {
			return "", 0, fmt.Errorf("%w: session must be a positive id", errUsage)
		}
	}
	return path, session, nil
}
