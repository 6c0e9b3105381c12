package main

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"fyne.io/fyne/v2/dialog"
	"github.com/itohio/godcm/pkg/dcm"
)

var errBadSpeed = errors.New("speed must be a whole number")

// handleSetSpeed sends the speed typed into the entry.
func handleSetSpeed(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	percent, err := parseSpeed(state.speedEntry.Text)
	if err == nil {
		err = state.device.SetSpeed(percent)
	}
	if err != nil {
		dialog.ShowError(fmt.Errorf("failed to set speed: %w", err), state.window)
	}
}

// handleStop commands an immediate ramp down to zero.
func handleStop(state *appState) {
	if state.device == nil || !state.device.IsConnected() {
		return
	}

	if err := state.device.Stop(); err != nil {
		dialog.ShowError(fmt.Errorf("failed to stop motor: %w", err), state.window)
	}
}

// parseSpeed converts the entry text to a percentage. Range checks are left
// to the device so the controller's own limits apply.
func parseSpeed(text string) (int, error) {
	text = strings.TrimSuffix(strings.TrimSpace(text), "%")
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%q: %w", text, errBadSpeed)
	}
	return v, nil
}

// statusText renders controller replies for the status label. Telemetry and
// banner lines are not shown.
func statusText(ev dcm.Event) (string, bool) {
	switch ev.Kind {
	case dcm.EventAccepted:
		return fmt.Sprintf("Target %d%%", ev.Value), true
	case dcm.EventStopped:
		return "Stopping", true
	case dcm.EventOutOfRange, dcm.EventInvalid:
		return ev.Text, true
	default:
		return "", false
	}
}

// setControlsEnabled toggles the widgets that need a connected device.
func setControlsEnabled(state *appState, enabled bool) {
	if enabled {
		state.speedEntry.Enable()
		state.setBtn.Enable()
		state.stopBtn.Enable()
		return
	}
	state.speedEntry.Disable()
	state.setBtn.Disable()
	state.stopBtn.Disable()
}
