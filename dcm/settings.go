package main

import (
	"fmt"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/godcm/pkg/dcm"
)

// showSettingsDialog displays a settings dialog with one tab per config section.
func showSettingsDialog(state *appState) {
	tabs := container.NewAppTabs(
		createSerialTab(state),
		createTelemetryTab(state),
		createMotorTab(state),
		createMockTab(state),
	)

	content := container.NewBorder(nil, nil, nil, nil, tabs)
	content.Resize(fyne.NewSize(600, 400))

	d := dialog.NewCustom("Settings", "Close", content, state.window)
	d.Resize(fyne.NewSize(600, 400))
	d.Show()
}

// saveConfig persists the config and reports failures in a dialog.
func saveConfig(state *appState) {
	if err := state.cfg.Save(state.configPath); err != nil {
		dialog.ShowError(fmt.Errorf("failed to save config: %w", err), state.window)
	}
}

// createSerialTab creates the Serial configuration tab.
func createSerialTab(state *appState) *container.TabItem {
	ports, err := dcm.Ports()
	portOptions := []string{}
	portMap := make(map[string]string) // display name -> port name

	if err == nil {
		for _, port := range ports {
			displayName := port.Name
			if port.Description != "" && port.Description != port.Name {
				displayName = fmt.Sprintf("%s (%s)", port.Name, port.Description)
			}
			portOptions = append(portOptions, displayName)
			portMap[displayName] = port.Name
		}
	}

	currentDisplay := state.cfg.Serial.Port
	found := false
	for _, opt := range portOptions {
		if portMap[opt] == state.cfg.Serial.Port {
			currentDisplay = opt
			found = true
			break
		}
	}
	if !found && currentDisplay != "" {
		portOptions = append(portOptions, currentDisplay)
		portMap[currentDisplay] = currentDisplay
	}

	portSelect := widget.NewSelect(portOptions, nil)
	if currentDisplay != "" {
		portSelect.SetSelected(currentDisplay)
	}

	baudEntry := widget.NewEntry()
	baudEntry.SetText(strconv.Itoa(state.cfg.Serial.BaudRate))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Serial Port", Widget: portSelect},
			{Text: "Baud Rate", Widget: baudEntry},
		},
		OnSubmit: func() {
			oldPort, oldBaud := state.cfg.Serial.Port, state.cfg.Serial.BaudRate

			if portSelect.Selected != "" {
				selected := portMap[portSelect.Selected]
				if selected == "" {
					selected = portSelect.Selected
				}
				state.cfg.Serial.Port = selected
			}
			if baud, err := strconv.Atoi(baudEntry.Text); err == nil && baud > 0 {
				state.cfg.Serial.BaudRate = baud
			}
			saveConfig(state)

			// Reconnect a live serial link with the new parameters
			changed := oldPort != state.cfg.Serial.Port || oldBaud != state.cfg.Serial.BaudRate
			if changed && !state.useMock && state.device != nil && state.device.IsConnected() {
				handleConnect(state) // disconnect
				handleConnect(state) // connect
			}
		},
	}

	return container.NewTabItem("Serial", form)
}

// createTelemetryTab creates the Telemetry configuration tab.
func createTelemetryTab(state *appState) *container.TabItem {
	windowEntry := widget.NewEntry()
	windowEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Telemetry.WindowSeconds))

	averageEntry := widget.NewEntry()
	averageEntry.SetText(strconv.Itoa(state.cfg.Telemetry.AverageSamples))

	toleranceEntry := widget.NewEntry()
	toleranceEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Telemetry.SettleToleranceRPM))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Window (seconds)", Widget: windowEntry},
			{Text: "Average Samples (0=disabled)", Widget: averageEntry},
			{Text: "Settle Tolerance (RPM)", Widget: toleranceEntry},
		},
		OnSubmit: func() {
			if ws, err := strconv.ParseFloat(windowEntry.Text, 64); err == nil {
				state.cfg.Telemetry.WindowSeconds = ws
			}
			if avg, err := strconv.Atoi(averageEntry.Text); err == nil {
				state.cfg.Telemetry.AverageSamples = avg
			}
			if tol, err := strconv.ParseFloat(toleranceEntry.Text, 64); err == nil {
				state.cfg.Telemetry.SettleToleranceRPM = tol
			}
			saveConfig(state)
			state.meterStale = true
			dialog.ShowInformation("Settings", "Telemetry settings apply on the next connect.", state.window)
		},
	}

	return container.NewTabItem("Telemetry", form)
}

// createMotorTab creates the Motor configuration tab.
func createMotorTab(state *appState) *container.TabItem {
	maxRPMEntry := widget.NewEntry()
	maxRPMEntry.SetText(fmt.Sprintf("%.0f", state.cfg.Motor.MaxRPM))

	tauEntry := widget.NewEntry()
	tauEntry.SetText(state.cfg.Motor.TimeConstant.String())

	noiseEntry := widget.NewEntry()
	noiseEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Motor.NoiseRPM))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Max RPM (100% duty)", Widget: maxRPMEntry},
			{Text: "Time Constant", Widget: tauEntry},
			{Text: "Noise (RPM)", Widget: noiseEntry},
		},
		OnSubmit: func() {
			if v, err := strconv.ParseFloat(maxRPMEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Motor.MaxRPM = v
			}
			if d, err := time.ParseDuration(tauEntry.Text); err == nil {
				state.cfg.Motor.TimeConstant = d
			}
			if v, err := strconv.ParseFloat(noiseEntry.Text, 64); err == nil {
				state.cfg.Motor.NoiseRPM = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Motor", form)
}

// createMockTab creates the simulated device configuration tab.
func createMockTab(state *appState) *container.TabItem {
	tickEntry := widget.NewEntry()
	tickEntry.SetText(state.cfg.Mock.Tick.String())

	speedupEntry := widget.NewEntry()
	speedupEntry.SetText(fmt.Sprintf("%.1f", state.cfg.Mock.Speedup))

	form := &widget.Form{
		Items: []*widget.FormItem{
			{Text: "Tick", Widget: tickEntry},
			{Text: "Speedup", Widget: speedupEntry},
		},
		OnSubmit: func() {
			if d, err := time.ParseDuration(tickEntry.Text); err == nil {
				state.cfg.Mock.Tick = d
			}
			if v, err := strconv.ParseFloat(speedupEntry.Text, 64); err == nil && v > 0 {
				state.cfg.Mock.Speedup = v
			}
			saveConfig(state)
		},
	}

	return container.NewTabItem("Mock", form)
}
