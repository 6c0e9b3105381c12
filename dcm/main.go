package main

import (
	"flag"
	"fmt"
	"log"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"
	"fyne.io/fyne/v2/container"
	"fyne.io/fyne/v2/dialog"
	"fyne.io/fyne/v2/theme"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/dcm"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/sample"
	"github.com/itohio/godcm/pkg/scope"
)

func main() {
	var (
		portFlag           = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag         = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag           = flag.Bool("mock", false, "Use simulated motor instead of serial port")
		averageSamplesFlag = flag.Int("average-samples", -1, "Number of samples to average (0 = disabled, overrides config)")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *averageSamplesFlag >= 0 {
		cfg.Telemetry.AverageSamples = *averageSamplesFlag
	}

	application := app.NewWithID("com.itohio.godcm")

	window := application.NewWindow("DC Motor Control")
	window.Resize(fyne.NewSize(1200, 800))
	window.CenterOnScreen()

	state := &appState{
		cfg:        cfg,
		configPath: *configFlag,
		speedMeter: meter.New(cfg),
		window:     window,
		useMock:    *mockFlag,
	}

	toolbar := createToolbar(state)

	state.scopeWidget = scope.New(cfg)
	state.registerScopeUpdates()

	window.SetContent(container.NewBorder(toolbar, nil, nil, nil, state.scopeWidget))
	window.SetOnClosed(func() {
		closeTelemetryChain(state.chain)
	})
	window.ShowAndRun()
}

// telemetryChain tracks the goroutines fed by a connected device.
type telemetryChain struct {
	device     dcm.Device
	statusDone chan struct{} // Closed when the status goroutine exits
	meterDone  chan struct{} // Closed when the meter goroutine exits
}

// appState holds the application state.
type appState struct {
	cfg         *config.Config
	configPath  string
	device      dcm.Device
	speedMeter  *meter.Meter
	scopeWidget *scope.ScopeWidget
	window      fyne.Window
	useMock     bool
	chain       *telemetryChain
	meterStale  bool

	connectBtn *widget.Button
	speedEntry *widget.Entry
	setBtn     *widget.Button
	stopBtn    *widget.Button
	statusLbl  *widget.Label

	// Throttling for scope updates
	lastUpdateTime time.Time
	updateMu       sync.Mutex
}

// createToolbar creates the toolbar with Connect, Settings, speed entry, Set and Stop.
func createToolbar(state *appState) fyne.CanvasObject {
	state.connectBtn = widget.NewButtonWithIcon("", theme.LoginIcon(), func() {
		handleConnect(state)
	})

	settingsBtn := widget.NewButtonWithIcon("", theme.SettingsIcon(), func() {
		showSettingsDialog(state)
	})

	state.speedEntry = widget.NewEntry()
	state.speedEntry.SetPlaceHolder("0-100")
	state.speedEntry.OnSubmitted = func(string) {
		handleSetSpeed(state)
	}

	state.setBtn = widget.NewButtonWithIcon("Set", theme.MediaPlayIcon(), func() {
		handleSetSpeed(state)
	})
	state.stopBtn = widget.NewButtonWithIcon("Stop", theme.MediaStopIcon(), func() {
		handleStop(state)
	})
	state.stopBtn.Importance = widget.DangerImportance

	state.statusLbl = widget.NewLabel("Disconnected")

	setControlsEnabled(state, false)

	speedBox := container.NewGridWrap(fyne.NewSize(80, state.speedEntry.MinSize().Height), state.speedEntry)
	return container.NewBorder(
		nil,
		nil,
		container.NewHBox(state.connectBtn, settingsBtn, widget.NewSeparator(), speedBox, state.setBtn, state.stopBtn),
		state.statusLbl,
		nil,
	)
}

// registerScopeUpdates forwards meter updates to the scope, throttled to ~60 FPS.
func (state *appState) registerScopeUpdates() {
	const updateInterval = 16 * time.Millisecond

	state.speedMeter.OnUpdate(func(samples []sample.Sample, _ []float64, status meter.Status) {
		state.updateMu.Lock()
		now := time.Now()
		if now.Sub(state.lastUpdateTime) < updateInterval {
			state.updateMu.Unlock()
			return
		}
		state.lastUpdateTime = now
		state.updateMu.Unlock()

		fyne.Do(func() {
			state.scopeWidget.UpdateData(samples, status)
		})
	})
}

// closeTelemetryChain closes the device and waits for its consumers to drain.
func closeTelemetryChain(chain *telemetryChain) {
	if chain == nil {
		return
	}

	if chain.device != nil {
		if err := chain.device.Close(); err != nil {
			log.Printf("Failed to close device: %v", err)
		}
	}
	if chain.statusDone != nil {
		<-chain.statusDone
	}
	if chain.meterDone != nil {
		<-chain.meterDone
	}
}

// handleConnect handles the connect/disconnect button click.
func handleConnect(state *appState) {
	if state.device != nil && state.device.IsConnected() {
		closeTelemetryChain(state.chain)
		state.chain = nil
		state.device = nil
		setControlsEnabled(state, false)
		state.statusLbl.SetText("Disconnected")
		if state.useMock {
			fmt.Println("Disconnected from simulated motor")
		} else {
			fmt.Println("Disconnected from serial port")
		}
		return
	}

	var device dcm.Device
	if state.useMock {
		device = dcm.NewMock(state.cfg)
		fmt.Println("Using simulated motor")
	} else {
		device = dcm.New(state.cfg.Serial.Port, state.cfg.Serial.BaudRate, dcm.DefaultBufferSize)
	}

	if err := device.Connect(); err != nil {
		if state.useMock {
			dialog.ShowError(fmt.Errorf("failed to start simulated motor: %w", err), state.window)
		} else {
			dialog.ShowError(fmt.Errorf("failed to connect to %s: %w", state.cfg.Serial.Port, err), state.window)
		}
		return
	}
	state.device = device
	if state.useMock {
		fmt.Println("Connected to simulated motor")
	} else {
		fmt.Printf("Connected to serial port: %s\n", state.cfg.Serial.Port)
	}

	setControlsEnabled(state, true)
	state.statusLbl.SetText("Connected")
	if state.meterStale {
		// Telemetry settings changed; callbacks belong to the old meter
		state.speedMeter = meter.New(state.cfg)
		state.registerScopeUpdates()
		state.meterStale = false
	} else {
		state.speedMeter.ResetShutdown()
	}

	// Events feed both the status label and the sample converter
	forStatus, forSamples := dcm.Tee(device.Events(), 500)

	statusDone := make(chan struct{})
	meterDone := make(chan struct{})

	go func() {
		defer close(statusDone)
		for ev := range forStatus {
			text, ok := statusText(ev)
			if !ok {
				continue
			}
			fyne.Do(func() {
				state.statusLbl.SetText(text)
			})
		}
	}()

	samples := sample.NewConverter(state.cfg, 500)(forSamples)
	if state.cfg.Telemetry.AverageSamples > 0 {
		samples = sample.NewAveragingConverter(state.cfg.Telemetry.AverageSamples, 500)(samples)
	}

	go func() {
		defer close(meterDone)
		state.speedMeter.ProcessSamples(samples)
	}()

	state.chain = &telemetryChain{
		device:     device,
		statusDone: statusDone,
		meterDone:  meterDone,
	}
}
