package scope

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/sample"
)

// ScopeWidget is a custom Fyne widget that plots speed telemetry over time:
// measured RPM, the open-loop RPM expected from the applied duty, and the
// target speed.
type ScopeWidget struct {
	widget.BaseWidget

	cfg *config.Config

	// Data (protected by mu)
	mu     sync.RWMutex
	status meter.Status

	// Display buffer (reused for downsampling)
	displaySamples []sample.Sample

	// Axis ranges
	yMax       float64
	xMin, xMax time.Time

	maxDisplayPoints int
}

// New creates a new ScopeWidget instance.
func New(cfg *config.Config) *ScopeWidget {
	s := &ScopeWidget{
		cfg:              cfg,
		displaySamples:   make([]sample.Sample, 0, 600),
		maxDisplayPoints: 600,
	}
	s.updateAxes()
	s.ExtendBaseWidget(s)
	s.Refresh()
	return s
}

// UpdateData replaces the plotted data. Call it on the Fyne main thread.
func (s *ScopeWidget) UpdateData(samples []sample.Sample, status meter.Status) {
	s.mu.Lock()
	s.displaySamples = sample.DownsampleSamples(s.displaySamples, samples, s.maxDisplayPoints)
	s.status = status
	s.updateAxes()
	s.mu.Unlock()

	// Refresh outside the lock; the renderer takes a read lock
	s.Refresh()
}

// updateAxes computes axis ranges. Callers hold s.mu.
func (s *ScopeWidget) updateAxes() {
	// Y axis always starts at 0 and covers at least the motor's rated speed
	s.yMax = s.cfg.Motor.MaxRPM
	for _, smp := range s.displaySamples {
		s.yMax = max(s.yMax, smp.RPM, smp.Expected)
	}
	s.yMax *= 1.1

	window := s.cfg.Window()
	if len(s.displaySamples) == 0 {
		s.xMax = time.Now()
		s.xMin = s.xMax.Add(-window)
		return
	}
	s.xMax = s.displaySamples[len(s.displaySamples)-1].Timestamp
	s.xMin = s.displaySamples[0].Timestamp
	if s.xMax.Sub(s.xMin) < window {
		s.xMin = s.xMax.Add(-window)
	}
}

// CreateRenderer creates the widget renderer.
func (s *ScopeWidget) CreateRenderer() fyne.WidgetRenderer {
	background := canvas.NewRectangle(color.RGBA{R: 20, G: 20, B: 20, A: 255})
	return &scopeRenderer{
		scope:      s,
		background: background,
		objects:    []fyne.CanvasObject{background},
	}
}
