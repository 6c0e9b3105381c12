package scope

import (
	"image/color"
	"strconv"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/sample"
)

var (
	gridColor     = color.RGBA{R: 40, G: 40, B: 40, A: 255}
	labelColor    = color.RGBA{R: 150, G: 150, B: 150, A: 255}
	rpmColor      = color.RGBA{R: 255, G: 165, B: 0, A: 255}   // Orange
	expectedColor = color.RGBA{R: 100, G: 200, B: 255, A: 255} // Light blue
	targetColor   = color.RGBA{R: 120, G: 220, B: 120, A: 255} // Green
)

// scopeRenderer renders the scope widget.
type scopeRenderer struct {
	scope      *ScopeWidget
	background *canvas.Rectangle
	objects    []fyne.CanvasObject
	lastSize   fyne.Size
}

// plotArea maps samples onto widget coordinates.
type plotArea struct {
	x, y, w, h float32
	yMax       float64
	xMin, xMax time.Time
}

func (p plotArea) point(ts time.Time, v float64) fyne.Position {
	span := p.xMax.Sub(p.xMin).Seconds()
	if span <= 0 {
		span = 1
	}
	x := p.x + float32(ts.Sub(p.xMin).Seconds()/span)*p.w
	y := p.y + p.h - float32(v/p.yMax)*p.h
	return fyne.NewPos(x, y)
}

// MinSize returns the minimum size of the widget.
func (r *scopeRenderer) MinSize() fyne.Size {
	return fyne.NewSize(400, 300)
}

// Layout arranges the widget components.
func (r *scopeRenderer) Layout(size fyne.Size) {
	r.background.Resize(size)
	if r.lastSize != size {
		r.lastSize = size
		r.scope.BaseWidget.Refresh()
	}
}

// Refresh rebuilds the canvas objects from the current data.
func (r *scopeRenderer) Refresh() {
	r.scope.mu.RLock()
	samples := r.scope.displaySamples
	status := r.scope.status
	maxRPM := r.scope.cfg.Motor.MaxRPM
	area := plotArea{yMax: r.scope.yMax, xMin: r.scope.xMin, xMax: r.scope.xMax}
	r.scope.mu.RUnlock()

	size := r.scope.Size()
	if size.Width == 0 || size.Height == 0 {
		return
	}

	r.objects = []fyne.CanvasObject{r.background}

	// Margins leave room for axis labels
	area.x, area.y = 60, 20
	area.w = size.Width - area.x - 20
	area.h = size.Height - area.y - 40

	r.drawGrid(area)
	r.drawSeries(area, samples, targetColor, 1, func(s sample.Sample) float64 { return s.Target * maxRPM / 100 })
	r.drawSeries(area, samples, expectedColor, 1.5, func(s sample.Sample) float64 { return s.Expected })
	r.drawSeries(area, samples, rpmColor, 2.5, func(s sample.Sample) float64 { return s.RPM })
	r.drawStatus(area, status)
}

// drawGrid draws horizontal RPM lines and vertical time lines with labels.
func (r *scopeRenderer) drawGrid(p plotArea) {
	const hLines, vLines = 6, 10

	for i := range hLines + 1 {
		y := p.y + float32(i)*p.h/hLines
		r.line(gridColor, 1, fyne.NewPos(p.x, y), fyne.NewPos(p.x+p.w, y))

		value := p.yMax - float64(i)*p.yMax/hLines
		r.text(formatRPM(value), labelColor, 10, fyne.TextAlignTrailing, fyne.NewPos(p.x-5, y-6))
	}

	span := p.xMax.Sub(p.xMin)
	for i := range vLines + 1 {
		x := p.x + float32(i)*p.w/vLines
		r.line(gridColor, 1, fyne.NewPos(x, p.y), fyne.NewPos(x, p.y+p.h))

		// Seconds relative to the newest sample
		offset := span - time.Duration(i)*span/vLines
		r.text(formatAge(offset), labelColor, 10, fyne.TextAlignCenter, fyne.NewPos(x-20, p.y+p.h+5))
	}
}

// drawSeries draws one value of every sample as connected line segments.
func (r *scopeRenderer) drawSeries(p plotArea, samples []sample.Sample, c color.Color, width float32, value func(sample.Sample) float64) {
	for i := 1; i < len(samples); i++ {
		a := p.point(samples[i-1].Timestamp, value(samples[i-1]))
		b := p.point(samples[i].Timestamp, value(samples[i]))
		r.line(c, width, a, b)
	}
}

// drawStatus writes the drive state in the top left corner.
func (r *scopeRenderer) drawStatus(p plotArea, st meter.Status) {
	label := "settling"
	switch {
	case st.Ramping:
		label = "ramping " + formatRPM(st.Acceleration) + " RPM/s"
	case st.Settled:
		label = "settled ±" + formatRPM(st.Spread/2) + " RPM"
	}
	r.text(label, color.RGBA{R: 200, G: 200, B: 200, A: 255}, 11, fyne.TextAlignLeading, fyne.NewPos(p.x+10, p.y+10))
}

func (r *scopeRenderer) line(c color.Color, width float32, a, b fyne.Position) {
	l := canvas.NewLine(c)
	l.Position1 = a
	l.Position2 = b
	l.StrokeWidth = width
	r.objects = append(r.objects, l)
}

func (r *scopeRenderer) text(s string, c color.Color, size float32, align fyne.TextAlign, pos fyne.Position) {
	t := canvas.NewText(s, c)
	t.TextSize = size
	t.Alignment = align
	t.Move(pos)
	r.objects = append(r.objects, t)
}

// Objects returns all canvas objects for rendering.
func (r *scopeRenderer) Objects() []fyne.CanvasObject {
	return r.objects
}

// Destroy cleans up resources.
func (r *scopeRenderer) Destroy() {}

func formatRPM(v float64) string {
	return strconv.FormatFloat(v, 'f', 0, 64)
}

func formatAge(d time.Duration) string {
	if d == 0 {
		return "now"
	}
	return "-" + strconv.FormatFloat(d.Seconds(), 'f', 0, 64) + "s"
}
