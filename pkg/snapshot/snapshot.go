// Package snapshot renders telemetry to a static image for export and the
// HTTP trend endpoint.
package snapshot

import (
	"fmt"
	"image"
	"io"
	"strconv"

	"github.com/fogleman/gg"
	"github.com/itohio/godcm/pkg/sample"
)

const margin = 40

// Options controls the rendered image.
type Options struct {
	Width, Height int
	MaxRPM        float64 // Used to scale the target line; also the minimum Y range
}

// Render draws measured RPM, expected RPM and target speed over time.
func Render(samples []sample.Sample, opts Options) image.Image {
	if opts.Width <= 2*margin {
		opts.Width = 800
	}
	if opts.Height <= 2*margin {
		opts.Height = 400
	}

	c := gg.NewContext(opts.Width, opts.Height)
	c.SetRGB255(20, 20, 20)
	c.Clear()

	yMax := opts.MaxRPM
	for _, s := range samples {
		yMax = max(yMax, s.RPM, s.Expected)
	}
	if yMax <= 0 {
		yMax = 1
	}
	yMax *= 1.1

	w := float64(opts.Width - 2*margin)
	h := float64(opts.Height - 2*margin)

	// Grid with RPM labels
	c.SetLineWidth(1)
	for i := 0; i <= 5; i++ {
		y := margin + h*float64(i)/5
		c.SetRGB255(40, 40, 40)
		c.DrawLine(margin, y, margin+w, y)
		c.Stroke()
		c.SetRGB255(150, 150, 150)
		c.DrawStringAnchored(strconv.FormatFloat(yMax*float64(5-i)/5, 'f', 0, 64), margin-4, y, 1, 0.5)
	}

	if len(samples) < 2 {
		return c.Image()
	}

	t0 := samples[0].Timestamp
	span := samples[len(samples)-1].Timestamp.Sub(t0).Seconds()
	if span <= 0 {
		span = 1
	}
	x := func(s sample.Sample) float64 { return margin + w*s.Timestamp.Sub(t0).Seconds()/span }
	y := func(v float64) float64 { return margin + h - h*v/yMax }

	series := []struct {
		r, g, b int
		width   float64
		value   func(sample.Sample) float64
	}{
		{120, 220, 120, 1, func(s sample.Sample) float64 { return s.Target * opts.MaxRPM / 100 }},
		{100, 200, 255, 1.5, func(s sample.Sample) float64 { return s.Expected }},
		{255, 165, 0, 2.5, func(s sample.Sample) float64 { return s.RPM }},
	}
	for _, sr := range series {
		c.SetRGB255(sr.r, sr.g, sr.b)
		c.SetLineWidth(sr.width)
		c.MoveTo(x(samples[0]), y(sr.value(samples[0])))
		for _, s := range samples[1:] {
			c.LineTo(x(s), y(sr.value(s)))
		}
		c.Stroke()
	}

	c.SetRGB255(150, 150, 150)
	c.DrawStringAnchored(fmt.Sprintf("%.0fs", span), margin+w, margin+h+14, 1, 0.5)

	return c.Image()
}

// WritePNG renders samples and encodes the image as PNG.
func WritePNG(w io.Writer, samples []sample.Sample, opts Options) error {
	img := Render(samples, opts)
	if err := gg.NewContextForImage(img).EncodePNG(w); err != nil {
		return fmt.Errorf("failed to encode png: %w", err)
	}
	return nil
}

// SavePNG renders samples to a PNG file.
func SavePNG(path string, samples []sample.Sample, opts Options) error {
	if err := gg.SavePNG(path, Render(samples, opts)); err != nil {
		return fmt.Errorf("failed to save %s: %w", path, err)
	}
	return nil
}
