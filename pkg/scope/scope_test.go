package scope

import (
	"testing"
	"time"

	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/sample"
	"github.com/stretchr/testify/assert"
)

func TestPlotArea_Point(t *testing.T) {
	now := time.Now()
	p := plotArea{x: 10, y: 20, w: 100, h: 50, yMax: 1000, xMin: now, xMax: now.Add(10 * time.Second)}

	origin := p.point(now, 0)
	assert.InDelta(t, 10, origin.X, 1e-3)
	assert.InDelta(t, 70, origin.Y, 1e-3)

	corner := p.point(now.Add(10*time.Second), 1000)
	assert.InDelta(t, 110, corner.X, 1e-3)
	assert.InDelta(t, 20, corner.Y, 1e-3)
}

func TestUpdateAxes(t *testing.T) {
	cfg := config.Default()
	s := &ScopeWidget{cfg: cfg, maxDisplayPoints: 10}

	now := time.Now()
	s.displaySamples = []sample.Sample{
		{Timestamp: now, RPM: 100},
		{Timestamp: now.Add(time.Second), RPM: 4000},
	}
	s.updateAxes()

	assert.InDelta(t, 4400, s.yMax, 1e-9)
	assert.Equal(t, now.Add(time.Second), s.xMax)
	assert.Equal(t, now.Add(time.Second).Add(-cfg.Window()), s.xMin, "short history is padded to the window")
}

func TestFormat(t *testing.T) {
	assert.Equal(t, "1500", formatRPM(1499.6))
	assert.Equal(t, "now", formatAge(0))
	assert.Equal(t, "-12s", formatAge(12*time.Second))
}
