package sample

import (
	"log"
	"time"

	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/dcm"
)

// Sample represents one telemetry report with derived values.
type Sample struct {
	Timestamp time.Time `json:"timestamp"`
	Duty      float64   `json:"duty"`     // Applied duty (%)
	Target    float64   `json:"target"`   // Last accepted target speed (%)
	RPM       float64   `json:"rpm"`      // Filtered speed reported by the controller
	Expected  float64   `json:"expected"` // Open-loop speed expected for Duty (RPM)
}

// Converter is a function type that converts an Event channel to a Sample channel.
type Converter func(in <-chan dcm.Event) <-chan Sample

// NewConverter creates a converter that turns telemetry events into Samples.
// Acknowledged speed and stop commands update the target carried by later samples;
// all other events are dropped.
func NewConverter(cfg *config.Config, bufSize int) Converter {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan dcm.Event) <-chan Sample {
		out := make(chan Sample, bufSize)

		go func() {
			defer close(out)

			var target float64
			for ev := range in {
				switch ev.Kind {
				case dcm.EventAccepted:
					target = float64(ev.Value)
					continue
				case dcm.EventStopped:
					target = 0
					continue
				case dcm.EventTelemetry:
				default:
					continue
				}

				select {
				case out <- convertEvent(ev, target, cfg):
				case <-time.After(time.Second):
					log.Printf("Converter output channel full, dropping sample")
				}
			}
		}()

		return out
	}
}

// convertEvent converts a telemetry Event to a Sample.
func convertEvent(ev dcm.Event, target float64, cfg *config.Config) Sample {
	duty := float64(ev.Duty)
	return Sample{
		Timestamp: ev.Timestamp,
		Duty:      duty,
		Target:    target,
		RPM:       float64(ev.RPM),
		Expected:  expectedRPM(duty, cfg.Motor.MaxRPM),
	}
}

// expectedRPM is the steady-state speed of an ideal motor at the given duty.
func expectedRPM(duty, maxRPM float64) float64 {
	return duty * maxRPM / 100
}
