// Package control implements the speed controller that runs on the MCU:
// rotation-rate estimation, smoothing, the rate-limited duty ramp, the serial
// command parser and the cooperative loop that ties them together.
//
// The package has no third-party dependencies so it builds under TinyGo.
package control

const (
	// PulsesPerRevolution is the number of sensor edges per shaft revolution.
	PulsesPerRevolution = 2
	// MeasurementTicks is the number of 1 ms ticks in a measurement interval.
	MeasurementTicks = 1000
)

// EstimateRPM converts pulses counted over one second into revolutions per minute.
func EstimateRPM(pulses, pulsesPerRev uint32) uint32 {
	if pulsesPerRev == 0 {
		pulsesPerRev = 1
	}
	return uint32(uint64(pulses) * 60 / uint64(pulsesPerRev))
}
