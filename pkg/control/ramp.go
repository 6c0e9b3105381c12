package control

import "time"

const (
	// MaxSpeed is the upper bound for desired and actual speed, in percent.
	MaxSpeed = 100
	// RampPeriod is how often Ramp.Step is invoked by the loop.
	RampPeriod = 50 * time.Millisecond
)

// Actuator programs the motor driver with a duty cycle in percent (0-100).
type Actuator interface {
	SetSpeed(percent uint8)
}

// MotorState holds the commanded and applied speed, both in percent.
type MotorState struct {
	Desired uint8
	Actual  uint8
}

// DutyFromPercent converts a percentage into the actuator's native duty range.
func DutyFromPercent(percent uint8, maxDuty uint32) uint32 {
	if percent > MaxSpeed {
		percent = MaxSpeed
	}
	return uint32(uint64(percent) * uint64(maxDuty) / MaxSpeed)
}

// Ramp moves the actual speed toward the desired speed one percent at a time.
type Ramp struct {
	actuator Actuator
}

// NewRamp creates a ramp that drives the given actuator.
func NewRamp(actuator Actuator) *Ramp {
	return &Ramp{actuator: actuator}
}

// Step advances state.Actual by at most one unit toward state.Desired and
// applies the result. The actuator is programmed even when nothing changed.
func (r *Ramp) Step(state *MotorState) {
	switch {
	case state.Actual < state.Desired:
		state.Actual++
	case state.Actual > state.Desired:
		state.Actual--
	}

	speed := state.Actual
	if speed > MaxSpeed {
		speed = MaxSpeed
	}
	if r.actuator != nil {
		r.actuator.SetSpeed(speed)
	}
}
