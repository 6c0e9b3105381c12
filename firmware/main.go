//go:build tinygo

//go:generate tinygo flash -target=xiao

package main

import (
	"context"
	"machine"
	"time"

	"github.com/itohio/godcm/pkg/control"
	tinygopwm "github.com/ralvarezdev/tinygo-pwm"
)

var (
	uart    = machine.UART0
	counter = control.NewPulseCounter(control.MeasurementTicks)
)

// pwmDriver programs the motor PWM channel from a speed percentage. The
// high time is expressed in nanoseconds of PWM_PERIOD_NS.
type pwmDriver struct {
	pwm     tinygopwm.PWM
	channel uint8
}

func (d *pwmDriver) SetSpeed(percent uint8) {
	tinygopwm.SetDuty(d.pwm, d.channel, control.DutyFromPercent(percent, PWM_PERIOD_NS), PWM_PERIOD_NS)
}

func main() {
	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	// PWM output, starts at 0% duty
	if err := pwmTimer.Configure(machine.PWMConfig{Period: PWM_PERIOD_NS}); err != nil {
		fail("pwm configure", err)
	}
	channel, err := pwmTimer.Channel(PIN_PWM)
	if err != nil {
		fail("pwm channel", err)
	}
	driver := &pwmDriver{pwm: pwmTimer, channel: channel}

	// Sensor pulses are counted from the edge interrupt
	PIN_SENSOR.Configure(machine.PinConfig{Mode: machine.PinInputPullup})
	if err := PIN_SENSOR.SetInterrupt(machine.PinFalling, func(machine.Pin) {
		counter.Pulse()
	}); err != nil {
		fail("sensor interrupt", err)
	}

	go tick()

	loop := control.NewLoop(uart, counter, driver, time.Sleep)
	loop.Run(context.Background())
}

// tick feeds the pulse counter one Tick per elapsed millisecond. Sleep is
// coarse under the cooperative scheduler, so missed milliseconds are caught up
// from the clock.
func tick() {
	const interval = TICK_INTERVAL_MS * time.Millisecond

	last := time.Now()
	for {
		time.Sleep(interval)
		now := time.Now()
		for now.Sub(last) >= interval {
			counter.Tick()
			last = last.Add(interval)
		}
	}
}

// fail reports a setup error on the serial line and halts.
func fail(what string, err error) {
	for {
		println(what+":", err.Error())
		time.Sleep(time.Second)
	}
}
