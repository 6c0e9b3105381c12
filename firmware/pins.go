//go:build tinygo

package main

import "machine"

const (
	// Motor driver PWM output and its timer
	PIN_PWM = machine.D2

	// Hall/optical sensor output, falling edge per pulse
	PIN_SENSOR = machine.D3

	// 10 kHz keeps the switching above audible range for small brushed motors
	PWM_PERIOD_NS = 1e9 / 10000

	// Pulse counter time base
	TICK_INTERVAL_MS = 1

	// Serial configuration
	// Longest line is "PWM: 100% | RPM: 4294967295\r\n" (29 bytes) once a second;
	// 9600 baud is ~960 bytes/sec, plenty for telemetry plus command echoes.
	UART_BAUD_RATE = 9600
)

var pwmTimer = machine.TCC0
