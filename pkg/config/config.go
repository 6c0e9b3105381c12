package config

import (
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"gopkg.in/yaml.v3"
)

// Config represents the host application configuration.
// Controller constants (ramp rate, filter depth, pulses per revolution) are
// compiled into the firmware and are not configurable here.
type Config struct {
	Serial    SerialConfig    `yaml:"serial"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Motor     MotorConfig     `yaml:"motor"`
	Mock      MockConfig      `yaml:"mock"`
	Server    ServerConfig    `yaml:"server"`
	Record    RecordConfig    `yaml:"record"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port     string `yaml:"port" env:"DCM_SERIAL_PORT"`
	BaudRate int    `yaml:"baud_rate" env:"DCM_BAUD_RATE"`
}

// TelemetryConfig controls how telemetry is buffered and displayed.
type TelemetryConfig struct {
	WindowSeconds      float64 `yaml:"window_seconds"`
	AverageSamples     int     `yaml:"average_samples"`      // Number of samples to average (0 = disabled, default)
	SettleToleranceRPM float64 `yaml:"settle_tolerance_rpm"` // Max RPM spread for the motor to count as settled
}

// MotorConfig describes the simulated motor plant.
type MotorConfig struct {
	MaxRPM       float64       `yaml:"max_rpm"`       // Steady-state speed at 100% duty
	TimeConstant time.Duration `yaml:"time_constant"` // Mechanical time constant
	NoiseRPM     float64       `yaml:"noise_rpm"`     // Peak speed ripple
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Tick    time.Duration `yaml:"tick"`    // Wall-clock granularity of the simulation
	Speedup float64       `yaml:"speedup"` // Simulated time per wall-clock time
}

// ServerConfig controls the HTTP/WebSocket telemetry server of dcmsh.
type ServerConfig struct {
	Addr string `yaml:"addr" env:"DCM_HTTP_ADDR"` // Empty disables the server
}

// RecordConfig controls telemetry recording.
type RecordConfig struct {
	Path string `yaml:"path" env:"DCM_RECORD_PATH"` // Empty disables recording
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "/dev/ttyACM0",
			BaudRate: 9600,
		},
		Telemetry: TelemetryConfig{
			WindowSeconds:      60,
			AverageSamples:     0,
			SettleToleranceRPM: 50,
		},
		Motor: MotorConfig{
			MaxRPM:       3000,
			TimeConstant: 300 * time.Millisecond,
			NoiseRPM:     0,
		},
		Mock: MockConfig{
			Tick:    10 * time.Millisecond,
			Speedup: 1,
		},
		Server: ServerConfig{
			Addr: "",
		},
		Record: RecordConfig{
			Path: "",
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values. DCM_* environment variables
// override the file.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// applyEnv overrides the sections that carry env tags.
func (c *Config) applyEnv() error {
	for _, section := range []interface{}{&c.Serial, &c.Server, &c.Record} {
		if err := env.Parse(section); err != nil {
			return fmt.Errorf("failed to parse environment: %w", err)
		}
	}
	return nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Window returns the telemetry window as a duration.
func (c *Config) Window() time.Duration {
	return time.Duration(c.Telemetry.WindowSeconds * float64(time.Second))
}

// ensureDefaults fills zero or invalid fields from Default.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.BaudRate <= 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Telemetry.WindowSeconds <= 0 {
		c.Telemetry.WindowSeconds = def.Telemetry.WindowSeconds
	}
	if c.Telemetry.AverageSamples < 0 {
		c.Telemetry.AverageSamples = def.Telemetry.AverageSamples
	}
	if c.Telemetry.SettleToleranceRPM <= 0 {
		c.Telemetry.SettleToleranceRPM = def.Telemetry.SettleToleranceRPM
	}

	if c.Motor.MaxRPM <= 0 {
		c.Motor.MaxRPM = def.Motor.MaxRPM
	}
	if c.Motor.TimeConstant <= 0 {
		c.Motor.TimeConstant = def.Motor.TimeConstant
	}
	if c.Motor.NoiseRPM < 0 {
		c.Motor.NoiseRPM = 0
	}

	if c.Mock.Tick <= 0 {
		c.Mock.Tick = def.Mock.Tick
	}
	if c.Mock.Speedup <= 0 {
		c.Mock.Speedup = def.Mock.Speedup
	}
}
