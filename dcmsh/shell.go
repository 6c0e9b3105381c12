package main

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/abiosoft/ishell/v2"
	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/dcm"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/record"
	"github.com/itohio/godcm/pkg/sample"
	"github.com/itohio/godcm/pkg/server"
	"github.com/itohio/godcm/pkg/snapshot"
)

var errUsage = errors.New("usage")

// shellState holds the connection and the telemetry chain behind it.
type shellState struct {
	cfg        *config.Config
	useMock    bool
	shell      *ishell.Shell
	speedMeter *meter.Meter
	server     *server.Server
	store      *record.Store

	device     dcm.Device
	session    record.Session
	repliesEnd chan struct{}
	meterEnd   chan struct{}
}

func addCommands(shell *ishell.Shell, state *shellState) {
	shell.AddCmd(&ishell.Cmd{
		Name: "connect",
		Help: "connect to the motor controller",
		Func: func(c *ishell.Context) {
			if err := state.connect(); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "disconnect",
		Help: "close the connection",
		Func: func(c *ishell.Context) {
			state.disconnect()
			c.Println("Disconnected")
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "speed",
		Help: "speed <0-100>",
		Func: func(c *ishell.Context) {
			if len(c.Args) != 1 {
				c.Err(fmt.Errorf("%w: speed <0-100>", errUsage))
				return
			}
			percent, err := strconv.Atoi(strings.TrimSuffix(c.Args[0], "%"))
			if err != nil {
				c.Err(fmt.Errorf("%w: speed <0-100>", errUsage))
				return
			}
			if err := state.command(func(d dcm.Device) error { return d.SetSpeed(percent) }); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "stop",
		Help: "ramp the motor down to zero",
		Func: func(c *ishell.Context) {
			if err := state.command(dcm.Device.Stop); err != nil {
				c.Err(err)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "status",
		Help: "show the latest telemetry",
		Func: func(c *ishell.Context) {
			c.Println(formatStatus(state.speedMeter.Samples(), state.speedMeter.Status()))
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "ports",
		Help: "list serial ports",
		Func: func(c *ishell.Context) {
			ports, err := dcm.Ports()
			if err != nil {
				c.Err(err)
				return
			}
			for _, p := range ports {
				c.Println(p.Name, p.Description)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "sessions",
		Help: "list recorded sessions",
		Func: func(c *ishell.Context) {
			if state.store == nil {
				c.Err(errors.New("recording is disabled, set record.path or -db"))
				return
			}
			sessions, err := state.store.Sessions()
			if err != nil {
				c.Err(err)
				return
			}
			for _, s := range sessions {
				c.Printf("%4d  %s  %s\n", s.ID, s.Started.Format("2006-01-02 15:04:05"), s.Source)
			}
		},
	})

	shell.AddCmd(&ishell.Cmd{
		Name: "snapshot",
		Help: "snapshot <file.png> [session]",
		Func: func(c *ishell.Context) {
			path, session, err := parseSnapshotArgs(c.Args)
			if err != nil {
				c.Err(err)
				return
			}

			samples := state.speedMeter.Samples()
			if session > 0 {
				if state.store == nil {
					c.Err(errors.New("recording is disabled, set record.path or -db"))
					return
				}
				if samples, err = state.store.Samples(session); err != nil {
					c.Err(err)
					return
				}
			}

			if err := snapshot.SavePNG(path, samples, snapshot.Options{MaxRPM: state.cfg.Motor.MaxRPM}); err != nil {
				c.Err(err)
				return
			}
			c.Printf("Wrote %d samples to %s\n", len(samples), path)
		},
	})
}

// connect opens the device and starts the telemetry chain:
// events -> replies printer + converter -> [averaging] -> [recorder] -> meter.
func (s *shellState) connect() error {
	if s.device != nil && s.device.IsConnected() {
		return dcm.ErrAlreadyConnected
	}

	var device dcm.Device
	source := s.cfg.Serial.Port
	if s.useMock {
		device = dcm.NewMock(s.cfg)
		source = "mock"
	} else {
		device = dcm.New(s.cfg.Serial.Port, s.cfg.Serial.BaudRate, dcm.DefaultBufferSize)
	}
	if err := device.Connect(); err != nil {
		return fmt.Errorf("failed to connect to %s: %w", source, err)
	}
	s.device = device
	s.shell.Printf("Connected to %s\n", source)

	replies, events := dcm.Tee(device.Events(), 500)

	s.repliesEnd = make(chan struct{})
	go func() {
		defer close(s.repliesEnd)
		for ev := range replies {
			if text, ok := replyText(ev); ok {
				s.shell.Println(text)
			}
		}
	}()

	samples := sample.NewConverter(s.cfg, 500)(events)
	if s.cfg.Telemetry.AverageSamples > 0 {
		samples = sample.NewAveragingConverter(s.cfg.Telemetry.AverageSamples, 500)(samples)
	}
	if s.store != nil {
		session, err := s.store.StartSession(source)
		if err != nil {
			log.Printf("Recording disabled for this session: %v", err)
		} else {
			s.session = session
			samples = record.NewRecorder(s.store, session.ID, 500)(samples)
			s.shell.Printf("Recording session %d\n", session.ID)
		}
	}

	s.speedMeter.ResetShutdown()
	s.meterEnd = make(chan struct{})
	go func() {
		defer close(s.meterEnd)
		s.speedMeter.ProcessSamples(samples)
	}()

	if s.server != nil {
		s.server.SetDevice(device)
	}
	return nil
}

// disconnect closes the device and waits for the chain to drain.
func (s *shellState) disconnect() {
	if s.device == nil {
		return
	}
	if s.server != nil {
		s.server.SetDevice(nil)
	}
	if err := s.device.Close(); err != nil {
		log.Printf("Failed to close device: %v", err)
	}
	<-s.repliesEnd
	<-s.meterEnd
	s.device = nil
}

func (s *shellState) command(fn func(dcm.Device) error) error {
	if s.device == nil {
		return dcm.ErrNotConnected
	}
	return fn(s.device)
}
