package main

import (
	"context"
	"flag"
	"log"

	"github.com/abiosoft/ishell/v2"
	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/record"
	"github.com/itohio/godcm/pkg/server"
)

func main() {
	var (
		portFlag   = flag.String("p", "", "Serial port override (e.g., COM3 or /dev/ttyACM0)")
		configFlag = flag.String("config", "config.yaml", "Configuration file path")
		mockFlag   = flag.Bool("mock", false, "Use simulated motor instead of serial port")
		httpFlag   = flag.String("http", "", "HTTP listen address override (e.g., :8080)")
		dbFlag     = flag.String("db", "", "Telemetry database override")
	)
	flag.Parse()

	cfg, err := config.Load(*configFlag)
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *portFlag != "" {
		cfg.Serial.Port = *portFlag
	}
	if *httpFlag != "" {
		cfg.Server.Addr = *httpFlag
	}
	if *dbFlag != "" {
		cfg.Record.Path = *dbFlag
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	state := &shellState{
		cfg:        cfg,
		useMock:    *mockFlag,
		speedMeter: meter.New(cfg),
	}

	if cfg.Record.Path != "" {
		store, err := record.Open(cfg.Record.Path)
		if err != nil {
			log.Fatalf("Failed to open telemetry database: %v", err)
		}
		defer store.Close()
		state.store = store
	}

	if cfg.Server.Addr != "" {
		state.server = server.New(state.speedMeter, cfg.Motor.MaxRPM)
		state.speedMeter.OnUpdate(state.server.OnMeterUpdate)
		go func() {
			if err := state.server.ListenAndServe(ctx, cfg.Server.Addr); err != nil {
				log.Printf("HTTP server stopped: %v", err)
			}
		}()
	}

	shell := ishell.New()
	state.shell = shell
	shell.Println("DC motor control shell. Type help for commands.")
	addCommands(shell, state)
	shell.Run()

	state.disconnect()
}
