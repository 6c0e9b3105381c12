// Package server exposes a connected motor over HTTP: JSON status and
// commands, a PNG trend and a WebSocket telemetry stream.
package server

import (
	"context"
	"errors"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
	"github.com/gorilla/websocket"
	"github.com/itohio/godcm/pkg/dcm"
	"github.com/itohio/godcm/pkg/meter"
	"github.com/itohio/godcm/pkg/sample"
	"github.com/itohio/godcm/pkg/snapshot"
)

const (
	clientBuffer = 16
	writeTimeout = 5 * time.Second
)

// Commander sends speed commands to the motor. dcm.Device satisfies it.
type Commander interface {
	SetSpeed(percent int) error
	Stop() error
	IsConnected() bool
}

// Source provides the telemetry history. *meter.Meter satisfies it.
type Source interface {
	Samples() []sample.Sample
	Status() meter.Status
}

// Update is one WebSocket message.
type Update struct {
	Sample sample.Sample `json:"sample"`
	Status meter.Status  `json:"status"`
}

// StatusResponse is returned by GET /api/status.
type StatusResponse struct {
	Connected bool           `json:"connected"`
	Status    meter.Status   `json:"status"`
	Last      *sample.Sample `json:"last,omitempty"`
}

// SpeedRequest is the body of POST /api/speed.
type SpeedRequest struct {
	Percent *int `json:"percent"`
}

var errMissingPercent = errors.New("percent is required")

type errorResponse struct {
	Error string `json:"error"`
}

// Server serves one motor.
type Server struct {
	source Source
	maxRPM float64

	mu     sync.RWMutex
	device Commander

	upgrader  websocket.Upgrader
	clients   map[*client]struct{}
	clientsMu sync.Mutex
}

// New creates a server reading telemetry from source. maxRPM scales the
// target line of the trend image.
func New(source Source, maxRPM float64) *Server {
	return &Server{
		source:  source,
		maxRPM:  maxRPM,
		clients: make(map[*client]struct{}),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// SetDevice sets the device commands are sent to. nil detaches it.
func (s *Server) SetDevice(d Commander) {
	s.mu.Lock()
	s.device = d
	s.mu.Unlock()
}

// Router builds the HTTP routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Route("/api", func(r chi.Router) {
		r.Get("/status", s.handleStatus)
		r.Get("/samples", s.handleSamples)
		r.Get("/trend.png", s.handleTrend)
		r.Post("/speed", s.handleSpeed)
		r.Post("/stop", s.handleStop)
	})
	r.Get("/ws", s.handleWebSocket)

	return r
}

// ListenAndServe serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Router()}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()
		srv.Shutdown(shutdownCtx)
		s.closeClients()
	}()

	log.Printf("HTTP server listening on %s", addr)
	if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Publish broadcasts a sample to every WebSocket client. Slow clients miss
// updates rather than block the caller.
func (s *Server) Publish(smp sample.Sample, status meter.Status) {
	u := Update{Sample: smp, Status: status}

	s.clientsMu.Lock()
	defer s.clientsMu.Unlock()
	for c := range s.clients {
		select {
		case c.send <- u:
		default:
			log.Printf("WebSocket client send buffer full, dropping update")
		}
	}
}

// OnMeterUpdate adapts Publish to meter.Meter.OnUpdate.
func (s *Server) OnMeterUpdate(samples []sample.Sample, _ []float64, status meter.Status) {
	if len(samples) == 0 {
		return
	}
	s.Publish(samples[len(samples)-1], status)
}

func (s *Server) commander() Commander {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.device
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{Status: s.source.Status()}
	if d := s.commander(); d != nil {
		resp.Connected = d.IsConnected()
	}
	if samples := s.source.Samples(); len(samples) > 0 {
		last := samples[len(samples)-1]
		resp.Last = &last
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleSamples(w http.ResponseWriter, r *http.Request) {
	samples := s.source.Samples()
	if samples == nil {
		samples = []sample.Sample{}
	}
	render.JSON(w, r, samples)
}

func (s *Server) handleTrend(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "image/png")
	if err := snapshot.WritePNG(w, s.source.Samples(), snapshot.Options{MaxRPM: s.maxRPM}); err != nil {
		log.Printf("Error writing trend: %v", err)
	}
}

func (s *Server) handleSpeed(w http.ResponseWriter, r *http.Request) {
	var req SpeedRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		s.fail(w, r, http.StatusBadRequest, err)
		return
	}
	if req.Percent == nil {
		s.fail(w, r, http.StatusBadRequest, errMissingPercent)
		return
	}
	percent := *req.Percent
	s.command(w, r, func(d Commander) error { return d.SetSpeed(percent) })
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.command(w, r, Commander.Stop)
}

// command runs fn against the device and maps device errors to HTTP codes.
func (s *Server) command(w http.ResponseWriter, r *http.Request, fn func(Commander) error) {
	d := s.commander()
	if d == nil {
		s.fail(w, r, http.StatusServiceUnavailable, dcm.ErrNotConnected)
		return
	}

	err := fn(d)
	switch {
	case err == nil:
		w.WriteHeader(http.StatusNoContent)
	case errors.Is(err, dcm.ErrSpeedOutOfRange):
		s.fail(w, r, http.StatusBadRequest, err)
	case errors.Is(err, dcm.ErrNotConnected):
		s.fail(w, r, http.StatusServiceUnavailable, err)
	default:
		s.fail(w, r, http.StatusInternalServerError, err)
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, code int, err error) {
	render.Status(r, code)
	render.JSON(w, r, errorResponse{Error: err.Error()})
}
