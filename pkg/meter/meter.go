package meter

import (
	"sync"
	"time"

	"github.com/itohio/godcm/pkg/config"
	"github.com/itohio/godcm/pkg/sample"
)

var _ SpeedMeter = (*Meter)(nil)

// settleSamples is the number of recent samples inspected by Settled.
const settleSamples = 3

// Status summarises the latest state of the drive.
type Status struct {
	Ramping      bool    `json:"ramping"`      // Applied duty has not reached the target yet
	Settled      bool    `json:"settled"`      // Duty at target and RPM steady within tolerance
	Acceleration float64 `json:"acceleration"` // Latest RPM/s
	Spread       float64 `json:"spread"`       // RPM max-min over the last settleSamples samples
}

// SpeedMeter processes samples, maintains buffers, and tracks ramp progress.
type SpeedMeter interface {
	ProcessSamples(input <-chan sample.Sample)
	Samples() []sample.Sample // Current samples buffer, oldest first
	Accelerations() []float64 // RPM/s between consecutive samples, n-1 values for n samples
	Status() Status
	OnUpdate(func(samples []sample.Sample, accelerations []float64, status Status))
}

// Meter implements SpeedMeter.
// Samples older than the configured window are dropped. accelerations[i] is
// (samples[i+1].RPM - samples[i].RPM) / dt, so there is always exactly one
// fewer acceleration than samples.
type Meter struct {
	samples       []sample.Sample
	accelerations []float64
	status        Status

	mu sync.RWMutex

	callbacks []func(samples []sample.Sample, accelerations []float64, status Status)
	cbMu      sync.RWMutex

	windowDuration time.Duration
	tolerance      float64

	// Set when the input channel closes; no callbacks are sent afterwards
	shutdown bool
}

// New creates a new Meter from the telemetry configuration.
func New(cfg *config.Config) *Meter {
	return &Meter{
		samples:        make([]sample.Sample, 0),
		accelerations:  make([]float64, 0),
		windowDuration: cfg.Window(),
		tolerance:      cfg.Telemetry.SettleToleranceRPM,
	}
}

// ProcessSamples consumes samples until input is closed.
func (m *Meter) ProcessSamples(input <-chan sample.Sample) {
	for s := range input {
		m.processSample(s)
	}
	m.mu.Lock()
	m.shutdown = true
	m.mu.Unlock()
}

// processSample appends a sample, trims the window and updates the status.
func (m *Meter) processSample(s sample.Sample) {
	m.mu.Lock()

	m.samples = append(m.samples, s)
	if n := len(m.samples); n >= 2 {
		prev := m.samples[n-2]
		var accel float64
		if dt := s.Timestamp.Sub(prev.Timestamp).Seconds(); dt > 0 {
			accel = (s.RPM - prev.RPM) / dt
		}
		m.accelerations = append(m.accelerations, accel)
	}

	// Drop samples outside the time window together with their accelerations
	cutoff := s.Timestamp.Add(-m.windowDuration)
	drop := 0
	for drop < len(m.samples)-1 && !m.samples[drop].Timestamp.After(cutoff) {
		drop++
	}
	if drop > 0 {
		m.samples = m.samples[drop:]
		m.accelerations = m.accelerations[drop:]
	}

	m.status = m.computeStatus()
	shouldNotify := !m.shutdown

	m.mu.Unlock()

	if shouldNotify {
		m.notifyCallbacks()
	}
}

// computeStatus derives Status from the buffers. Callers hold m.mu.
func (m *Meter) computeStatus() Status {
	var st Status
	n := len(m.samples)
	if n == 0 {
		return st
	}

	last := m.samples[n-1]
	st.Ramping = last.Duty != last.Target
	if len(m.accelerations) > 0 {
		st.Acceleration = m.accelerations[len(m.accelerations)-1]
	}

	if n < settleSamples {
		return st
	}
	lo, hi := last.RPM, last.RPM
	for _, s := range m.samples[n-settleSamples:] {
		lo = min(lo, s.RPM)
		hi = max(hi, s.RPM)
	}
	st.Spread = hi - lo
	st.Settled = !st.Ramping && st.Spread <= m.tolerance
	return st
}

// Samples returns a copy of the current samples buffer.
func (m *Meter) Samples() []sample.Sample {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]sample.Sample, len(m.samples))
	copy(result, m.samples)
	return result
}

// Accelerations returns a copy of the current accelerations buffer.
func (m *Meter) Accelerations() []float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]float64, len(m.accelerations))
	copy(result, m.accelerations)
	return result
}

// Status returns the latest status.
func (m *Meter) Status() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

// OnUpdate registers a callback invoked after every processed sample.
// The callback receives copies and should return quickly.
func (m *Meter) OnUpdate(callback func(samples []sample.Sample, accelerations []float64, status Status)) {
	m.cbMu.Lock()
	defer m.cbMu.Unlock()
	m.callbacks = append(m.callbacks, callback)
}

// ResetShutdown allows callbacks again. Call it before starting a new chain.
func (m *Meter) ResetShutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.shutdown = false
}

// notifyCallbacks copies the buffers under the read lock and invokes the
// callbacks without holding any lock.
func (m *Meter) notifyCallbacks() {
	samples := m.Samples()
	accelerations := m.Accelerations()
	status := m.Status()

	m.cbMu.RLock()
	callbacks := make([]func(samples []sample.Sample, accelerations []float64, status Status), len(m.callbacks))
	copy(callbacks, m.callbacks)
	m.cbMu.RUnlock()

	for _, cb := range callbacks {
		if cb != nil {
			cb(samples, accelerations, status)
		}
	}
}
