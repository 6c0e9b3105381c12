// Package record stores telemetry sessions in a BoltDB file.
package record

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/asdine/storm/v3"
	"github.com/itohio/godcm/pkg/sample"
)

// Session is one connect-to-disconnect run.
type Session struct {
	ID      int       `storm:"id,increment"`
	Started time.Time `storm:"index"`
	Source  string    // Serial port name or "mock"
}

// entry is the stored form of a sample.
type entry struct {
	ID        int `storm:"id,increment"`
	Session   int `storm:"index"`
	Timestamp time.Time
	Duty      float64
	Target    float64
	RPM       float64
	Expected  float64
}

// Store persists sessions and their samples.
type Store struct {
	db *storm.DB
}

// Open opens or creates the database at path.
func Open(path string) (*Store, error) {
	db, err := storm.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// StartSession creates a new session.
func (s *Store) StartSession(source string) (Session, error) {
	session := Session{Started: time.Now(), Source: source}
	if err := s.db.Save(&session); err != nil {
		return Session{}, fmt.Errorf("failed to save session: %w", err)
	}
	return session, nil
}

// Sessions returns all sessions, oldest first.
func (s *Store) Sessions() ([]Session, error) {
	var sessions []Session
	if err := s.db.All(&sessions); err != nil {
		return nil, fmt.Errorf("failed to list sessions: %w", err)
	}
	return sessions, nil
}

// Append stores one sample under session.
func (s *Store) Append(session int, smp sample.Sample) error {
	e := entry{
		Session:   session,
		Timestamp: smp.Timestamp,
		Duty:      smp.Duty,
		Target:    smp.Target,
		RPM:       smp.RPM,
		Expected:  smp.Expected,
	}
	if err := s.db.Save(&e); err != nil {
		return fmt.Errorf("failed to save sample: %w", err)
	}
	return nil
}

// Samples returns the samples of session in arrival order.
func (s *Store) Samples(session int) ([]sample.Sample, error) {
	var entries []entry
	err := s.db.Find("Session", session, &entries)
	if errors.Is(err, storm.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load session %d: %w", session, err)
	}

	samples := make([]sample.Sample, len(entries))
	for i, e := range entries {
		samples[i] = sample.Sample{
			Timestamp: e.Timestamp,
			Duty:      e.Duty,
			Target:    e.Target,
			RPM:       e.RPM,
			Expected:  e.Expected,
		}
	}
	return samples, nil
}

// NewRecorder returns a pass-through stage that stores every sample under
// session before forwarding it. Storage errors are logged; samples are
// always forwarded.
func NewRecorder(store *Store, session int, bufSize int) func(in <-chan sample.Sample) <-chan sample.Sample {
	if bufSize <= 0 {
		bufSize = 100
	}

	return func(in <-chan sample.Sample) <-chan sample.Sample {
		out := make(chan sample.Sample, bufSize)

		go func() {
			defer close(out)
			for smp := range in {
				if err := store.Append(session, smp); err != nil {
					log.Printf("Recorder: %v", err)
				}
				out <- smp
			}
		}()

		return out
	}
}
