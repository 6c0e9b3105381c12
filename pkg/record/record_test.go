package record

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/itohio/godcm/pkg/sample"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "runs.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestStore_Sessions(t *testing.T) {
	store := openTemp(t)

	sessions, err := store.Sessions()
	require.NoError(t, err)
	assert.Empty(t, sessions)

	first, err := store.StartSession("mock")
	require.NoError(t, err)
	second, err := store.StartSession("/dev/ttyACM0")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	sessions, err = store.Sessions()
	require.NoError(t, err)
	require.Len(t, sessions, 2)
	assert.Equal(t, "mock", sessions[0].Source)
	assert.Equal(t, "/dev/ttyACM0", sessions[1].Source)
}

func TestStore_Samples(t *testing.T) {
	store := openTemp(t)

	a, err := store.StartSession("a")
	require.NoError(t, err)
	b, err := store.StartSession("b")
	require.NoError(t, err)

	now := time.Now().UTC().Truncate(time.Millisecond)
	for i := range 3 {
		require.NoError(t, store.Append(a.ID, sample.Sample{
			Timestamp: now.Add(time.Duration(i) * time.Second),
			Duty:      float64(i * 10),
			Target:    50,
			RPM:       float64(i * 300),
		}))
	}
	require.NoError(t, store.Append(b.ID, sample.Sample{Timestamp: now, RPM: 42}))

	got, err := store.Samples(a.ID)
	require.NoError(t, err)
	require.Len(t, got, 3)
	for i, s := range got {
		assert.True(t, now.Add(time.Duration(i)*time.Second).Equal(s.Timestamp))
		assert.Equal(t, float64(i*300), s.RPM)
		assert.Equal(t, float64(50), s.Target)
	}

	got, err = store.Samples(b.ID)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, float64(42), got[0].RPM)
}

func TestStore_SamplesUnknownSession(t *testing.T) {
	store := openTemp(t)

	got, err := store.Samples(99)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestRecorder_PassThrough(t *testing.T) {
	store := openTemp(t)
	session, err := store.StartSession("mock")
	require.NoError(t, err)

	in := make(chan sample.Sample, 2)
	in <- sample.Sample{Timestamp: time.Now(), RPM: 100}
	in <- sample.Sample{Timestamp: time.Now(), RPM: 200}
	close(in)

	var forwarded []float64
	for s := range NewRecorder(store, session.ID, 2)(in) {
		forwarded = append(forwarded, s.RPM)
	}
	assert.Equal(t, []float64{100, 200}, forwarded)

	stored, err := store.Samples(session.ID)
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}
