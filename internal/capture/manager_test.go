package capture

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rbright/glimpse/internal/fsm"
)

type fakeRecorder struct {
	mu       sync.Mutex
	started  bool
	paused   bool
	stopped  bool
	data     []byte
	startErr error
	done     chan struct{}
}

func (f *fakeRecorder) Start(_ context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.started = true
	return nil
}

func (f *fakeRecorder) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = true
	return nil
}

func (f *fakeRecorder) Resume() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.paused = false
	return nil
}

func (f *fakeRecorder) Stop() (Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stopped = true
	return Result{Data: f.data, Name: "fake.bin", MimeType: "application/octet-stream"}, nil
}

type eosRecorder struct {
	fakeRecorder
}

func (e *eosRecorder) Done() <-chan struct{} {
	return e.done
}

func TestStartRejectsSecondSessionOfSameKind(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Start(context.Background(), KindVoice, &fakeRecorder{})
	require.NoError(t, err)

	_, err = m.Start(context.Background(), KindVoice, &fakeRecorder{})
	require.ErrorIs(t, err, ErrSessionAlreadyActive)

	// A different kind is an independent slot.
	_, err = m.Start(context.Background(), KindScreen, &fakeRecorder{})
	require.NoError(t, err)
}

func TestStopWithoutStartFails(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Stop(KindVoice)
	require.ErrorIs(t, err, ErrSessionNotActive)

	require.ErrorIs(t, m.Pause(KindVoice), ErrSessionNotActive)
	require.ErrorIs(t, m.Resume(KindVoice), ErrSessionNotActive)
}

func TestStartFailureLeavesSlotFree(t *testing.T) {
	m := NewManager(nil)
	boom := errors.New("no device")

	_, err := m.Start(context.Background(), KindVoice, &fakeRecorder{startErr: boom})
	require.ErrorIs(t, err, boom)

	_, err = m.Start(context.Background(), KindVoice, &fakeRecorder{})
	require.NoError(t, err)
}

func TestPauseResumeStopLifecycle(t *testing.T) {
	m := NewManager(nil)
	rec := &fakeRecorder{data: []byte("payload")}

	handle, err := m.Start(context.Background(), KindScreen, rec)
	require.NoError(t, err)
	require.Equal(t, KindScreen, handle.Kind)
	require.NotEmpty(t, handle.ID)

	require.NoError(t, m.Pause(KindScreen))
	require.True(t, rec.paused)

	snapshot := m.Snapshot()
	require.Len(t, snapshot, 1)
	require.Equal(t, fsm.StatePaused, snapshot[0].State)

	require.NoError(t, m.Resume(KindScreen))
	require.False(t, rec.paused)

	result, err := m.Stop(KindScreen)
	require.NoError(t, err)
	require.Equal(t, []byte("payload"), result.Data)
	require.True(t, rec.stopped)
	require.False(t, m.Active(KindScreen))
}

func TestStopFromPausedFinalizes(t *testing.T) {
	m := NewManager(nil)
	rec := &fakeRecorder{}

	_, err := m.Start(context.Background(), KindVoice, rec)
	require.NoError(t, err)
	require.NoError(t, m.Pause(KindVoice))

	result, err := m.Stop(KindVoice)
	require.NoError(t, err)
	require.Empty(t, result.Data)
	require.True(t, rec.stopped)
}

func TestZeroDataStopStillReturnsResult(t *testing.T) {
	m := NewManager(nil)

	_, err := m.Start(context.Background(), KindVoice, &fakeRecorder{})
	require.NoError(t, err)

	result, err := m.Stop(KindVoice)
	require.NoError(t, err)
	require.Empty(t, result.Data)
	require.Equal(t, "fake.bin", result.Name)
}

func TestExternalEndOfStreamBehavesAsStop(t *testing.T) {
	m := NewManager(nil)
	rec := &eosRecorder{fakeRecorder: fakeRecorder{data: []byte("partial"), done: make(chan struct{})}}

	_, err := m.Start(context.Background(), KindScreen, rec)
	require.NoError(t, err)

	close(rec.done)
	require.Eventually(t, func() bool {
		return !m.Active(KindScreen)
	}, time.Second, 5*time.Millisecond)

	// The finalized payload is parked for the caller's stop.
	result, err := m.Stop(KindScreen)
	require.NoError(t, err)
	require.Equal(t, []byte("partial"), result.Data)

	// Collecting it consumes it.
	_, err = m.Stop(KindScreen)
	require.ErrorIs(t, err, ErrSessionNotActive)
}

func TestElapsedSecondsTracksActiveTime(t *testing.T) {
	m := NewManager(nil)
	_, err := m.Start(context.Background(), KindVoice, &fakeRecorder{})
	require.NoError(t, err)

	elapsed, err := m.ElapsedSeconds(KindVoice)
	require.NoError(t, err)
	require.GreaterOrEqual(t, elapsed, 0)

	_, err = m.Stop(KindVoice)
	require.NoError(t, err)
	_, err = m.ElapsedSeconds(KindVoice)
	require.ErrorIs(t, err, ErrSessionNotActive)
}
