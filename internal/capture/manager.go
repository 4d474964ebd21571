package capture

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/rbright/glimpse/internal/fsm"
)

// Handle identifies one live session to callers.
type Handle struct {
	ID   string
	Kind Kind
}

// Status is a point-in-time view of one session slot.
type Status struct {
	Handle         Handle
	State          fsm.State
	StartedAt      time.Time
	ElapsedSeconds int
}

type session struct {
	handle      Handle
	state       fsm.State
	rec         Recorder
	startedAt   time.Time
	pausedAt    time.Time
	pausedTotal time.Duration
}

// Manager enforces at most one Active/Paused session per kind and drives
// each session's state machine around its recorder.
type Manager struct {
	logger *slog.Logger

	mu       sync.Mutex
	sessions map[Kind]*session
	// finalized holds the result of an implicit (external end-of-stream)
	// stop until the caller collects it with Stop.
	finalized map[Kind]Result
}

// NewManager builds an empty session manager.
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		logger:    logger,
		sessions:  make(map[Kind]*session),
		finalized: make(map[Kind]Result),
	}
}

// Start begins a session of the given kind backed by rec. A second start of
// the same kind while one is Active or Paused fails with
// ErrSessionAlreadyActive.
func (m *Manager) Start(ctx context.Context, kind Kind, rec Recorder) (Handle, error) {
	m.mu.Lock()
	if _, busy := m.sessions[kind]; busy {
		m.mu.Unlock()
		return Handle{}, fmt.Errorf("%w: %s", ErrSessionAlreadyActive, kind)
	}
	s := &session{
		handle: Handle{ID: uuid.NewString(), Kind: kind},
		state:  fsm.StateIdle,
		rec:    rec,
	}
	m.sessions[kind] = s
	delete(m.finalized, kind)
	m.mu.Unlock()

	if err := rec.Start(ctx); err != nil {
		m.mu.Lock()
		delete(m.sessions, kind)
		m.mu.Unlock()
		return Handle{}, err
	}

	m.mu.Lock()
	next, err := fsm.Transition(s.state, fsm.EventStart)
	if err != nil {
		m.mu.Unlock()
		return Handle{}, err
	}
	s.state = next
	s.startedAt = time.Now()
	m.mu.Unlock()

	if notifier, ok := rec.(EOSNotifier); ok {
		go m.watchEOS(kind, s.handle.ID, notifier.Done())
	}

	m.logger.Info("capture session started", "kind", string(kind), "session_id", s.handle.ID)
	return s.handle, nil
}

// Pause suspends an Active recording session.
func (m *Manager) Pause(kind Kind) error {
	m.mu.Lock()
	s, ok := m.sessions[kind]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotActive, kind)
	}
	next, err := fsm.Transition(s.state, fsm.EventPause)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	rec := s.rec
	m.mu.Unlock()

	if err := rec.Pause(); err != nil {
		return err
	}

	m.mu.Lock()
	s.state = next
	s.pausedAt = time.Now()
	m.mu.Unlock()

	m.logger.Info("capture session paused", "kind", string(kind))
	return nil
}

// Resume reactivates a Paused session without losing buffered data.
func (m *Manager) Resume(kind Kind) error {
	m.mu.Lock()
	s, ok := m.sessions[kind]
	if !ok {
		m.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrSessionNotActive, kind)
	}
	next, err := fsm.Transition(s.state, fsm.EventResume)
	if err != nil {
		m.mu.Unlock()
		return err
	}
	rec := s.rec
	m.mu.Unlock()

	if err := rec.Resume(); err != nil {
		return err
	}

	m.mu.Lock()
	s.state = next
	if !s.pausedAt.IsZero() {
		s.pausedTotal += time.Since(s.pausedAt)
		s.pausedAt = time.Time{}
	}
	m.mu.Unlock()

	m.logger.Info("capture session resumed", "kind", string(kind))
	return nil
}

// Stop finalizes a session and returns its payload. Stop always finalizes
// buffered data, never discards it; an externally ended session's result is
// returned here too. With no session and no pending result it fails with
// ErrSessionNotActive.
func (m *Manager) Stop(kind Kind) (Result, error) {
	m.mu.Lock()
	if result, ok := m.finalized[kind]; ok {
		delete(m.finalized, kind)
		m.mu.Unlock()
		return result, nil
	}
	s, ok := m.sessions[kind]
	if !ok {
		m.mu.Unlock()
		return Result{}, fmt.Errorf("%w: %s", ErrSessionNotActive, kind)
	}
	next, err := fsm.Transition(s.state, fsm.EventStop)
	if err != nil {
		m.mu.Unlock()
		return Result{}, err
	}
	s.state = next
	rec := s.rec
	m.mu.Unlock()

	result, stopErr := rec.Stop()

	m.mu.Lock()
	delete(m.sessions, kind)
	m.mu.Unlock()

	if stopErr != nil {
		m.logger.Error("capture session finalize failed", "kind", string(kind), "error", stopErr)
		return Result{}, stopErr
	}
	m.logger.Info("capture session stopped", "kind", string(kind), "bytes", len(result.Data))
	return result, nil
}

// ElapsedSeconds reports active (non-paused) time for the session of kind.
func (m *Manager) ElapsedSeconds(kind Kind) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[kind]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrSessionNotActive, kind)
	}
	return int(m.elapsedLocked(s).Seconds()), nil
}

func (m *Manager) elapsedLocked(s *session) time.Duration {
	paused := s.pausedTotal
	if !s.pausedAt.IsZero() {
		paused += time.Since(s.pausedAt)
	}
	return time.Since(s.startedAt) - paused
}

// Snapshot returns the current status of every live session.
func (m *Manager) Snapshot() []Status {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Status, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, Status{
			Handle:         s.handle,
			State:          s.state,
			StartedAt:      s.startedAt,
			ElapsedSeconds: int(m.elapsedLocked(s).Seconds()),
		})
	}
	return out
}

// Active reports whether a session of kind is currently live.
func (m *Manager) Active(kind Kind) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.sessions[kind]
	return ok
}

// watchEOS finalizes a session whose underlying stream ended externally,
// behaving exactly as if Stop had been called. The result is parked until
// the caller's next Stop collects it.
func (m *Manager) watchEOS(kind Kind, sessionID string, done <-chan struct{}) {
	<-done

	m.mu.Lock()
	s, ok := m.sessions[kind]
	if !ok || s.handle.ID != sessionID {
		m.mu.Unlock()
		return
	}
	s.state = fsm.StateFinalizing
	rec := s.rec
	m.mu.Unlock()

	result, err := rec.Stop()

	m.mu.Lock()
	if cur, ok := m.sessions[kind]; ok && cur.handle.ID == sessionID {
		delete(m.sessions, kind)
		if err == nil {
			m.finalized[kind] = result
		}
	}
	m.mu.Unlock()

	if err != nil {
		m.logger.Error("external stream end finalize failed", "kind", string(kind), "error", err)
		return
	}
	m.logger.Info("capture session ended externally", "kind", string(kind), "bytes", len(result.Data))
}
