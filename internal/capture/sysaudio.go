package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

// AudioSnapshot is one periodic observation of system audio while a
// monitor session is Active.
type AudioSnapshot struct {
	Timestamp time.Time
	Level     float64
	Active    bool
}

// SystemAudioMonitor observes the default sink's monitor source and emits
// one level snapshot per second. It is a best-effort sidecar: when the
// platform offers no monitor source, the session degrades to a successful
// no-op instead of failing, and Stop produces no payload.
type SystemAudioMonitor struct {
	mu       sync.Mutex
	stopped  bool
	degraded bool
	window   []byte

	client *pulse.Client
	stream *pulse.RecordStream

	snapshots chan AudioSnapshot
	ticker    *time.Ticker
	tickDone  chan struct{}
}

// NewSystemAudioMonitor builds an unstarted monitor.
func NewSystemAudioMonitor() *SystemAudioMonitor {
	return &SystemAudioMonitor{
		snapshots: make(chan AudioSnapshot, 16),
		tickDone:  make(chan struct{}),
	}
}

// Snapshots returns the periodic observation stream. Closed on Stop.
func (m *SystemAudioMonitor) Snapshots() <-chan AudioSnapshot {
	return m.snapshots
}

// Degraded reports whether the monitor is running as a no-op.
func (m *SystemAudioMonitor) Degraded() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.degraded
}

// Start attaches to the default sink's monitor source. Any platform
// failure degrades to a no-op rather than returning an error.
func (m *SystemAudioMonitor) Start(_ context.Context) error {
	client, err := newPulseClient()
	if err != nil {
		m.degrade()
		return nil
	}

	sink, err := client.DefaultSink()
	if err != nil {
		client.Close()
		m.degrade()
		return nil
	}

	source, err := client.SourceByID(sink.ID() + ".monitor")
	if err != nil {
		client.Close()
		m.degrade()
		return nil
	}

	stream, err := client.NewRecord(
		pulse.NewWriter(pcmWriterFunc(m.onPCM), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(voiceSampleRate),
		pulse.RecordMediaName("glimpse system audio monitor"),
	)
	if err != nil {
		client.Close()
		m.degrade()
		return nil
	}

	m.mu.Lock()
	m.client = client
	m.stream = stream
	m.mu.Unlock()
	stream.Start()

	m.ticker = time.NewTicker(time.Second)
	go m.emit()
	return nil
}

func (m *SystemAudioMonitor) degrade() {
	m.mu.Lock()
	m.degraded = true
	m.mu.Unlock()
	close(m.tickDone)
}

// Pause is not meaningful for monitoring; the session stays Active only.
func (m *SystemAudioMonitor) Pause() error {
	return fmt.Errorf("%w: system-audio monitoring cannot pause", ErrSessionNotActive)
}

// Resume is not meaningful for monitoring.
func (m *SystemAudioMonitor) Resume() error {
	return fmt.Errorf("%w: system-audio monitoring cannot resume", ErrSessionNotActive)
}

// Stop detaches from the monitor source. Monitoring produces no payload.
func (m *SystemAudioMonitor) Stop() (Result, error) {
	m.mu.Lock()
	if m.stopped {
		m.mu.Unlock()
		return Result{}, nil
	}
	m.stopped = true
	stream := m.stream
	client := m.client
	degraded := m.degraded
	m.mu.Unlock()

	if m.ticker != nil {
		m.ticker.Stop()
	}
	if !degraded {
		close(m.tickDone)
	}
	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}
	close(m.snapshots)
	return Result{}, nil
}

func (m *SystemAudioMonitor) emit() {
	for {
		select {
		case <-m.tickDone:
			return
		case now := <-m.ticker.C:
			level := m.drainLevel()
			snap := AudioSnapshot{Timestamp: now, Level: level, Active: level > 0.01}
			select {
			case m.snapshots <- snap:
			default:
			}
		}
	}
}

// drainLevel computes RMS over the PCM accumulated since the last tick.
func (m *SystemAudioMonitor) drainLevel() float64 {
	m.mu.Lock()
	window := m.window
	m.window = nil
	m.mu.Unlock()

	if len(window) < 2 {
		return 0
	}
	var sum float64
	samples := len(window) / 2
	for i := 0; i+1 < len(window); i += 2 {
		s := int16(binary.LittleEndian.Uint16(window[i:]))
		f := float64(s) / math.MaxInt16
		sum += f * f
	}
	return math.Sqrt(sum / float64(samples))
}

func (m *SystemAudioMonitor) onPCM(frame []byte) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stopped {
		return len(frame), nil
	}
	m.window = append(m.window, frame...)
	return len(frame), nil
}
