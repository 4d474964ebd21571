// Package capture acquires raw media through per-kind session state
// machines over platform capture primitives.
package capture

import (
	"context"
	"errors"
)

// Kind names one acquisition session type.
type Kind string

const (
	KindStill       Kind = "still"
	KindScreen      Kind = "screen-recording"
	KindVoice       Kind = "voice-recording"
	KindSystemAudio Kind = "system-audio"
)

var (
	// ErrDeviceUnavailable covers permission denials and missing devices.
	// Never retried automatically; surfaced for user-facing remediation.
	ErrDeviceUnavailable = errors.New("capture device unavailable")

	// ErrSessionAlreadyActive rejects a second start of the same kind.
	ErrSessionAlreadyActive = errors.New("capture session already active")

	// ErrSessionNotActive rejects stop/pause/resume with nothing running.
	ErrSessionNotActive = errors.New("capture session not active")
)

// Result is the finalized payload of a stopped session. A session that
// buffered nothing still finalizes with empty Data rather than failing.
type Result struct {
	Data     []byte
	Name     string
	MimeType string
}

// Recorder is the capability interface a platform adapter implements for
// one session kind.
type Recorder interface {
	Start(ctx context.Context) error
	Pause() error
	Resume() error
	Stop() (Result, error)
}

// EOSNotifier is optionally implemented by recorders whose underlying
// stream can end externally (device revoked, child process exit). The
// manager treats a closed Done channel as an implicit stop.
type EOSNotifier interface {
	Done() <-chan struct{}
}
