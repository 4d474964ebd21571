package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
)

const tailInterval = time.Second

// ScreenRecorder drives an external recorder process (`wf-recorder` is the
// reference) writing to a temp file, tailing that file once per second so
// data is buffered incrementally rather than only at stop.
type ScreenRecorder struct {
	argv []string

	mu      sync.Mutex
	buf     []byte
	offset  int64
	path    string
	cmd     *exec.Cmd
	stopped bool

	done     chan struct{}
	tailDone chan struct{}
}

// NewScreenRecorder builds a recorder around a command template. The token
// {output} in argv is replaced with the generated output path.
func NewScreenRecorder(argv []string) *ScreenRecorder {
	return &ScreenRecorder{
		argv:     argv,
		done:     make(chan struct{}),
		tailDone: make(chan struct{}),
	}
}

// Start spawns the recorder process and begins tailing its output file.
func (r *ScreenRecorder) Start(ctx context.Context) error {
	if len(r.argv) == 0 {
		return fmt.Errorf("%w: recorder command not configured", ErrDeviceUnavailable)
	}

	path := filepath.Join(os.TempDir(), fmt.Sprintf("glimpse-rec-%s.mp4", uuid.NewString()[:8]))
	argv := make([]string, len(r.argv))
	for i, arg := range r.argv {
		argv[i] = strings.ReplaceAll(arg, "{output}", path)
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	if err := cmd.Start(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return fmt.Errorf("%w: %q not found", ErrDeviceUnavailable, argv[0])
		}
		return fmt.Errorf("%w: start %s: %v", ErrDeviceUnavailable, argv[0], err)
	}

	r.mu.Lock()
	r.cmd = cmd
	r.path = path
	r.mu.Unlock()

	go func() {
		_ = cmd.Wait()
		close(r.done)
	}()
	go r.tail()

	return nil
}

// Done closes when the recorder process exits, including externally.
func (r *ScreenRecorder) Done() <-chan struct{} {
	return r.done
}

// Pause toggles the recorder's pause state (SIGUSR1 for wf-recorder).
// Buffered data is retained.
func (r *ScreenRecorder) Pause() error {
	return r.signal(syscall.SIGUSR1)
}

// Resume toggles the recorder back to active.
func (r *ScreenRecorder) Resume() error {
	return r.signal(syscall.SIGUSR1)
}

func (r *ScreenRecorder) signal(sig os.Signal) error {
	r.mu.Lock()
	cmd := r.cmd
	r.mu.Unlock()
	if cmd == nil || cmd.Process == nil {
		return ErrSessionNotActive
	}
	if err := cmd.Process.Signal(sig); err != nil {
		return fmt.Errorf("signal recorder: %w", err)
	}
	return nil
}

// Stop interrupts the process, drains the remaining file contents, removes
// the temp file, and returns everything buffered. Zero buffered data still
// yields a Result rather than an error.
func (r *ScreenRecorder) Stop() (Result, error) {
	r.mu.Lock()
	if r.stopped {
		data := r.buf
		r.mu.Unlock()
		return r.result(data), nil
	}
	r.stopped = true
	cmd := r.cmd
	path := r.path
	r.mu.Unlock()

	if cmd != nil && cmd.Process != nil {
		_ = cmd.Process.Signal(os.Interrupt)
		select {
		case <-r.done:
		case <-time.After(5 * time.Second):
			_ = cmd.Process.Kill()
			<-r.done
		}
	}
	<-r.tailDone

	r.drain()

	r.mu.Lock()
	data := r.buf
	r.mu.Unlock()

	if path != "" {
		_ = os.Remove(path)
	}
	return r.result(data), nil
}

func (r *ScreenRecorder) result(data []byte) Result {
	return Result{
		Data:     data,
		Name:     fmt.Sprintf("recording-%s.mp4", time.Now().Format("20060102-150405")),
		MimeType: "video/mp4",
	}
}

// tail appends newly written output-file bytes to the buffer once per
// second until the process exits, then drains the remainder.
func (r *ScreenRecorder) tail() {
	defer close(r.tailDone)
	ticker := time.NewTicker(tailInterval)
	defer ticker.Stop()

	for {
		select {
		case <-r.done:
			r.drain()
			return
		case <-ticker.C:
			r.drain()
		}
	}
}

func (r *ScreenRecorder) drain() {
	r.mu.Lock()
	path := r.path
	offset := r.offset
	r.mu.Unlock()
	if path == "" {
		return
	}

	f, err := os.Open(path)
	if err != nil {
		return
	}
	defer f.Close()

	if _, err := f.Seek(offset, io.SeekStart); err != nil {
		return
	}
	chunk, err := io.ReadAll(f)
	if err != nil || len(chunk) == 0 {
		return
	}

	r.mu.Lock()
	r.buf = append(r.buf, chunk...)
	r.offset += int64(len(chunk))
	r.mu.Unlock()
}
