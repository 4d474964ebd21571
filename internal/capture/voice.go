package capture

import (
	"context"
	"encoding/binary"
	"fmt"
	"sync"
	"time"

	"github.com/jfreymuth/pulse"
	pulseproto "github.com/jfreymuth/pulse/proto"
)

const (
	voiceSampleRate = 16000
	voiceChannels   = 1
)

// VoiceRecorder buffers microphone PCM from a Pulse record stream and
// finalizes it as a WAV payload.
type VoiceRecorder struct {
	input    string
	fallback string

	mu      sync.Mutex
	buf     []byte
	paused  bool
	stopped bool

	client *pulse.Client
	stream *pulse.RecordStream

	selection Selection
}

// NewVoiceRecorder builds a recorder using the configured device
// preferences.
func NewVoiceRecorder(input string, fallback string) *VoiceRecorder {
	return &VoiceRecorder{input: input, fallback: fallback}
}

// Selection reports the resolved device after Start, for logging.
func (r *VoiceRecorder) Selection() Selection {
	return r.selection
}

// Start resolves the input device and begins a 16kHz mono s16 record
// stream.
func (r *VoiceRecorder) Start(ctx context.Context) error {
	selection, err := SelectDevice(ctx, r.input, r.fallback)
	if err != nil {
		return err
	}
	r.selection = selection

	client, err := newPulseClient()
	if err != nil {
		return err
	}

	source, err := client.SourceByID(selection.Device.ID)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: resolve source %q: %v", ErrDeviceUnavailable, selection.Device.ID, err)
	}

	stream, err := client.NewRecord(
		pulse.NewWriter(pcmWriterFunc(r.onPCM), pulseproto.FormatInt16LE),
		pulse.RecordSource(source),
		pulse.RecordMono,
		pulse.RecordSampleRate(voiceSampleRate),
		pulse.RecordMediaName("glimpse voice capture"),
	)
	if err != nil {
		client.Close()
		return fmt.Errorf("%w: create record stream: %v", ErrDeviceUnavailable, err)
	}

	r.client = client
	r.stream = stream
	stream.Start()
	return nil
}

// Pause suspends the stream; buffered PCM is retained.
func (r *VoiceRecorder) Pause() error {
	r.mu.Lock()
	r.paused = true
	stream := r.stream
	r.mu.Unlock()
	if stream == nil {
		return ErrSessionNotActive
	}
	stream.Stop()
	return nil
}

// Resume restarts the stream after a pause.
func (r *VoiceRecorder) Resume() error {
	r.mu.Lock()
	r.paused = false
	stream := r.stream
	r.mu.Unlock()
	if stream == nil {
		return ErrSessionNotActive
	}
	stream.Start()
	return nil
}

// Stop closes the stream and returns everything buffered as a WAV payload.
// An empty buffer still produces a (header-only) Result.
func (r *VoiceRecorder) Stop() (Result, error) {
	r.mu.Lock()
	if r.stopped {
		buf := r.buf
		r.mu.Unlock()
		return r.result(buf), nil
	}
	r.stopped = true
	stream := r.stream
	client := r.client
	r.mu.Unlock()

	if stream != nil {
		stream.Stop()
		stream.Close()
	}
	if client != nil {
		client.Close()
	}

	r.mu.Lock()
	buf := r.buf
	r.mu.Unlock()
	return r.result(buf), nil
}

func (r *VoiceRecorder) result(pcm []byte) Result {
	return Result{
		Data:     EncodeWAV(pcm, voiceSampleRate, voiceChannels),
		Name:     fmt.Sprintf("voice-%s.wav", time.Now().Format("20060102-150405")),
		MimeType: "audio/wav",
	}
}

func (r *VoiceRecorder) onPCM(frame []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.stopped || r.paused {
		return len(frame), nil
	}
	r.buf = append(r.buf, frame...)
	return len(frame), nil
}

// pcmWriterFunc adapts a function to io.Writer for pulse.NewWriter.
type pcmWriterFunc func([]byte) (int, error)

func (f pcmWriterFunc) Write(b []byte) (int, error) {
	return f(b)
}

// EncodeWAV wraps raw s16le PCM in a RIFF/WAVE header.
func EncodeWAV(pcm []byte, sampleRate int, channels int) []byte {
	byteRate := sampleRate * channels * 2
	blockAlign := channels * 2

	out := make([]byte, 0, 44+len(pcm))
	out = append(out, "RIFF"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(36+len(pcm)))
	out = append(out, "WAVE"...)
	out = append(out, "fmt "...)
	out = binary.LittleEndian.AppendUint32(out, 16)
	out = binary.LittleEndian.AppendUint16(out, 1) // PCM
	out = binary.LittleEndian.AppendUint16(out, uint16(channels))
	out = binary.LittleEndian.AppendUint32(out, uint32(sampleRate))
	out = binary.LittleEndian.AppendUint32(out, uint32(byteRate))
	out = binary.LittleEndian.AppendUint16(out, uint16(blockAlign))
	out = binary.LittleEndian.AppendUint16(out, 16) // bits per sample
	out = append(out, "data"...)
	out = binary.LittleEndian.AppendUint32(out, uint32(len(pcm)))
	out = append(out, pcm...)
	return out
}
